package delivery

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/ignite/voucher-console/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

func testVoucher() domain.Voucher {
	exp := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	return domain.Voucher{Code: "SPRING-7KQ2", CampaignID: "cmp-spring", Value: 12.5, ExpiresAt: &exp}
}

func testTemplates(t *testing.T) *Templates {
	tpl, err := NewTemplates(nil)
	require.NoError(t, err)
	return tpl
}

func TestTemplates_Defaults(t *testing.T) {
	tpl := testTemplates(t)
	c := domain.Customer{Name: "Ana Lima", Phone: "+15550001"}

	out, err := tpl.Render(TemplateSMS, Bindings(c, testVoucher()))
	require.NoError(t, err)
	assert.Equal(t, "Hi Ana, your voucher SPRING-7KQ2 is worth 12.50, valid until 2026-06-30.", out)

	v := testVoucher()
	v.ExpiresAt = nil
	out, err = tpl.Render(TemplateSMS, Bindings(domain.Customer{}, v))
	require.NoError(t, err)
	assert.Equal(t, "Hi there, your voucher SPRING-7KQ2 is worth 12.50.", out)
}

func TestTemplates_Override(t *testing.T) {
	tpl, err := NewTemplates(map[string]string{TemplateSMS: "Code: {{ voucher.code }}"})
	require.NoError(t, err)
	out, err := tpl.Render(TemplateSMS, Bindings(domain.Customer{}, testVoucher()))
	require.NoError(t, err)
	assert.Equal(t, "Code: SPRING-7KQ2", out)

	_, err = NewTemplates(map[string]string{TemplateSMS: "{% if %}"})
	assert.Error(t, err)

	_, err = tpl.Render("missing", nil)
	assert.Error(t, err)
}

type fakeTwilio struct {
	params []*twilioApi.CreateMessageParams
	err    error
}

func (f *fakeTwilio) CreateMessage(p *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = append(f.params, p)
	if f.err != nil {
		return nil, f.err
	}
	sid := "SM123"
	return &twilioApi.ApiV2010Message{Sid: &sid}, nil
}

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.inputs = append(f.inputs, in)
	return &sesv2.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
}

func TestDispatcher_SMS(t *testing.T) {
	tw := &fakeTwilio{}
	d := NewDispatcher(testTemplates(t), NewMulti(NewTwilioSenderWithAPI(tw, "+15559999")))

	c := domain.Customer{ID: "cus-1", Name: "Ana", Phone: "+15550001"}
	require.NoError(t, d.Deliver(context.Background(), c, testVoucher(), domain.ChannelSMS))

	require.Len(t, tw.params, 1)
	assert.Equal(t, "+15550001", *tw.params[0].To)
	assert.Equal(t, "+15559999", *tw.params[0].From)
	assert.Contains(t, *tw.params[0].Body, "SPRING-7KQ2")
}

func TestDispatcher_Email(t *testing.T) {
	ses := &fakeSES{}
	d := NewDispatcher(testTemplates(t), NewMulti(NewSESSenderWithClient(ses, "vouchers@example.com")))

	c := domain.Customer{ID: "cus-1", Name: "Ana", Email: "ana@example.com"}
	require.NoError(t, d.Deliver(context.Background(), c, testVoucher(), domain.ChannelEmail))

	require.Len(t, ses.inputs, 1)
	in := ses.inputs[0]
	assert.Equal(t, "vouchers@example.com", aws.ToString(in.FromEmailAddress))
	assert.Equal(t, []string{"ana@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "Your voucher SPRING-7KQ2", aws.ToString(in.Content.Simple.Subject.Data))
	assert.True(t, strings.Contains(aws.ToString(in.Content.Simple.Body.Html.Data), "12.50"))
}

func TestDispatcher_Errors(t *testing.T) {
	noop := &Noop{}
	d := NewDispatcher(testTemplates(t), noop)
	ctx := context.Background()

	err := d.Deliver(ctx, domain.Customer{Name: "NoPhone"}, testVoucher(), domain.ChannelSMS)
	assert.ErrorIs(t, err, ErrNoAddress)

	err = d.Deliver(ctx, domain.Customer{Phone: "+1"}, testVoucher(), "pigeon")
	assert.ErrorIs(t, err, ErrNoSender)
	assert.Empty(t, noop.Messages())

	require.NoError(t, d.Deliver(ctx, domain.Customer{Phone: "+1"}, testVoucher(), domain.ChannelSMS))
	assert.Len(t, noop.Messages(), 1)
}

func TestMulti_UnknownChannel(t *testing.T) {
	m := NewMulti(nil, NewTwilioSenderWithAPI(&fakeTwilio{}, "+1"))
	err := m.Send(context.Background(), Message{Channel: domain.ChannelEmail})
	assert.ErrorIs(t, err, ErrNoSender)

	tw := &fakeTwilio{err: errors.New("rejected")}
	err = NewMulti(NewTwilioSenderWithAPI(tw, "+1")).Send(context.Background(), Message{Channel: domain.ChannelSMS})
	assert.ErrorContains(t, err, "rejected")
}
