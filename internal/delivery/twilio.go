package delivery

import (
	"context"
	"fmt"

	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/pkg/logger"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// MessageCreator is the Twilio call TwilioSender makes.
type MessageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSender sends SMS through Twilio.
type TwilioSender struct {
	api  MessageCreator
	from string
}

// NewTwilioSender creates a sender with account credentials.
func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return NewTwilioSenderWithAPI(client.Api, from)
}

// NewTwilioSenderWithAPI wraps an existing API client.
func NewTwilioSenderWithAPI(api MessageCreator, from string) *TwilioSender {
	return &TwilioSender{api: api, from: from}
}

func (s *TwilioSender) Channel() string { return domain.ChannelSMS }

func (s *TwilioSender) Send(_ context.Context, m Message) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(m.To)
	params.SetFrom(s.from)
	params.SetBody(m.Body)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}
	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	logger.Debug("[delivery] sms sent", "phone", m.To, "sid", sid)
	return nil
}
