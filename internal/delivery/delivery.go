// Package delivery sends granted vouchers to customers by SMS (Twilio) or
// e-mail (SES), rendering the message text from liquid templates.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/metrics"
	"github.com/ignite/voucher-console/internal/pkg/logger"
)

var (
	// ErrNoAddress is returned when the customer has no phone or e-mail for
	// the requested channel.
	ErrNoAddress = errors.New("delivery: customer has no address for channel")
	// ErrNoSender is returned when no sender handles the channel.
	ErrNoSender = errors.New("delivery: channel not configured")
)

// Message is one outbound notification.
type Message struct {
	Channel string
	To      string
	Subject string
	Body    string
}

// Sender delivers messages on one channel.
type Sender interface {
	Channel() string
	Send(ctx context.Context, m Message) error
}

// Multi routes messages to the sender registered for their channel.
type Multi map[string]Sender

// NewMulti indexes senders by channel. Nil senders are skipped.
func NewMulti(senders ...Sender) Multi {
	m := Multi{}
	for _, s := range senders {
		if s != nil {
			m[s.Channel()] = s
		}
	}
	return m
}

func (m Multi) Send(ctx context.Context, msg Message) error {
	s, ok := m[msg.Channel]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSender, msg.Channel)
	}
	return s.Send(ctx, msg)
}

// Noop logs and records messages without sending them. Used when no provider
// is configured and in tests.
type Noop struct {
	mu   sync.Mutex
	Sent []Message
}

func (n *Noop) Send(_ context.Context, m Message) error {
	n.mu.Lock()
	n.Sent = append(n.Sent, m)
	n.mu.Unlock()
	logger.Info("[delivery] message not sent, no provider configured", "channel", m.Channel)
	return nil
}

// Messages returns a copy of what was recorded.
func (n *Noop) Messages() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Message(nil), n.Sent...)
}

type router interface {
	Send(ctx context.Context, m Message) error
}

// Dispatcher renders and sends voucher grants.
type Dispatcher struct {
	templates *Templates
	out       router
}

// NewDispatcher sends through out, which may be a Multi, a Noop or any
// single Sender.
func NewDispatcher(t *Templates, out router) *Dispatcher {
	return &Dispatcher{templates: t, out: out}
}

// Deliver sends v to c on channel ("sms" or "email").
func (d *Dispatcher) Deliver(ctx context.Context, c domain.Customer, v domain.Voucher, channel string) error {
	err := d.deliver(ctx, c, v, channel)
	metrics.RecordDelivery(channel, err)
	if err != nil {
		logger.Warn("[delivery] voucher delivery failed",
			"voucher", v.Code, "channel", channel, "customer", c.ID, "error", err)
		return err
	}
	logger.Info("[delivery] voucher delivered", "voucher", v.Code, "channel", channel)
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, c domain.Customer, v domain.Voucher, channel string) error {
	data := Bindings(c, v)
	msg := Message{Channel: channel}
	var err error
	switch channel {
	case domain.ChannelSMS:
		if c.Phone == "" {
			return ErrNoAddress
		}
		msg.To = c.Phone
		msg.Body, err = d.templates.Render(TemplateSMS, data)
	case domain.ChannelEmail:
		if c.Email == "" {
			return ErrNoAddress
		}
		msg.To = c.Email
		if msg.Subject, err = d.templates.Render(TemplateEmailSubject, data); err != nil {
			return err
		}
		msg.Body, err = d.templates.Render(TemplateEmailBody, data)
	default:
		return fmt.Errorf("%w: %s", ErrNoSender, channel)
	}
	if err != nil {
		return err
	}
	return d.out.Send(ctx, msg)
}
