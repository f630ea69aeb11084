package crud

import (
	"context"
	"errors"
	"strings"

	"github.com/ignite/voucher-console/internal/notify"
)

var pastTense = map[string]string{
	"create": "created",
	"update": "updated",
	"delete": "deleted",
}

type mutation struct {
	op      string
	success string
	failure string
	silent  bool
}

// Option adjusts the notifications of one mutation.
type Option func(*mutation)

// WithSuccess replaces the success message.
func WithSuccess(msg string) Option { return func(m *mutation) { m.success = msg } }

// WithFailure replaces the fallback used when the error carries no message.
func WithFailure(msg string) Option { return func(m *mutation) { m.failure = msg } }

// Silent suppresses notifications. Bulk callers use it and report once.
func Silent() Option { return func(m *mutation) { m.silent = true } }

func (r *Resource[T, F, C, U, S]) options(op string, opts []Option) mutation {
	m := mutation{
		op:      op,
		success: capitalize(r.cfg.Label) + " " + pastTense[op] + " successfully",
		failure: "Failed to " + op + " " + r.cfg.Label,
	}
	for _, o := range opts {
		o(&m)
	}
	return m
}

func (r *Resource[T, F, C, U, S]) succeed(m mutation) {
	if m.silent {
		return
	}
	r.cfg.Notifier.Notify(notify.Notification{
		Level: notify.Success, Message: m.success, Resource: r.cfg.Name, Op: m.op,
	})
}

func (r *Resource[T, F, C, U, S]) fail(m mutation, err error) {
	if m.silent || errors.Is(err, context.Canceled) {
		return
	}
	r.cfg.Notifier.Notify(notify.Notification{
		Level: notify.Error, Message: notify.MessageFrom(err, m.failure), Resource: r.cfg.Name, Op: m.op,
	})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
