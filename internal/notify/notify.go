// Package notify carries user-facing success and error notices from console
// operations to whatever surface displays them.
package notify

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ignite/voucher-console/internal/pkg/logger"
)

// Level is the severity of a notification.
type Level string

const (
	Success Level = "success"
	Info    Level = "info"
	Warning Level = "warning"
	Error   Level = "error"
)

// Notification is one user-facing notice.
type Notification struct {
	Level    Level  `json:"level"`
	Message  string `json:"message"`
	Resource string `json:"resource,omitempty"`
	Op       string `json:"op,omitempty"`
}

func (n Notification) String() string {
	return fmt.Sprintf("[%s] %s", n.Level, n.Message)
}

// Notifier receives notifications. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(Notification)
}

// Func adapts a function to Notifier.
type Func func(Notification)

func (f Func) Notify(n Notification) { f(n) }

// Discard drops every notification.
var Discard Notifier = Func(func(Notification) {})

// LogNotifier writes notifications to the structured log.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notification) {
	fields := []interface{}{"resource", n.Resource, "op", n.Op}
	switch n.Level {
	case Error:
		logger.Error(n.Message, fields...)
	case Warning:
		logger.Warn(n.Message, fields...)
	default:
		logger.Info(n.Message, fields...)
	}
}

// Recorder keeps every notification it receives.
type Recorder struct {
	mu  sync.Mutex
	all []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	r.all = append(r.all, n)
	r.mu.Unlock()
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.all...)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.all) == 0 {
		return Notification{}, false
	}
	return r.all[len(r.all)-1], true
}

// Reset forgets recorded notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.all = nil
	r.mu.Unlock()
}

// UserMessager is implemented by errors that carry a message safe to show.
type UserMessager interface {
	UserMessage() string
}

// MessageFrom extracts the user-facing message from err, falling back when
// the error carries none.
func MessageFrom(err error, fallback string) string {
	var um UserMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}
