// Package events publishes voucher audit entries to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/metrics"
	"github.com/ignite/voucher-console/internal/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// Event types.
const (
	EventVoucherLogged = "voucher.log.recorded"
	eventVersion       = 1
)

var (
	// ErrBufferFull is returned when the publish buffer has no room.
	ErrBufferFull = errors.New("events: publish buffer full")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("events: publisher closed")
)

// Envelope wraps every published payload.
type Envelope struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Producer     string          `json:"producer"`
	Payload      json.RawMessage `json:"payload"`
}

// Publisher forwards voucher log entries.
type Publisher interface {
	Publish(ctx context.Context, l domain.VoucherLog) error
	Close() error
}

// Noop drops everything.
type Noop struct{}

func (Noop) Publish(context.Context, domain.VoucherLog) error { return nil }
func (Noop) Close() error                                     { return nil }

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher queues entries in a buffered inbox and writes them from a
// single goroutine. Publish never blocks; a full inbox drops the entry.
type KafkaPublisher struct {
	w        MessageWriter
	producer string
	inbox    chan kafka.Message
	done     chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewKafkaPublisher creates a publisher writing to topic.
func NewKafkaPublisher(brokers []string, topic, producer string, buf int) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return NewKafkaPublisherWithWriter(w, producer, buf)
}

// NewKafkaPublisherWithWriter starts a publisher on an existing writer.
func NewKafkaPublisherWithWriter(w MessageWriter, producer string, buf int) *KafkaPublisher {
	if buf <= 0 {
		buf = 1024
	}
	p := &KafkaPublisher{
		w:        w,
		producer: producer,
		inbox:    make(chan kafka.Message, buf),
		done:     make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *KafkaPublisher) run() {
	defer close(p.done)
	for m := range p.inbox {
		if err := p.w.WriteMessages(context.Background(), m); err != nil {
			metrics.EventsDropped.Inc()
			logger.Warn("[events] write failed", "key", string(m.Key), "error", err)
		}
	}
	if err := p.w.Close(); err != nil {
		logger.Warn("[events] closing writer", "error", err)
	}
}

// Publish enqueues l keyed by voucher code, so one voucher's history stays
// ordered within a partition.
func (p *KafkaPublisher) Publish(_ context.Context, l domain.VoucherLog) error {
	payload, err := json.Marshal(l)
	if err != nil {
		return err
	}
	value, err := json.Marshal(Envelope{
		EventID:      uuid.NewString(),
		EventType:    EventVoucherLogged,
		EventVersion: eventVersion,
		OccurredAt:   l.CreatedAt.UTC(),
		Producer:     p.producer,
		Payload:      payload,
	})
	if err != nil {
		return err
	}
	m := kafka.Message{
		Key:   []byte(l.VoucherCode),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(EventVoucherLogged)},
			{Key: "x-event-version", Value: []byte("1")},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.inbox <- m:
		return nil
	default:
		metrics.EventsDropped.Inc()
		return ErrBufferFull
	}
}

// Close flushes queued entries and closes the writer.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
	p.mu.Unlock()
	<-p.done
	return nil
}
