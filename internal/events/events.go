// Package events announces CMA changes to other services.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const TypeCMAUpdated = "cma.updated"

// CMAUpdated is emitted after every persisted CMA mutation.
type CMAUpdated struct {
	Type    string    `json:"type"`
	CMAID   string    `json:"cmaId"`
	Action  string    `json:"action"`
	Version int       `json:"version"`
	At      time.Time `json:"at"`
}

func NewCMAUpdated(id, action string, version int) CMAUpdated {
	return CMAUpdated{Type: TypeCMAUpdated, CMAID: id, Action: action, Version: version, At: time.Now().UTC()}
}

// Publisher never fails the caller; delivery is best effort.
type Publisher interface {
	PublishCMAUpdated(ctx context.Context, evt CMAUpdated)
	Close() error
}

// InMemory buffers events for in-process subscribers, dropping when full.
type InMemory struct{ ch chan CMAUpdated }

func NewInMemory(buffer int) *InMemory {
	if buffer <= 0 {
		buffer = 256
	}
	return &InMemory{ch: make(chan CMAUpdated, buffer)}
}

func (m *InMemory) PublishCMAUpdated(_ context.Context, evt CMAUpdated) {
	select {
	case m.ch <- evt:
	default:
	}
}

func (m *InMemory) Subscribe() <-chan CMAUpdated { return m.ch }

// Run consumes events until ctx is done, handing each to handle. It is the
// in-process stand-in for a downstream consumer when no broker is set.
func (m *InMemory) Run(ctx context.Context, handle func(CMAUpdated)) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-m.ch:
			handle(evt)
		}
	}
}

// LogEvent is a Run handler that records each event at debug level.
func LogEvent(evt CMAUpdated) {
	logrus.WithFields(logrus.Fields{
		"cma":     evt.CMAID,
		"action":  evt.Action,
		"version": evt.Version,
	}).Debug(evt.Type)
}

func (m *InMemory) Close() error { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka writes events keyed by CMA id so one CMA's updates stay ordered.
type Kafka struct {
	w   messageWriter
	log *logrus.Entry
}

func NewKafka(brokers []string, topic string) *Kafka {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Kafka{w: w, log: logrus.WithFields(logrus.Fields{"component": "events", "topic": topic})}
}

func (k *Kafka) PublishCMAUpdated(ctx context.Context, evt CMAUpdated) {
	b, err := json.Marshal(evt)
	if err != nil {
		k.log.WithError(err).Error("encode cma event")
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	msg := kafka.Message{Key: []byte(evt.CMAID), Value: b, Time: evt.At}
	if err := k.w.WriteMessages(ctx, msg); err != nil {
		k.log.WithError(err).WithField("cma", evt.CMAID).Warn("publish cma event failed")
	}
}

func (k *Kafka) Close() error { return k.w.Close() }
