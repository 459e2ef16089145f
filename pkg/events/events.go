// Package events is the Kafka stream the gateway emits onto and the
// messaging service consumes to keep the unread counters current.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

const Topic = "chat-events"

type Type string

const (
	MessageCreated Type = "message_created"
	MessagesRead   Type = "messages_read"
)

type Event struct {
	Type           Type      `json:"type"`
	ConversationID string    `json:"conversation_id"`
	MessageID      int64     `json:"message_id,omitempty"`
	SenderID       string    `json:"sender_id,omitempty"`
	Participants   []string  `json:"participants,omitempty"`
	ReaderID       string    `json:"reader_id,omitempty"`
	Count          int       `json:"count,omitempty"`
	// All marks a whole-conversation read; the counter resets instead of
	// decrementing by Count.
	All  bool      `json:"all,omitempty"`
	Time time.Time `json:"time"`
}

// Recipients lists the users whose unread counter a message_created event
// bumps: every participant except the sender.
func (e Event) Recipients() []string {
	out := make([]string, 0, len(e.Participants))
	for _, p := range e.Participants {
		if p != e.SenderID {
			out = append(out, p)
		}
	}
	return out
}

// Publisher writes events to Kafka. Keyed by conversation so one
// conversation's events stay on one partition, in order.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    Topic,
			Balancer: &kafka.Hash{},
		},
	}
}

func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.ConversationID),
		Value: value,
		Time:  ev.Time,
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
