package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/laibhnoor/ChatApp/pkg/events"
)

// counterStore is the slice of the chat store the consumer needs.
type counterStore interface {
	IncrementUnread(ctx context.Context, userID, conversationID string) error
	DecrementUnread(ctx context.Context, userID, conversationID string, n int) error
	ResetUnread(ctx context.Context, userID, conversationID string) error
}

// Consumer applies the gateway's event stream to the unread_counters table:
// message_created bumps every recipient's counter, messages_read decrements
// by the marked count (or resets on a whole-conversation read). Any drift
// from replays or races heals on the read path's full recomputation.
type Consumer struct {
	reader *kafka.Reader
	store  counterStore
}

func NewConsumer(brokers []string, groupID string, store counterStore) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    events.Topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	return &Consumer{reader: r, store: store}
}

func (c *Consumer) Consume(ctx context.Context) {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Error reading message: %v. Retrying in 1s...", err)
			time.Sleep(1 * time.Second)
			continue
		}

		var ev events.Event
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			log.Printf("Failed to unmarshal event: %v", err)
			continue
		}

		if err := c.apply(ctx, ev); err != nil {
			log.Printf("Failed to apply %s event for %s: %v", ev.Type, ev.ConversationID, err)
		}
	}
}

func (c *Consumer) apply(ctx context.Context, ev events.Event) error {
	switch ev.Type {
	case events.MessageCreated:
		for _, userID := range ev.Recipients() {
			if err := c.store.IncrementUnread(ctx, userID, ev.ConversationID); err != nil {
				return err
			}
		}
	case events.MessagesRead:
		if ev.All {
			return c.store.ResetUnread(ctx, ev.ReaderID, ev.ConversationID)
		}
		if err := c.store.DecrementUnread(ctx, ev.ReaderID, ev.ConversationID, ev.Count); err != nil {
			return err
		}
	default:
		log.Printf("Skipping unknown event type: %s", ev.Type)
	}
	return nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
