package main

import (
	"context"
	"errors"

	"github.com/laibhnoor/ChatApp/pkg/events"
	"github.com/laibhnoor/ChatApp/pkg/model"
)

// Gateway is the narrow persistence contract the realtime layer depends on.
// pkg/db.Store implements it against ScyllaDB and Redis.
type Gateway interface {
	IsParticipant(ctx context.Context, userID, conversationID string) (bool, error)
	ListParticipants(ctx context.Context, conversationID string) ([]string, error)
	CreateMessage(ctx context.Context, conversationID, senderID, content string) (*model.Message, error)
	SetLastMessage(ctx context.Context, conversationID string, messageID int64) error
	AddReaders(ctx context.Context, conversationID, userID string, messageIDs []int64) ([]int64, error)
	UnreadMessageIDs(ctx context.Context, conversationID, userID string) ([]int64, error)
	SetOnlineFlag(ctx context.Context, userID string, online bool) error
}

// EventSink receives the fire-and-forget stream consumed by the messaging
// service. events.Publisher implements it over Kafka.
type EventSink interface {
	Publish(ctx context.Context, ev events.Event) error
}

// ErrNotFound covers both missing conversations and unauthorized senders;
// non-participants are told the conversation does not exist.
var ErrNotFound = errors.New("conversation not found")
