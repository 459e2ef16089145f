// Package wire models the socket protocol as a closed set of tagged events.
// Payloads are validated here, before anything reaches the registries.
package wire

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/laibhnoor/ChatApp/pkg/model"
)

type EventType string

// Client to server.
const (
	EvJoinConversation  EventType = "join_conversation"
	EvLeaveConversation EventType = "leave_conversation"
	EvSendMessage       EventType = "send_message"
	EvTyping            EventType = "typing"
	EvMarkAsRead        EventType = "mark_as_read"
)

// Server to client.
const (
	EvNewMessage          EventType = "new_message"
	EvMessageNotification EventType = "message_notification"
	EvUserTyping          EventType = "user_typing"
	EvMessagesRead        EventType = "messages_read"
	EvUserOnline          EventType = "user_online"
	EvUserOffline         EventType = "user_offline"
	EvError               EventType = "error"
)

var (
	ErrMalformed           = errors.New("malformed event")
	ErrUnknownEvent        = errors.New("unknown event type")
	ErrMissingConversation = errors.New("conversation_id is required")
	ErrMissingMessageIDs   = errors.New("message_ids is required")
)

// ClientEvent is the inbound envelope. Which fields are required
// depends on Type; Decode rejects events missing them.
type ClientEvent struct {
	Type           EventType `json:"type"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Content        string    `json:"content,omitempty"`
	IsTyping       bool      `json:"is_typing,omitempty"`
	MessageIDs     []int64   `json:"message_ids,omitempty"`
}

func Decode(data []byte) (*ClientEvent, error) {
	var ev ClientEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, ErrMalformed
	}
	switch ev.Type {
	case EvJoinConversation, EvLeaveConversation, EvSendMessage, EvTyping:
		if ev.ConversationID == "" {
			return nil, ErrMissingConversation
		}
	case EvMarkAsRead:
		if ev.ConversationID == "" {
			return nil, ErrMissingConversation
		}
		if len(ev.MessageIDs) == 0 {
			return nil, ErrMissingMessageIDs
		}
	default:
		return nil, ErrUnknownEvent
	}
	return &ev, nil
}

// MessageSummary is the message shape delivered over the socket.
type MessageSummary struct {
	ID             int64          `json:"id"`
	ConversationID string         `json:"conversation_id"`
	Sender         model.UserRef  `json:"sender"`
	Content        string         `json:"content,omitempty"`
	FileURL        string         `json:"file_url,omitempty"`
	FileType       model.FileType `json:"file_type,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

func Summarize(m *model.Message, sender model.UserRef) MessageSummary {
	return MessageSummary{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         sender,
		Content:        m.Content,
		FileURL:        m.FileURL,
		FileType:       m.FileType,
		CreatedAt:      m.CreatedAt,
	}
}

type NewMessage struct {
	Type    EventType      `json:"type"`
	Message MessageSummary `json:"message"`
}

type MessageNotification struct {
	Type           EventType      `json:"type"`
	ConversationID string         `json:"conversation_id"`
	Message        MessageSummary `json:"message"`
}

type UserTyping struct {
	Type           EventType `json:"type"`
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	Username       string    `json:"username"`
	IsTyping       bool      `json:"is_typing"`
}

type MessagesRead struct {
	Type           EventType     `json:"type"`
	ConversationID string        `json:"conversation_id"`
	MessageIDs     []int64       `json:"message_ids"`
	ReadBy         model.UserRef `json:"read_by"`
}

type Presence struct {
	Type     EventType `json:"type"`
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
}

type ErrorEvent struct {
	Type    EventType `json:"type"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}
