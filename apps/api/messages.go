package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/laibhnoor/ChatApp/pkg/db"
	"github.com/laibhnoor/ChatApp/pkg/events"
	"github.com/laibhnoor/ChatApp/pkg/model"
)

// messageStore is the slice of the chat store the send path needs.
type messageStore interface {
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)
	InsertMessage(ctx context.Context, m *model.Message) (*model.Message, error)
	SetLastMessage(ctx context.Context, conversationID string, messageID int64) error
}

type eventPublisher interface {
	Publish(ctx context.Context, ev events.Event) error
}

type SendRequest struct {
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
	FileURL        string `json:"file_url,omitempty"`
	FileType       string `json:"file_type,omitempty"`
	FileName       string `json:"file_name,omitempty"`
	FileSize       int64  `json:"file_size,omitempty"`
}

// SendHandler persists a message through the REST path: text, a file
// reference, or both. Like the socket path it seeds readBy with the sender,
// moves the last-message pointer and emits message_created so the unread
// counters advance. There is no live fan-out from here; recipients pick the
// message up on their next read-path query. File bytes live elsewhere — the
// request carries only the reference.
func SendHandler(store messageStore, publisher eventPublisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFrom(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var req SendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ConversationID == "" {
			http.Error(w, "conversation_id is required", http.StatusBadRequest)
			return
		}

		conversation, err := store.GetConversation(r.Context(), req.ConversationID)
		if err != nil || !conversation.HasParticipant(claims.UserID) {
			// Non-participants get the same answer as a missing conversation.
			http.Error(w, "Conversation not found", http.StatusNotFound)
			return
		}

		msg, err := store.InsertMessage(r.Context(), &model.Message{
			ConversationID: req.ConversationID,
			SenderID:       claims.UserID,
			Content:        req.Content,
			FileURL:        req.FileURL,
			FileType:       model.FileType(req.FileType),
			FileName:       req.FileName,
			FileSize:       req.FileSize,
		})
		if errors.Is(err, model.ErrEmptyMessage) || errors.Is(err, model.ErrContentTooLong) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			http.Error(w, "Failed to send message", http.StatusInternalServerError)
			return
		}

		if err := store.SetLastMessage(r.Context(), req.ConversationID, msg.ID); err != nil {
			log.Printf("Failed to update last message for %s: %v", req.ConversationID, err)
		}

		ev := events.Event{
			Type:           events.MessageCreated,
			ConversationID: req.ConversationID,
			MessageID:      msg.ID,
			SenderID:       claims.UserID,
			Participants:   conversation.Participants,
		}
		if err := publisher.Publish(r.Context(), ev); err != nil {
			log.Printf("Failed to publish message_created event: %v", err)
		}

		writeJSON(w, http.StatusCreated, msg)
	}
}

// MessagesHandler routes /messages: GET pages history, POST sends.
func MessagesHandler(store *db.Store, publisher *events.Publisher) http.HandlerFunc {
	history := HistoryHandler(store)
	send := SendHandler(store, publisher)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			send(w, r)
			return
		}
		history(w, r)
	}
}
