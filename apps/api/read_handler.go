package main

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/laibhnoor/ChatApp/pkg/db"
	"github.com/laibhnoor/ChatApp/pkg/events"
)

type ReadRequest struct {
	ConversationID string `json:"conversation_id"`
}

type ReadResponse struct {
	MarkedCount int `json:"marked_count"`
}

// ReadHandler marks every message in the conversation not authored by the
// caller as read by them. Idempotent: a second call marks nothing. The
// messages_read event resets the incremental unread counter downstream.
func ReadHandler(store *db.Store, publisher *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		claims, ok := claimsFrom(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var req ReadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ConversationID == "" {
			http.Error(w, "conversation_id is required", http.StatusBadRequest)
			return
		}

		isMember, err := store.IsParticipant(r.Context(), claims.UserID, req.ConversationID)
		if err != nil {
			http.Error(w, "Failed to mark as read", http.StatusInternalServerError)
			return
		}
		if !isMember {
			http.Error(w, "Conversation not found", http.StatusNotFound)
			return
		}

		unread, err := store.UnreadMessageIDs(r.Context(), req.ConversationID, claims.UserID)
		if err != nil {
			http.Error(w, "Failed to mark as read", http.StatusInternalServerError)
			return
		}

		marked, err := store.AddReaders(r.Context(), req.ConversationID, claims.UserID, unread)
		if err != nil {
			http.Error(w, "Failed to mark as read", http.StatusInternalServerError)
			return
		}

		if len(marked) > 0 {
			ev := events.Event{
				Type:           events.MessagesRead,
				ConversationID: req.ConversationID,
				ReaderID:       claims.UserID,
				Count:          len(marked),
				All:            true,
			}
			if err := publisher.Publish(r.Context(), ev); err != nil {
				log.Printf("Failed to publish messages_read event: %v", err)
			}
		}

		writeJSON(w, http.StatusOK, ReadResponse{MarkedCount: len(marked)})
	}
}
