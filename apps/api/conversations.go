package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/laibhnoor/ChatApp/pkg/auth"
	"github.com/laibhnoor/ChatApp/pkg/db"
	"github.com/laibhnoor/ChatApp/pkg/model"
)

func claimsFrom(r *http.Request) (*auth.Claims, bool) {
	claims, ok := r.Context().Value(auth.UserKey).(*auth.Claims)
	return claims, ok
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ConversationSummary is one row of the conversation list: the conversation,
// its last message and the viewer's unread count (from the incremental
// counter table the messaging service maintains).
type ConversationSummary struct {
	model.Conversation
	LastMessage *model.Message `json:"last_message,omitempty"`
	UnreadCount int64          `json:"unread_count"`
}

func ConversationsHandler(store *db.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		claims, ok := claimsFrom(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conversations, err := store.ListConversations(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "Failed to list conversations", http.StatusInternalServerError)
			return
		}

		out := make([]ConversationSummary, 0, len(conversations))
		for _, c := range conversations {
			s := ConversationSummary{Conversation: c}
			if c.LastMessageID != 0 {
				if m, err := store.GetMessage(r.Context(), c.ID, c.LastMessageID); err == nil {
					s.LastMessage = m
				}
			}
			if n, err := store.CounterUnread(r.Context(), claims.UserID, c.ID); err == nil {
				s.UnreadCount = n
			}
			out = append(out, s)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// UnreadHandler recomputes unread counts from the messages table. This is
// the ground truth the incremental counters must agree with.
func UnreadHandler(store *db.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		claims, ok := claimsFrom(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conversations, err := store.ListConversations(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "Failed to list conversations", http.StatusInternalServerError)
			return
		}

		counts := make(map[string]int, len(conversations))
		for _, c := range conversations {
			n, err := store.UnreadCount(r.Context(), c.ID, claims.UserID)
			if err != nil {
				log.Printf("Failed to recompute unread for %s: %v", c.ID, err)
				continue
			}
			counts[c.ID] = n
		}
		writeJSON(w, http.StatusOK, counts)
	}
}

type DirectRequest struct {
	UserID string `json:"user_id"`
}

// DirectHandler resolves the canonical direct conversation with another
// user, creating it on first contact. Idempotent for the unordered pair.
func DirectHandler(store *db.Store) http.HandlerFunc {
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

		var req DirectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}

		conversation, created, err := store.GetOrCreateDirect(r.Context(), claims.UserID, req.UserID)
		if errors.Is(err, model.ErrSelfConversation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			http.Error(w, "Failed to resolve conversation", http.StatusInternalServerError)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		writeJSON(w, status, conversation)
	}
}

type GroupRequest struct {
	Name         string   `json:"name"`
	Participants []string `json:"participants"`
}

func GroupHandler(store *db.Store) http.HandlerFunc {
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

		var req GroupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Name == "" || len(req.Participants) == 0 {
			http.Error(w, "Group name and at least 1 other participant required", http.StatusBadRequest)
			return
		}

		conversation, err := store.CreateGroup(r.Context(), req.Name, claims.UserID, req.Participants)
		if errors.Is(err, model.ErrTooFewParticipants) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			http.Error(w, "Failed to create group", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, conversation)
	}
}

type ParticipantRequest struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id,omitempty"`
}

// ParticipantsHandler adds a member (POST, admin only) or removes the caller
// (DELETE), handing admin over when the admin leaves.
func ParticipantsHandler(store *db.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFrom(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var req ParticipantRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ConversationID == "" {
			http.Error(w, "conversation_id is required", http.StatusBadRequest)
			return
		}

		conversation, err := store.GetConversation(r.Context(), req.ConversationID)
		if err != nil || !conversation.IsGroup || !conversation.HasParticipant(claims.UserID) {
			// Non-members get the same answer as a missing group.
			http.Error(w, "Group not found", http.StatusNotFound)
			return
		}

		switch r.Method {
		case http.MethodPost:
			if conversation.AdminID != claims.UserID {
				http.Error(w, "Group not found", http.StatusNotFound)
				return
			}
			if req.UserID == "" {
				http.Error(w, "user_id is required", http.StatusBadRequest)
				return
			}
			if conversation.HasParticipant(req.UserID) {
				http.Error(w, "User already in group", http.StatusBadRequest)
				return
			}
			updated, err := store.AddParticipant(r.Context(), req.ConversationID, req.UserID)
			if err != nil {
				http.Error(w, "Failed to add participant", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, updated)

		case http.MethodDelete:
			updated, err := store.RemoveParticipant(r.Context(), req.ConversationID, claims.UserID)
			if err != nil {
				http.Error(w, "Failed to leave group", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, updated)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
