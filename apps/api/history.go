package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/laibhnoor/ChatApp/pkg/auth"
	"github.com/laibhnoor/ChatApp/pkg/db"
	"github.com/laibhnoor/ChatApp/pkg/model"
)

// HistoryMessage is a stored message plus its derived receipt status, so a
// sender's client can render sent/partial/read without recomputing.
type HistoryMessage struct {
	model.Message
	Status model.ReadStatus `json:"status"`
}

// HistoryHandler pages a conversation's messages newest-first. `before` is a
// message id cursor; snowflake ids order identically to creation time.
func HistoryHandler(store *db.Store) http.HandlerFunc {
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

		conversationID := r.URL.Query().Get("conversation_id")
		if conversationID == "" {
			http.Error(w, "conversation_id is required", http.StatusBadRequest)
			return
		}

		conversation, err := store.GetConversation(r.Context(), conversationID)
		if err != nil || !conversation.HasParticipant(claims.UserID) {
			http.Error(w, "Conversation not found", http.StatusNotFound)
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		before, _ := strconv.ParseInt(r.URL.Query().Get("before"), 10, 64)

		messages, err := store.Messages(r.Context(), conversationID, limit, before)
		if err != nil {
			http.Error(w, "Failed to retrieve history", http.StatusInternalServerError)
			return
		}

		out := make([]HistoryMessage, 0, len(messages))
		for i := range messages {
			out = append(out, HistoryMessage{
				Message: messages[i],
				Status:  messages[i].Status(conversation),
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type LoginRequest struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// LoginHandler issues a token for an identity pair. Account storage and
// credential checks are the auth collaborator's problem, not this service's.
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.UserID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	if req.Username == "" {
		req.Username = req.UserID
	}

	token, err := auth.GenerateToken(req.UserID, req.Username)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token})
}
