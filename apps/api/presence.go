package main

import (
	"log"
	"net/http"

	"github.com/laibhnoor/ChatApp/pkg/db"
)

// OnlineUsersHandler serves the Redis-backed online set the gateway
// maintains through SetOnlineFlag.
func OnlineUsersHandler(store *db.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		users, err := store.OnlineUsers(r.Context())
		if err != nil {
			log.Printf("Failed to fetch online users: %v", err)
			http.Error(w, "Failed to fetch presence", http.StatusInternalServerError)
			return
		}
		if users == nil {
			users = []string{}
		}
		writeJSON(w, http.StatusOK, users)
	}
}
