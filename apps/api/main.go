package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/laibhnoor/ChatApp/pkg/auth"
	"github.com/laibhnoor/ChatApp/pkg/db"
	"github.com/laibhnoor/ChatApp/pkg/events"
	"github.com/laibhnoor/ChatApp/pkg/snowflake"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*") // Allow all for dev, or specific origin
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if r.Method == "OPTIONS" {
			return
		}

		next.ServeHTTP(w, r)
	})
}

func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.Header.Get("Authorization")
		if tokenString == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		if len(tokenString) > 7 && tokenString[:7] == "Bearer " {
			tokenString = tokenString[7:]
		}

		claims, err := auth.ValidateToken(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), auth.UserKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func main() {
	scyllaHosts := strings.Split(envOr("SCYLLA_HOSTS", "localhost:9042"), ",")
	kafkaBrokers := strings.Split(envOr("KAFKA_BROKERS", "localhost:19092"), ",")
	redisAddr := envOr("REDIS_ADDR", "localhost:6379")
	addr := envOr("API_ADDR", ":8081")

	session, err := db.NewSession(scyllaHosts, "chat")
	if err != nil {
		log.Fatalf("Failed to connect to ScyllaDB: %v", err)
	}
	defer session.Close()

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	node, err := snowflake.NodeFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize snowflake node: %v", err)
	}

	publisher := events.NewPublisher(kafkaBrokers)
	defer publisher.Close()

	store := db.NewStore(session, rdb, node)

	log.Printf("API Service Starting on %s...", addr)

	// Public endpoint
	http.Handle("/login", CORSMiddleware(http.HandlerFunc(LoginHandler)))

	// Protected endpoints
	http.Handle("/conversations", CORSMiddleware(AuthMiddleware(ConversationsHandler(store))))
	http.Handle("/conversations/unread", CORSMiddleware(AuthMiddleware(UnreadHandler(store))))
	http.Handle("/conversations/dm", CORSMiddleware(AuthMiddleware(DirectHandler(store))))
	http.Handle("/conversations/group", CORSMiddleware(AuthMiddleware(GroupHandler(store))))
	http.Handle("/conversations/participants", CORSMiddleware(AuthMiddleware(ParticipantsHandler(store))))
	http.Handle("/conversations/read", CORSMiddleware(AuthMiddleware(ReadHandler(store, publisher))))
	http.Handle("/messages", CORSMiddleware(AuthMiddleware(MessagesHandler(store, publisher))))
	http.Handle("/users/online", CORSMiddleware(AuthMiddleware(OnlineUsersHandler(store))))

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatal(err)
	}
}
