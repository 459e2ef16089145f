package main

import (
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"

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

func main() {
	scyllaHosts := strings.Split(envOr("SCYLLA_HOSTS", "localhost:9042"), ",")
	kafkaBrokers := strings.Split(envOr("KAFKA_BROKERS", "localhost:19092"), ",")
	redisAddr := envOr("REDIS_ADDR", "localhost:6379")
	addr := envOr("GATEWAY_ADDR", ":8080")

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
	hub := NewHub(store, publisher)
	go hub.Run()

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, w, r)
	})

	log.Printf("Gateway Service Starting on %s...", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatal(err)
	}
}
