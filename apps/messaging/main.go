package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/laibhnoor/ChatApp/pkg/db"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS conversations (
		id text PRIMARY KEY,
		name text,
		is_group boolean,
		participants set<text>,
		admin_id text,
		last_message_id bigint,
		updated_at timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS direct_index (
		user_a text,
		user_b text,
		conversation_id text,
		PRIMARY KEY ((user_a, user_b))
	)`,
	`CREATE TABLE IF NOT EXISTS user_conversations (
		user_id text,
		conversation_id text,
		updated_at timestamp,
		PRIMARY KEY (user_id, conversation_id)
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		conversation_id text,
		id bigint,
		sender_id text,
		content text,
		file_url text,
		file_type text,
		file_name text,
		file_size bigint,
		read_by set<text>,
		created_at timestamp,
		PRIMARY KEY (conversation_id, id)
	) WITH CLUSTERING ORDER BY (id DESC)`,
	`CREATE TABLE IF NOT EXISTS unread_counters (
		user_id text,
		conversation_id text,
		unread counter,
		PRIMARY KEY (user_id, conversation_id)
	)`,
}

func main() {
	brokers := strings.Split(envOr("KAFKA_BROKERS", "localhost:19092"), ",")
	scyllaHosts := strings.Split(envOr("SCYLLA_HOSTS", "localhost:9042"), ",")
	groupID := "messaging-service-group"

	// Note: In production, schema creation should be handled by migration
	// tools. For this MVP we create keyspace/tables if missing.
	sysSession, err := db.NewSession(scyllaHosts, "system")
	if err != nil {
		log.Fatalf("Failed to connect to ScyllaDB system keyspace: %v", err)
	}

	err = sysSession.Query(`CREATE KEYSPACE IF NOT EXISTS chat WITH REPLICATION = { 'class' : 'SimpleStrategy', 'replication_factor' : 1 }`).Exec()
	if err != nil {
		log.Fatalf("Failed to create keyspace: %v", err)
	}
	sysSession.Close()

	session, err := db.NewSession(scyllaHosts, "chat")
	if err != nil {
		log.Fatalf("Failed to connect to ScyllaDB chat keyspace: %v", err)
	}
	defer session.Close()

	for _, stmt := range schema {
		if err := session.Query(stmt).Exec(); err != nil {
			log.Fatalf("Failed to apply schema: %v", err)
		}
	}

	store := db.NewStore(session, nil, nil)
	consumer := NewConsumer(brokers, groupID, store)
	defer consumer.Close()

	log.Println("Starting unread counter consumer...")
	consumer.Consume(context.Background())
}
