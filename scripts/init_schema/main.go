package main

import (
	"log"
	"os"
	"strings"

	"github.com/laibhnoor/ChatApp/pkg/db"
)

var statements = []string{
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
	hosts := []string{"localhost:9042"}
	if s := os.Getenv("SCYLLA_HOSTS"); s != "" {
		hosts = strings.Split(s, ",")
	}

	sysSession, err := db.NewSession(hosts, "system")
	if err != nil {
		log.Fatalf("Failed to connect to ScyllaDB: %v", err)
	}
	if err := sysSession.Query(`CREATE KEYSPACE IF NOT EXISTS chat WITH REPLICATION = { 'class' : 'SimpleStrategy', 'replication_factor' : 1 }`).Exec(); err != nil {
		log.Fatalf("Failed to create keyspace: %v", err)
	}
	sysSession.Close()

	session, err := db.NewSession(hosts, "chat")
	if err != nil {
		log.Fatalf("Failed to connect to chat keyspace: %v", err)
	}
	defer session.Close()

	for _, stmt := range statements {
		if err := session.Query(stmt).Exec(); err != nil {
			log.Fatalf("Failed to apply schema: %v", err)
		}
	}
	log.Println("Schema created successfully")
}
