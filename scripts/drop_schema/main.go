package main

import (
	"log"
	"os"
	"strings"

	"github.com/laibhnoor/ChatApp/pkg/db"
)

func main() {
	hosts := []string{"localhost:9042"}
	if s := os.Getenv("SCYLLA_HOSTS"); s != "" {
		hosts = strings.Split(s, ",")
	}

	session, err := db.NewSession(hosts, "chat")
	if err != nil {
		log.Fatalf("Failed to connect to ScyllaDB: %v", err)
	}
	defer session.Close()

	for _, table := range []string{"messages", "conversations", "direct_index", "user_conversations", "unread_counters"} {
		log.Printf("Dropping table %s...", table)
		if err := session.Query("DROP TABLE IF EXISTS " + table).Exec(); err != nil {
			log.Fatalf("Failed to drop table %s: %v", table, err)
		}
	}
	log.Println("Tables dropped successfully.")
}
