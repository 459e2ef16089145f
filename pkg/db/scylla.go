package db

import (
	"log"
	"os"
	"time"

	"github.com/gocql/gocql"
)

const defaultTimeout = 5 * time.Second

type Session struct {
	*gocql.Session
}

// NewSession connects to the cluster with quorum consistency and bounded
// exponential-backoff retries. SCYLLA_TIMEOUT (a Go duration, e.g. "2s")
// overrides the per-query timeout.
func NewSession(hosts []string, keyspace string) (*Session, error) {
	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = timeoutFromEnv()
	cluster.ConnectTimeout = defaultTimeout
	cluster.RetryPolicy = &gocql.ExponentialBackoffRetryPolicy{
		NumRetries: 3,
		Min:        100 * time.Millisecond,
		Max:        1 * time.Second,
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, err
	}

	log.Printf("Connected to ScyllaDB (keyspace %s)", keyspace)
	return &Session{Session: session}, nil
}

func timeoutFromEnv() time.Duration {
	s := os.Getenv("SCYLLA_TIMEOUT")
	if s == "" {
		return defaultTimeout
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		log.Printf("Ignoring invalid SCYLLA_TIMEOUT %q", s)
		return defaultTimeout
	}
	return d
}
