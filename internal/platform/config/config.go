package config

import (
	"os"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr        string
	DatabaseURL string

	// RedisAddr enables the policy detail cache when non-empty.
	RedisAddr string

	// KafkaBrokers enables the outbox publisher when non-empty (comma separated).
	KafkaBrokers string
	KafkaTopic   string

	// StrictQuoteTransitions enforces the new→accepted→active / new→rejected
	// state machine on quote status updates. When false any recognized status
	// value is accepted, matching the legacy behavior.
	StrictQuoteTransitions bool

	// StrictCursors rejects unparsable pagination cursors with a validation
	// error instead of silently restarting from the first page.
	StrictCursors bool
}

// OutboxPollInterval is how often the outbox worker drains pending events.
var OutboxPollInterval = 2 * time.Second

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("COVERBASE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = "postgres://localhost:5432/coverbase?sslmode=disable"
	}

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "coverbase.policy-events"
	}

	return Server{
		Addr:                   addr,
		DatabaseURL:            dbURL,
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		KafkaBrokers:           os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:             topic,
		StrictQuoteTransitions: os.Getenv("STRICT_QUOTE_TRANSITIONS") != "false",
		StrictCursors:          os.Getenv("STRICT_CURSORS") == "true",
	}
}
