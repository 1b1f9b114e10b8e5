// Package outbox implements the transactional outbox: services append events
// in the same database transaction as the write that produced them, and a
// background worker drains pending rows to the broker. Consumers, not this
// process, own delivery beyond the broker.
package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types appended by the policy ledger.
const (
	EventPolicyCreated      = "policy.created"
	EventPolicyStateChanged = "policy.state_changed"
)

// AggregateTypePolicy labels outbox rows produced by the policy ledger.
const AggregateTypePolicy = "policy"

// Event is one outbox row. Payload carries the serialized aggregate snapshot.
type Event struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       json.RawMessage
	CreatedAt     time.Time
}

// NewEvent builds an event with a fresh id and the given creation time.
func NewEvent(aggregateType, aggregateID, eventType string, payload json.RawMessage, now time.Time) Event {
	return Event{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now,
	}
}
