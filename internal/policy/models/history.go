package models

import (
	"encoding/json"
	"time"
)

// StateHistory is one row of the append-only policy state ledger. Rows are
// never updated or deleted except by cascade when the policy is removed, and
// the first row (the quoted snapshot) is written in the same transaction as
// the policy itself.
type StateHistory struct {
	ID       int64
	PolicyID int64
	State    State
	// AsJSON is the full policy snapshot captured at mutation time.
	AsJSON  json.RawMessage
	Created time.Time
}

// SerializedHistory is the wire representation of a history row. The nested
// policy reflects the current state; object_json_dump is the snapshot at the
// time of the transition.
type SerializedHistory struct {
	ID             int64           `json:"id"`
	State          State           `json:"state"`
	ObjectJSONDump json.RawMessage `json:"object_json_dump"`
	Policy         Serialized      `json:"policy"`
	Created        time.Time       `json:"created"`
}

// Serialize renders the history row with the policy's current aggregate.
func (h *StateHistory) Serialize(current *Aggregate) SerializedHistory {
	return SerializedHistory{
		ID:             h.ID,
		State:          h.State,
		ObjectJSONDump: h.AsJSON,
		Policy:         current.Serialize(),
		Created:        h.Created,
	}
}
