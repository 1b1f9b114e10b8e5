package models

import (
	"time"

	"github.com/shopspring/decimal"

	customermodels "coverbase/internal/customer/models"
	quotemodels "coverbase/internal/quote/models"
	dErrors "coverbase/pkg/domain-errors"
)

// State is the policy lifecycle state. Every state write appends a history row.
type State string

const (
	StateQuoted State = "quoted"
	StateNew    State = "new"
	StateBound  State = "bound"
)

// ParseState validates a client-supplied policy state.
func ParseState(raw string) (State, error) {
	switch s := State(raw); s {
	case StateQuoted, StateNew, StateBound:
		return s, nil
	default:
		return "", dErrors.NewField(dErrors.CodeValidation, "state", "invalid state specified")
	}
}

// Policy is the contractual artifact derived from a quote. Exactly one policy
// exists per quote; type, premium, cover, and customer are copied from the
// quote at creation.
type Policy struct {
	ID           int64
	Type         quotemodels.Type
	State        State
	Premium      decimal.Decimal
	Cover        decimal.Decimal
	CustomerID   int64
	QuoteID      int64
	Created      time.Time
	LastModified time.Time
}

// Aggregate is a policy joined with its quote and customer, the shape all
// read paths return since policy responses nest both.
type Aggregate struct {
	Policy   Policy
	Quote    quotemodels.Quote
	Customer customermodels.Customer
}

// Serialized is the wire representation of a policy with nested customer and quote.
type Serialized struct {
	ID       int64                     `json:"id"`
	Type     quotemodels.Type          `json:"type"`
	State    State                     `json:"state"`
	Premium  string                    `json:"premium"`
	Cover    string                    `json:"cover"`
	Customer customermodels.Serialized `json:"customer"`
	Quote    quotemodels.Serialized    `json:"quote"`
}

// Serialize renders the policy for API responses and history snapshots.
func (a *Aggregate) Serialize() Serialized {
	return Serialized{
		ID:       a.Policy.ID,
		Type:     a.Policy.Type,
		State:    a.Policy.State,
		Premium:  a.Policy.Premium.StringFixed(2),
		Cover:    a.Policy.Cover.StringFixed(2),
		Customer: a.Customer.Serialize(),
		Quote:    a.Quote.Serialize(&a.Customer),
	}
}
