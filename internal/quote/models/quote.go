package models

import (
	"time"

	"github.com/shopspring/decimal"

	customermodels "coverbase/internal/customer/models"
	dErrors "coverbase/pkg/domain-errors"
)

// Status is the quote lifecycle state.
type Status string

const (
	StatusNew      Status = "new"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusActive   Status = "active"
)

// ParseStatus validates a client-supplied status value.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(raw); s {
	case StatusNew, StatusAccepted, StatusRejected, StatusActive:
		return s, nil
	default:
		return "", dErrors.NewField(dErrors.CodeValidation, "status", "invalid status specified")
	}
}

// CanTransitionTo reports whether next is a legal successor of the current
// status. The lifecycle is new → accepted → active, with rejected reachable
// only from new. Terminal statuses have no successors.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusNew:
		return next == StatusAccepted || next == StatusRejected
	case StatusAccepted:
		return next == StatusActive
	default:
		return false
	}
}

// Type is the insurance product a quote covers. Policies copy the type from
// their originating quote.
type Type string

const (
	TypePersonalAccident   Type = "personal-accident"
	TypeHomeownerInsurance Type = "homeowner-insurance"
	TypeAuto               Type = "auto"
)

// ParseType validates a client-supplied quote type.
func ParseType(raw string) (Type, error) {
	switch t := Type(raw); t {
	case TypePersonalAccident, TypeHomeownerInsurance, TypeAuto:
		return t, nil
	default:
		return "", dErrors.NewField(dErrors.CodeValidation, "type", "invalid type specified")
	}
}

// Quote is a priced insurance offer tied to a customer. Premium and cover are
// fixed at creation and never recomputed; the only mutation is the status.
type Quote struct {
	ID           int64
	Status       Status
	Type         Type
	Premium      decimal.Decimal
	Cover        decimal.Decimal
	CustomerID   int64
	Created      time.Time
	LastModified time.Time
}

// Serialized is the wire representation of a quote with its nested customer.
// Money renders as fixed 2-decimal strings.
type Serialized struct {
	ID       int64                     `json:"id"`
	Status   Status                    `json:"status"`
	Type     Type                      `json:"type"`
	Premium  string                    `json:"premium"`
	Cover    string                    `json:"cover"`
	Customer customermodels.Serialized `json:"customer"`
}

// Serialize renders the quote for API responses.
func (q *Quote) Serialize(customer *customermodels.Customer) Serialized {
	return Serialized{
		ID:       q.ID,
		Status:   q.Status,
		Type:     q.Type,
		Premium:  q.Premium.StringFixed(2),
		Cover:    q.Cover.StringFixed(2),
		Customer: customer.Serialize(),
	}
}
