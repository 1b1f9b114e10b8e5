package models

import (
	"strings"
	"time"

	dErrors "coverbase/pkg/domain-errors"
)

// DOBFormat is the wire format for dates of birth (DD-MM-YYYY).
const DOBFormat = "02-01-2006"

// Customer is the root aggregate: quotes and policies belong to a customer.
// Customers are immutable once created; there is no update operation.
type Customer struct {
	ID           int64
	FirstName    string
	LastName     string
	DateOfBirth  time.Time
	Created      time.Time
	LastModified time.Time
}

// Serialized is the wire representation of a customer.
type Serialized struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	DOB       string `json:"dob"`
}

// Serialize renders the customer for API responses. The date of birth
// round-trips through DOBFormat exactly.
func (c *Customer) Serialize() Serialized {
	return Serialized{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		DOB:       c.DateOfBirth.Format(DOBFormat),
	}
}

// ParseDOB parses a DD-MM-YYYY date of birth, tagging errors with the field name.
func ParseDOB(field, raw string) (time.Time, error) {
	dob, err := time.Parse(DOBFormat, raw)
	if err != nil {
		return time.Time{}, dErrors.NewField(dErrors.CodeValidation, field, "invalid date format")
	}
	return dob, nil
}

// NewCustomer validates creation input and builds a customer ready to persist.
// The store assigns the id and timestamps.
func NewCustomer(firstName, lastName string, dateOfBirth time.Time) (*Customer, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" {
		return nil, dErrors.NewField(dErrors.CodeValidation, "first_name", "this field is required")
	}
	if lastName == "" {
		return nil, dErrors.NewField(dErrors.CodeValidation, "last_name", "this field is required")
	}
	if dateOfBirth.IsZero() {
		return nil, dErrors.NewField(dErrors.CodeValidation, "dob", "this field is required")
	}
	return &Customer{
		FirstName:   firstName,
		LastName:    lastName,
		DateOfBirth: dateOfBirth,
	}, nil
}

// Filter holds the ANDed customer search criteria. Zero values mean "not set".
type Filter struct {
	// FirstName and LastName match case-insensitive substrings.
	FirstName string
	LastName  string
	// DateOfBirth matches exactly when non-nil.
	DateOfBirth *time.Time
	// PolicyType matches customers holding at least one policy of the type.
	PolicyType string
}
