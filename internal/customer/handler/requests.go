package handler

import (
	"strings"
	"time"

	"coverbase/internal/customer/models"
)

// CreateCustomerRequest is the POST /v1/create-customer body.
type CreateCustomerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	DOB       string `json:"dob"`

	dateOfBirth time.Time
}

func (r *CreateCustomerRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.DOB = strings.TrimSpace(r.DOB)
}

// Validate parses the date of birth. Required-field checks happen in the
// domain model so they apply to every caller, not just HTTP.
func (r *CreateCustomerRequest) Validate() error {
	if r.DOB == "" {
		return nil
	}
	dob, err := models.ParseDOB("dob", r.DOB)
	if err != nil {
		return err
	}
	r.dateOfBirth = dob
	return nil
}
