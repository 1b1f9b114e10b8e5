package handler

import (
	"strings"

	"coverbase/internal/quote/models"
	dErrors "coverbase/pkg/domain-errors"
)

// CreateQuoteRequest is the POST /v1/quotes body.
type CreateQuoteRequest struct {
	CustomerID int64  `json:"customer_id"`
	Type       string `json:"type"`

	quoteType models.Type
}

func (r *CreateQuoteRequest) Normalize() {
	r.Type = strings.TrimSpace(r.Type)
}

func (r *CreateQuoteRequest) Validate() error {
	if r.CustomerID <= 0 {
		return dErrors.NewField(dErrors.CodeValidation, "customer_id", "this field is required")
	}
	quoteType, err := models.ParseType(r.Type)
	if err != nil {
		return err
	}
	r.quoteType = quoteType
	return nil
}

// UpdateQuoteStatusRequest is the PUT /v1/quotes/{id}/status body.
type UpdateQuoteStatusRequest struct {
	Status string `json:"status"`

	status models.Status
}

func (r *UpdateQuoteStatusRequest) Normalize() {
	r.Status = strings.TrimSpace(r.Status)
}

func (r *UpdateQuoteStatusRequest) Validate() error {
	status, err := models.ParseStatus(r.Status)
	if err != nil {
		return err
	}
	r.status = status
	return nil
}
