package quote

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, payload any) error
	PUT(path string, payload any) error
	Status() int
	Field(path string) (any, error)
	RememberID(name, path string) error
	ID(name string) (int64, error)
}

// RegisterSteps registers quote-related step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &quoteSteps{tc: tc}

	ctx.Step(`^the customer requests an? "([^"]*)" quote$`, steps.requestQuote)
	ctx.Step(`^I request an? "([^"]*)" quote for customer (\d+)$`, steps.requestQuoteForCustomer)
	ctx.Step(`^the quote status is updated to "([^"]*)"$`, steps.updateQuoteStatus)
	ctx.Step(`^I try to update the quote status to "([^"]*)"$`, steps.tryUpdateQuoteStatus)
	ctx.Step(`^the quote should have status "([^"]*)"$`, steps.quoteShouldHaveStatus)
}

type quoteSteps struct {
	tc TestContext
}

func (s *quoteSteps) requestQuote(ctx context.Context, quoteType string) error {
	customerID, err := s.tc.ID("customer")
	if err != nil {
		return err
	}
	if err := s.tc.POST("/v1/quotes", map[string]any{
		"customer_id": customerID,
		"type":        quoteType,
	}); err != nil {
		return err
	}
	if s.tc.Status() != 201 {
		detail, _ := s.tc.Field("detail")
		return fmt.Errorf("quote creation failed with status %d: %v", s.tc.Status(), detail)
	}
	return s.tc.RememberID("quote", "id")
}

func (s *quoteSteps) requestQuoteForCustomer(ctx context.Context, quoteType string, customerID int) error {
	return s.tc.POST("/v1/quotes", map[string]any{
		"customer_id": customerID,
		"type":        quoteType,
	})
}

func (s *quoteSteps) updateQuoteStatus(ctx context.Context, status string) error {
	if err := s.tryUpdateQuoteStatus(ctx, status); err != nil {
		return err
	}
	if s.tc.Status() != 200 {
		detail, _ := s.tc.Field("detail")
		return fmt.Errorf("status update failed with status %d: %v", s.tc.Status(), detail)
	}
	return nil
}

func (s *quoteSteps) tryUpdateQuoteStatus(ctx context.Context, status string) error {
	quoteID, err := s.tc.ID("quote")
	if err != nil {
		return err
	}
	return s.tc.PUT(fmt.Sprintf("/v1/quotes/%d/status", quoteID), map[string]string{
		"status": status,
	})
}

func (s *quoteSteps) quoteShouldHaveStatus(ctx context.Context, expected string) error {
	value, err := s.tc.Field("status")
	if err != nil {
		return err
	}
	if value != expected {
		return fmt.Errorf("expected quote status %q, got %v", expected, value)
	}
	return nil
}
