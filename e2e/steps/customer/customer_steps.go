package customer

import (
	"context"
	"fmt"
	"net/url"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, payload any) error
	GET(path string) error
	Status() int
	Field(path string) (any, error)
	RememberID(name, path string) error
}

// RegisterSteps registers customer-related step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &customerSteps{tc: tc}

	ctx.Step(`^a customer "([^"]*) ([^"]*)" born on "([^"]*)"$`, steps.registerCustomer)
	ctx.Step(`^I register a customer with first name "([^"]*)" and no last name$`, steps.registerIncompleteCustomer)
	ctx.Step(`^I search customers by last name "([^"]*)"$`, steps.searchByLastName)
	ctx.Step(`^I search customers by policy type "([^"]*)"$`, steps.searchByPolicyType)
	ctx.Step(`^the search should return at least (\d+) customers?$`, steps.searchShouldReturnAtLeast)
}

type customerSteps struct {
	tc TestContext
}

func (s *customerSteps) registerCustomer(ctx context.Context, firstName, lastName, dob string) error {
	err := s.tc.POST("/v1/create-customer", map[string]string{
		"first_name": firstName,
		"last_name":  lastName,
		"dob":        dob,
	})
	if err != nil {
		return err
	}
	if s.tc.Status() != 201 {
		detail, _ := s.tc.Field("detail")
		return fmt.Errorf("customer registration failed with status %d: %v", s.tc.Status(), detail)
	}
	return s.tc.RememberID("customer", "id")
}

func (s *customerSteps) registerIncompleteCustomer(ctx context.Context, firstName string) error {
	return s.tc.POST("/v1/create-customer", map[string]string{
		"first_name": firstName,
	})
}

func (s *customerSteps) searchByLastName(ctx context.Context, lastName string) error {
	return s.tc.GET("/v1/customers?last_name=" + url.QueryEscape(lastName))
}

func (s *customerSteps) searchByPolicyType(ctx context.Context, policyType string) error {
	return s.tc.GET("/v1/customers?policy_type=" + url.QueryEscape(policyType))
}

func (s *customerSteps) searchShouldReturnAtLeast(ctx context.Context, count int) error {
	value, err := s.tc.Field("customers")
	if err != nil {
		return err
	}
	customers, ok := value.([]any)
	if !ok {
		return fmt.Errorf("customers is %T, not an array", value)
	}
	if len(customers) < count {
		return fmt.Errorf("expected at least %d customers, got %d", count, len(customers))
	}
	return nil
}
