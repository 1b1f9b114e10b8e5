package policy

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string) error
	PUT(path string, payload any) error
	Status() int
	Field(path string) (any, error)
	RememberID(name, path string) error
	ID(name string) (int64, error)
}

// RegisterSteps registers policy-related step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &policySteps{tc: tc}

	ctx.Step(`^I list the customer's policies$`, steps.listCustomerPolicies)
	ctx.Step(`^the list should contain (\d+) polic(?:y|ies)$`, steps.listShouldContain)
	ctx.Step(`^the first listed policy should be in state "([^"]*)"$`, steps.firstPolicyShouldBeInState)
	ctx.Step(`^I remember the first listed policy$`, steps.rememberFirstPolicy)
	ctx.Step(`^the policy state is updated to "([^"]*)"$`, steps.updatePolicyState)
	ctx.Step(`^I fetch the policy$`, steps.fetchPolicy)
	ctx.Step(`^the policy should be in state "([^"]*)"$`, steps.policyShouldBeInState)
	ctx.Step(`^I fetch the policy history$`, steps.fetchPolicyHistory)
	ctx.Step(`^the history should contain (\d+) entr(?:y|ies)$`, steps.historyShouldContain)
	ctx.Step(`^history entry (\d+) should record state "([^"]*)"$`, steps.historyEntryShouldRecordState)
}

type policySteps struct {
	tc TestContext
}

func (s *policySteps) listCustomerPolicies(ctx context.Context) error {
	customerID, err := s.tc.ID("customer")
	if err != nil {
		return err
	}
	return s.tc.GET(fmt.Sprintf("/v1/policies?customer_id=%d", customerID))
}

func (s *policySteps) listShouldContain(ctx context.Context, count int) error {
	return s.arrayShouldHaveLen("policies", count)
}

func (s *policySteps) firstPolicyShouldBeInState(ctx context.Context, expected string) error {
	value, err := s.tc.Field("policies.0.state")
	if err != nil {
		return err
	}
	if value != expected {
		return fmt.Errorf("expected first policy in state %q, got %v", expected, value)
	}
	return nil
}

func (s *policySteps) rememberFirstPolicy(ctx context.Context) error {
	return s.tc.RememberID("policy", "policies.0.id")
}

func (s *policySteps) updatePolicyState(ctx context.Context, state string) error {
	policyID, err := s.tc.ID("policy")
	if err != nil {
		return err
	}
	if err := s.tc.PUT(fmt.Sprintf("/v1/policies/%d/state", policyID), map[string]string{
		"state": state,
	}); err != nil {
		return err
	}
	if s.tc.Status() != 200 {
		detail, _ := s.tc.Field("detail")
		return fmt.Errorf("state update failed with status %d: %v", s.tc.Status(), detail)
	}
	return nil
}

func (s *policySteps) fetchPolicy(ctx context.Context) error {
	policyID, err := s.tc.ID("policy")
	if err != nil {
		return err
	}
	return s.tc.GET(fmt.Sprintf("/v1/policies/%d", policyID))
}

func (s *policySteps) policyShouldBeInState(ctx context.Context, expected string) error {
	value, err := s.tc.Field("state")
	if err != nil {
		return err
	}
	if value != expected {
		return fmt.Errorf("expected policy in state %q, got %v", expected, value)
	}
	return nil
}

func (s *policySteps) fetchPolicyHistory(ctx context.Context) error {
	policyID, err := s.tc.ID("policy")
	if err != nil {
		return err
	}
	return s.tc.GET(fmt.Sprintf("/v1/policies/%d/history", policyID))
}

func (s *policySteps) historyShouldContain(ctx context.Context, count int) error {
	return s.arrayShouldHaveLen("history", count)
}

func (s *policySteps) historyEntryShouldRecordState(ctx context.Context, index int, expected string) error {
	value, err := s.tc.Field(fmt.Sprintf("history.%d.state", index))
	if err != nil {
		return err
	}
	if value != expected {
		return fmt.Errorf("expected history entry %d to record state %q, got %v", index, expected, value)
	}
	return nil
}

func (s *policySteps) arrayShouldHaveLen(field string, count int) error {
	value, err := s.tc.Field(field)
	if err != nil {
		return err
	}
	entries, ok := value.([]any)
	if !ok {
		return fmt.Errorf("%s is %T, not an array", field, value)
	}
	if len(entries) != count {
		return fmt.Errorf("expected %d %s entries, got %d", count, field, len(entries))
	}
	return nil
}
