package common

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string) error
	POST(path string, payload any) error
	Status() int
	Field(path string) (any, error)
}

// RegisterSteps registers generic request and assertion step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^I GET "([^"]*)"$`, steps.get)
	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, steps.fieldShouldEqual)
	ctx.Step(`^the response field "([^"]*)" should be present$`, steps.fieldShouldBePresent)
	ctx.Step(`^the error detail should be "([^"]*)"$`, steps.errorDetailShouldBe)
	ctx.Step(`^the error detail for "([^"]*)" should be "([^"]*)"$`, steps.errorDetailForFieldShouldBe)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) get(ctx context.Context, path string) error {
	return s.tc.GET(path)
}

func (s *commonSteps) statusShouldBe(ctx context.Context, expected int) error {
	if s.tc.Status() != expected {
		return fmt.Errorf("expected status %d, got %d", expected, s.tc.Status())
	}
	return nil
}

func (s *commonSteps) fieldShouldEqual(ctx context.Context, path, expected string) error {
	value, err := s.tc.Field(path)
	if err != nil {
		return err
	}
	actual := fmt.Sprintf("%v", value)
	if actual != expected {
		return fmt.Errorf("expected field %q to equal %q, got %q", path, expected, actual)
	}
	return nil
}

func (s *commonSteps) fieldShouldBePresent(ctx context.Context, path string) error {
	_, err := s.tc.Field(path)
	return err
}

func (s *commonSteps) errorDetailShouldBe(ctx context.Context, expected string) error {
	return s.fieldShouldEqual(ctx, "detail", expected)
}

// Field-tagged validation errors render the detail as a map of field names to
// messages rather than a bare string.
func (s *commonSteps) errorDetailForFieldShouldBe(ctx context.Context, field, expected string) error {
	return s.fieldShouldEqual(ctx, "detail."+field, expected)
}
