package e2e

import (
	"github.com/cucumber/godog"

	"coverbase/e2e/steps/common"
	"coverbase/e2e/steps/customer"
	"coverbase/e2e/steps/policy"
	"coverbase/e2e/steps/quote"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	// Register domain-specific steps
	customer.RegisterSteps(ctx, tc)
	quote.RegisterSteps(ctx, tc)
	policy.RegisterSteps(ctx, tc)
}
