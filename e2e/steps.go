package e2e

import (
	"github.com/cucumber/godog"

	"invoicebot/e2e/steps/invoice"
)

// RegisterSteps registers all step definitions from modular packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	invoice.RegisterSteps(ctx, tc)
}
