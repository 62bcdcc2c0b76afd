package invoice

import (
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext defines the methods the invoice steps need from the main
// test context.
type TestContext interface {
	CheckHealth() error
	PostInteraction(payload map[string]any) error
	Status() int
	ResponseType() int
	Content() string
	Flags() int
	ModalCustomID() string
	ButtonCustomID() (string, error)
	SetButtonID(id string)
	GetButtonID() string
	SetModalID(id string)
	GetModalID() string
}

// Interaction response types on the wire.
const (
	responseChannelMessage = 4
	responseModal          = 9
	ephemeralFlag          = 64
)

// RegisterSteps registers the invoice conversation step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &invoiceSteps{tc: tc}

	ctx.Step(`^the invoice bot is running$`, steps.botIsRunning)
	ctx.Step(`^I invoke the "([^"]*)" command$`, steps.invokeCommand)
	ctx.Step(`^the "([^"]*)" modal opens$`, steps.modalOpens)
	ctx.Step(`^I submit stage one with date "([^"]*)", number "([^"]*)", customer "([^"]*)" and subject "([^"]*)"$`, steps.submitStageOne)
	ctx.Step(`^the reply offers a continue button$`, steps.replyOffersContinueButton)
	ctx.Step(`^I press the continue button$`, steps.pressContinueButton)
	ctx.Step(`^I press a continue button with id "([^"]*)"$`, steps.pressButtonWithID)
	ctx.Step(`^the second form opens$`, steps.secondFormOpens)
	ctx.Step(`^I submit stage two with description "([^"]*)", quantity "([^"]*)" and unit price "([^"]*)"$`, steps.submitStageTwo)
	ctx.Step(`^the reply contains "([^"]*)"$`, steps.replyContains)
	ctx.Step(`^the reply is ephemeral$`, steps.replyIsEphemeral)
	ctx.Step(`^the reply is visible to the channel$`, steps.replyIsVisible)
}

type invoiceSteps struct {
	tc TestContext
}

func (s *invoiceSteps) botIsRunning() error {
	return s.tc.CheckHealth()
}

func (s *invoiceSteps) invokeCommand(name string) error {
	return s.tc.PostInteraction(map[string]any{
		"type": 2,
		"data": map[string]any{"id": "1", "name": name, "type": 1},
	})
}

func (s *invoiceSteps) modalOpens(customID string) error {
	if s.tc.ResponseType() != responseModal {
		return fmt.Errorf("expected a modal response, got type %d", s.tc.ResponseType())
	}
	if got := s.tc.ModalCustomID(); got != customID {
		return fmt.Errorf("expected modal %q, got %q", customID, got)
	}
	return nil
}

func textRow(customID, value string) map[string]any {
	return map[string]any{
		"type": 1,
		"components": []map[string]any{
			{"type": 4, "custom_id": customID, "value": value},
		},
	}
}

func (s *invoiceSteps) submitStageOne(date, number, customer, subject string) error {
	return s.tc.PostInteraction(map[string]any{
		"type":           5,
		"application_id": "e2e-app",
		"token":          "e2e-interaction-token",
		"data": map[string]any{
			"custom_id": "invoice_step1",
			"components": []map[string]any{
				textRow("invoice_date", date),
				textRow("invoice_number", number),
				textRow("customer_name", customer),
				textRow("subject", subject),
			},
		},
	})
}

func (s *invoiceSteps) replyOffersContinueButton() error {
	id, err := s.tc.ButtonCustomID()
	if err != nil {
		return fmt.Errorf("reply carries no continue button: %w", err)
	}
	s.tc.SetButtonID(id)
	return nil
}

func (s *invoiceSteps) pressContinueButton() error {
	return s.pressButtonWithID(s.tc.GetButtonID())
}

func (s *invoiceSteps) pressButtonWithID(id string) error {
	if err := s.tc.PostInteraction(map[string]any{
		"type": 3,
		"data": map[string]any{"custom_id": id, "component_type": 2},
	}); err != nil {
		return err
	}
	if s.tc.ResponseType() == responseModal {
		s.tc.SetModalID(s.tc.ModalCustomID())
	}
	return nil
}

func (s *invoiceSteps) secondFormOpens() error {
	if s.tc.ResponseType() != responseModal {
		return fmt.Errorf("expected a modal response, got type %d", s.tc.ResponseType())
	}
	id := s.tc.ModalCustomID()
	if !strings.HasPrefix(id, "step2_") && !strings.HasPrefix(id, "sess_") {
		return fmt.Errorf("unexpected stage-two modal id %q", id)
	}
	return nil
}

func (s *invoiceSteps) submitStageTwo(description, quantity, unitPrice string) error {
	return s.tc.PostInteraction(map[string]any{
		"type":           5,
		"application_id": "e2e-app",
		"token":          "e2e-interaction-token",
		"data": map[string]any{
			"custom_id": s.tc.GetModalID(),
			"components": []map[string]any{
				textRow("description", description),
				textRow("quantity", quantity),
				textRow("unit_price", unitPrice),
				textRow("remarks", ""),
			},
		},
	})
}

func (s *invoiceSteps) replyContains(expected string) error {
	if !strings.Contains(s.tc.Content(), expected) {
		return fmt.Errorf("reply %q does not contain %q", s.tc.Content(), expected)
	}
	return nil
}

func (s *invoiceSteps) replyIsEphemeral() error {
	if s.tc.Flags()&ephemeralFlag == 0 {
		return fmt.Errorf("expected an ephemeral reply, got flags %d", s.tc.Flags())
	}
	return nil
}

func (s *invoiceSteps) replyIsVisible() error {
	if s.tc.ResponseType() != responseChannelMessage {
		return fmt.Errorf("expected a channel message, got type %d", s.tc.ResponseType())
	}
	if s.tc.Flags()&ephemeralFlag != 0 {
		return fmt.Errorf("expected a visible reply, got flags %d", s.tc.Flags())
	}
	return nil
}
