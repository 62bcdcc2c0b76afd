package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"invoicebot/internal/invoice/models"
	"invoicebot/internal/invoice/validate"
)

const ephemeralFlag = int(discordgo.MessageFlagsEphemeral)

// Modal custom_ids for the entry points. Stage-two modals carry the
// continuation id instead.
const (
	stageOneModalID    = "invoice_step1"
	simpleModalID      = "invoice_simple"
	commandName        = "invoice"
	simpleCommandName  = "invoice-quick"
	buttonLabel        = "Continue"
	stageOneModalTitle = "Invoice form (1/2)"
	stageTwoModalTitle = "Invoice form (2/2)"
	simpleModalTitle   = "Invoice form"
)

func textInput(customID, label, placeholder string, style discordgo.TextInputStyle, required bool, maxLength int) discordgo.ActionsRow {
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:    customID,
				Label:       label,
				Placeholder: placeholder,
				Style:       style,
				Required:    required,
				MaxLength:   maxLength,
			},
		},
	}
}

// stageOneModal is the first form: the four basic invoice fields.
func stageOneModal() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: stageOneModalID,
			Title:    stageOneModalTitle,
			Components: []discordgo.MessageComponent{
				textInput("invoice_date", "Invoice date", "e.g. 2025-07-16", discordgo.TextInputShort, true, 0),
				textInput("invoice_number", "Invoice number", "e.g. INV-001", discordgo.TextInputShort, true, validate.MaxNumberLen),
				textInput("customer_name", "Customer name", "e.g. Acme Corp.", discordgo.TextInputShort, true, validate.MaxCustomerLen),
				textInput("subject", "Subject", "e.g. July invoice", discordgo.TextInputShort, true, validate.MaxSubjectLen),
			},
		},
	}
}

// stageTwoModal is the second form; its custom_id carries the
// continuation (token or session id) so the final submission can
// reconstruct stage one.
func stageTwoModal(modalID string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: modalID,
			Title:    stageTwoModalTitle,
			Components: []discordgo.MessageComponent{
				textInput("description", "Description (comma separated)", "e.g. website build,system development", discordgo.TextInputParagraph, true, 0),
				textInput("quantity", "Quantity (comma separated)", "e.g. 1,2", discordgo.TextInputShort, true, 0),
				textInput("unit_price", "Unit price (comma separated)", "e.g. 50000,30000", discordgo.TextInputShort, true, 0),
				textInput("remarks", "Remarks", "optional", discordgo.TextInputParagraph, false, 0),
			},
		},
	}
}

// simpleModal is the degenerate single-screen variant: both stages
// squeezed into the five available inputs.
func simpleModal() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: simpleModalID,
			Title:    simpleModalTitle,
			Components: []discordgo.MessageComponent{
				textInput("basic_info", "Basics (date,number,customer)", "e.g. 2025-07-06,INV-001,Acme Corp.", discordgo.TextInputShort, true, 0),
				textInput("subject", "Subject", "e.g. July invoice", discordgo.TextInputShort, true, validate.MaxSubjectLen),
				textInput("description", "Description", "service details", discordgo.TextInputParagraph, true, 0),
				textInput("amount_info", "Quantity and unit price", "e.g. 1,50000", discordgo.TextInputShort, true, 0),
				textInput("remarks", "Remarks", "optional: payment terms etc.", discordgo.TextInputParagraph, false, 0),
			},
		},
	}
}

// continueMessage carries the continuation button after stage one.
func continueMessage(buttonID, warning string) *discordgo.InteractionResponse {
	content := "Stage 1 of 2 saved. Press the button to enter the remaining details."
	if warning != "" {
		content += "\n" + warning
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{
							Label:    buttonLabel,
							Style:    discordgo.PrimaryButton,
							CustomID: buttonID,
						},
					},
				},
			},
		},
	}
}

func ephemeralMessage(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
}

func channelMessage(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	}
}

// User-facing outcome messages.
func successMessage(rec models.FinalRecord) string {
	return fmt.Sprintf(
		"Invoice recorded.\nInvoice number: %s\nCustomer: %s\nPayment due: %s",
		rec.Number, rec.Customer, rec.PaymentDueDate,
	)
}

func processingMessage(one models.StageOne) string {
	return fmt.Sprintf(
		"Invoice received, recording in progress...\nInvoice number: %s\nCustomer: %s",
		one.Number, one.Customer,
	)
}

func recorderFailureMessage(invoiceNumber string) string {
	return fmt.Sprintf(
		"Recording the invoice failed.\nInvoice number: %s\nPlease try again, or contact an administrator.",
		invoiceNumber,
	)
}

const (
	sessionExpiredMessage = "Session expired. Please start over with /invoice."
	tooLongMessage        = "The entered data is too long. Please shorten it and try again."
	genericErrorMessage   = "An error occurred while processing. Please try again."
)
