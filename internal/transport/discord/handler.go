// Package discord is the thin webhook transport: it verifies inbound
// interaction signatures, dispatches on interaction type, and renders
// the service's outcomes as interaction responses. Business logic stays
// in the service layer.
package discord

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"invoicebot/internal/invoice/models"
	"invoicebot/internal/invoice/service"
	"invoicebot/internal/platform/config"
	"invoicebot/internal/platform/metrics"
	"invoicebot/internal/token"
	dErrors "invoicebot/pkg/domainerrors"
)

// maxButtonIDLen is the platform's hard limit on component custom_ids.
// Enforced here at embed time, independent of the validation package's
// soft ceiling on the modal custom_id.
const maxButtonIDLen = 100

// Handler handles the interactions webhook.
type Handler struct {
	svc       *service.Service
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publicKey ed25519.PublicKey
	behavior  config.Behavior
	followup  *FollowupClient
}

// Option configures a Handler.
type Option func(*Handler)

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithFollowupClient overrides the follow-up client, for tests.
func WithFollowupClient(c *FollowupClient) Option {
	return func(h *Handler) { h.followup = c }
}

// NewHandler creates a Handler. publicKeyHex may be empty to disable
// signature verification for local runs and tests.
func NewHandler(svc *service.Service, logger *slog.Logger, publicKeyHex string, behavior config.Behavior, opts ...Option) (*Handler, error) {
	h := &Handler{
		svc:      svc,
		logger:   logger,
		behavior: behavior,
		followup: NewFollowupClient(logger),
	}
	if publicKeyHex != "" {
		key, err := hex.DecodeString(publicKeyHex)
		if err != nil || len(key) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("invalid interaction public key")
		}
		h.publicKey = ed25519.PublicKey(key)
	} else {
		logger.Warn("interaction signature verification disabled")
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Interactions is the webhook endpoint.
func (h *Handler) Interactions(w http.ResponseWriter, r *http.Request) {
	if h.publicKey != nil && !discordgo.VerifyInteraction(r, h.publicKey) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var interaction discordgo.Interaction
	if err := json.NewDecoder(r.Body).Decode(&interaction); err != nil {
		h.logger.WarnContext(r.Context(), "undecodable interaction payload", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch interaction.Type {
	case discordgo.InteractionPing:
		h.metrics.IncInteraction("ping")
		h.respond(w, &discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong})

	case discordgo.InteractionApplicationCommand:
		h.metrics.IncInteraction("command")
		h.handleCommand(w, r, &interaction)

	case discordgo.InteractionMessageComponent:
		h.metrics.IncInteraction("button")
		h.handleContinueButton(w, r, &interaction)

	case discordgo.InteractionModalSubmit:
		h.metrics.IncInteraction("modal_submit")
		h.handleModalSubmit(w, r, &interaction)

	default:
		h.metrics.IncInteraction("unknown")
		h.logger.WarnContext(r.Context(), "unhandled interaction type", "type", int(interaction.Type))
		w.WriteHeader(http.StatusOK)
	}
}

func (h *Handler) handleCommand(w http.ResponseWriter, r *http.Request, i *discordgo.Interaction) {
	switch i.ApplicationCommandData().Name {
	case commandName:
		h.respond(w, stageOneModal())
	case simpleCommandName:
		h.respond(w, simpleModal())
	default:
		h.logger.WarnContext(r.Context(), "unknown command", "name", i.ApplicationCommandData().Name)
		h.respond(w, ephemeralMessage(genericErrorMessage))
	}
}

func (h *Handler) handleContinueButton(w http.ResponseWriter, r *http.Request, i *discordgo.Interaction) {
	buttonID := i.MessageComponentData().CustomID
	_, modalID, err := h.svc.Resume(r.Context(), buttonID)
	if err != nil {
		h.logger.WarnContext(r.Context(), "continuation did not resolve", "error", err)
		h.respond(w, ephemeralMessage(sessionExpiredMessage))
		return
	}
	h.respond(w, stageTwoModal(modalID))
}

func (h *Handler) handleModalSubmit(w http.ResponseWriter, r *http.Request, i *discordgo.Interaction) {
	data := i.ModalSubmitData()

	switch {
	case data.CustomID == stageOneModalID:
		h.handleStageOne(w, r, data)
	case data.CustomID == simpleModalID:
		h.handleSimple(w, r, data)
	case strings.HasPrefix(data.CustomID, token.Prefix) || strings.HasPrefix(data.CustomID, service.SessionPrefix):
		h.handleStageTwo(w, r, i, data)
	default:
		h.logger.WarnContext(r.Context(), "unknown modal custom_id", "custom_id", data.CustomID)
		h.respond(w, ephemeralMessage(genericErrorMessage))
	}
}

func (h *Handler) handleStageOne(w http.ResponseWriter, r *http.Request, data discordgo.ModalSubmitInteractionData) {
	one := models.StageOne{
		Date:     modalValue(data, 0),
		Number:   modalValue(data, 1),
		Customer: modalValue(data, 2),
		Subject:  modalValue(data, 3),
	}

	result, err := h.svc.BeginConversation(r.Context(), one)
	if err != nil {
		h.respond(w, ephemeralMessage(userMessage(err, models.FinalRecord{})))
		return
	}

	if len(result.ButtonID) > maxButtonIDLen {
		h.logger.WarnContext(r.Context(), "continuation id over hard limit",
			"length", len(result.ButtonID),
		)
		h.respond(w, ephemeralMessage(tooLongMessage))
		return
	}

	h.respond(w, continueMessage(result.ButtonID, result.Warning))
}

func (h *Handler) handleStageTwo(w http.ResponseWriter, r *http.Request, i *discordgo.Interaction, data discordgo.ModalSubmitInteractionData) {
	two := models.StageTwo{
		Description: modalValue(data, 0),
		Quantity:    modalValue(data, 1),
		UnitPrice:   modalValue(data, 2),
		Remarks:     modalValue(data, 3),
	}

	if h.behavior.Deferred {
		// Acknowledge immediately; the recorder call finishes in the
		// background and the outcome arrives as a follow-up message.
		one, err := h.svc.PeekStageOne(r.Context(), data.CustomID)
		if err != nil {
			h.respond(w, ephemeralMessage(sessionExpiredMessage))
			return
		}
		h.respond(w, ephemeralMessage(processingMessage(one)))
		go h.finishDeferred(i.AppID, i.Token, data.CustomID, two)
		return
	}

	rec, err := h.svc.Complete(r.Context(), data.CustomID, two)
	h.svc.ReleaseSession(r.Context(), data.CustomID)
	h.respondOutcome(w, rec, err)
}

// handleSimple processes the single-modal variant: both stages in one
// submission, comma-packed fields.
func (h *Handler) handleSimple(w http.ResponseWriter, r *http.Request, data discordgo.ModalSubmitInteractionData) {
	basics := strings.SplitN(modalValue(data, 0), ",", 3)
	if len(basics) != 3 {
		h.respond(w, ephemeralMessage("Basics must be date,number,customer — e.g. 2025-07-06,INV-001,Acme Corp."))
		return
	}
	amounts := strings.SplitN(modalValue(data, 3), ",", 2)
	quantity, unitPrice := amounts[0], ""
	if len(amounts) == 2 {
		unitPrice = amounts[1]
	}

	one := models.StageOne{
		Date:     strings.TrimSpace(basics[0]),
		Number:   strings.TrimSpace(basics[1]),
		Customer: strings.TrimSpace(basics[2]),
		Subject:  modalValue(data, 1),
	}
	two := models.StageTwo{
		Description: modalValue(data, 2),
		Quantity:    strings.TrimSpace(quantity),
		UnitPrice:   strings.TrimSpace(unitPrice),
		Remarks:     modalValue(data, 4),
	}

	rec, err := h.svc.CompleteDirect(r.Context(), one, two)
	h.respondOutcome(w, rec, err)
}

// finishDeferred completes a deferred submission outside the request
// scope and reports through the follow-up endpoint.
func (h *Handler) finishDeferred(appID, interactionToken, modalID string, two models.StageTwo) {
	ctx, cancel := context.WithTimeout(context.Background(), h.behavior.RecorderTimeout+10*time.Second)
	defer cancel()

	rec, err := h.svc.Complete(ctx, modalID, two)
	h.svc.ReleaseSession(ctx, modalID)

	if !h.behavior.SkipCleanup {
		h.followup.DeleteOriginal(ctx, appID, interactionToken)
	}

	if err != nil {
		h.followup.Send(ctx, appID, interactionToken, userMessage(err, rec), false)
		return
	}
	h.followup.Send(ctx, appID, interactionToken, successMessage(rec), false)
}

func (h *Handler) respondOutcome(w http.ResponseWriter, rec models.FinalRecord, err error) {
	if err != nil {
		h.respond(w, ephemeralMessage(userMessage(err, rec)))
		return
	}
	h.respond(w, channelMessage(successMessage(rec)))
}

// userMessage maps a coded domain error onto the user-facing message.
func userMessage(err error, rec models.FinalRecord) string {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeBadRequest:
		if msg := dErrors.MessageOf(err); msg != "" {
			return msg
		}
		return genericErrorMessage
	case dErrors.CodeNotFound:
		return sessionExpiredMessage
	case dErrors.CodeTimeout, dErrors.CodeUnavailable:
		return recorderFailureMessage(rec.Number)
	default:
		return genericErrorMessage
	}
}

func (h *Handler) respond(w http.ResponseWriter, resp *discordgo.InteractionResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("encode interaction response", "error", err)
	}
}

// modalValue extracts the text-input value at the given row index,
// tolerating missing rows and unexpected component shapes.
func modalValue(data discordgo.ModalSubmitInteractionData, row int) string {
	if row >= len(data.Components) {
		return ""
	}
	ar, ok := data.Components[row].(*discordgo.ActionsRow)
	if !ok || len(ar.Components) == 0 {
		return ""
	}
	input, ok := ar.Components[0].(*discordgo.TextInput)
	if !ok {
		return ""
	}
	return input.Value
}
