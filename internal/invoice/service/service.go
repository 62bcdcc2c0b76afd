// Package service orchestrates the two-stage conversation: it turns a
// stage-one submission into a continuation handle, resolves that handle
// when the user comes back, merges both stages, derives the payment due
// date, and forwards the result to the recorder.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"invoicebot/internal/busday"
	"invoicebot/internal/invoice/models"
	"invoicebot/internal/invoice/recorder"
	"invoicebot/internal/invoice/session"
	"invoicebot/internal/invoice/validate"
	"invoicebot/internal/platform/metrics"
	"invoicebot/internal/token"
	dErrors "invoicebot/pkg/domainerrors"
)

// Custom ID namespaces. ContinuePrefix marks the continue button,
// SessionPrefix marks store-backed continuations; token.Prefix marks
// the stage-two modal in stateless mode.
const (
	ContinuePrefix = "continue_"
	SessionPrefix  = "sess_"
)

// Service implements the conversation orchestration. All failures are
// converted to coded domain errors here; nothing escapes unclassified.
type Service struct {
	calc       *busday.Calculator
	rec        recorder.Recorder
	sessions   session.Store
	sessionTTL time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithSessionStore enables keyed continuity: stage-one data is parked
// in the store and only a short ID travels through the UI. The token
// codec remains the fallback when a store write fails.
func WithSessionStore(store session.Store, ttl time.Duration) Option {
	return func(s *Service) {
		s.sessions = store
		s.sessionTTL = ttl
	}
}

// WithClock overrides the registration timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service.
func New(calc *busday.Calculator, rec recorder.Recorder, opts ...Option) (*Service, error) {
	if calc == nil {
		return nil, errors.New("business day calculator is required")
	}
	if rec == nil {
		return nil, errors.New("recorder is required")
	}
	s := &Service{
		calc:   calc,
		rec:    rec,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// StageOneResult is the continuation handed back to the transport after
// a valid stage-one submission.
type StageOneResult struct {
	// ButtonID is the custom_id to put on the continue button.
	ButtonID string
	// Warning carries the soft size warning, empty when none.
	Warning string
}

// BeginConversation validates stage-one input and produces the
// continuation handle. Validation failures come back as CodeBadRequest
// with a corrective, field-naming message.
func (s *Service) BeginConversation(ctx context.Context, d models.StageOne) (StageOneResult, error) {
	res := validate.StageOne(d)
	if !res.Valid {
		return StageOneResult{}, dErrors.New(dErrors.CodeBadRequest, res.Message)
	}

	result := StageOneResult{ButtonID: s.tokenButtonID(d)}
	if res.Warning {
		result.Warning = res.Message
	}

	if s.sessions != nil {
		id := uuid.NewString()
		if err := s.sessions.Put(ctx, id, d, s.sessionTTL); err != nil {
			// Degrade to the stateless token; the conversation survives.
			s.logger.WarnContext(ctx, "session store write failed, falling back to token",
				"error", err,
			)
		} else {
			result.ButtonID = SessionPrefix + id
		}
	}

	return result, nil
}

func (s *Service) tokenButtonID(d models.StageOne) string {
	return ContinuePrefix + strings.TrimPrefix(token.Encode(d), token.Prefix)
}

// Resume resolves a continue-button custom_id back into the stage-one
// data and the custom_id for the stage-two modal. Undecodable or
// unknown handles come back as CodeNotFound ("session expired").
func (s *Service) Resume(ctx context.Context, buttonID string) (models.StageOne, string, error) {
	if payload, ok := strings.CutPrefix(buttonID, ContinuePrefix); ok {
		modalID := token.Prefix + payload
		d, ok := token.Decode(modalID)
		if !ok {
			s.metrics.IncTokenDecodeFailure()
			return models.StageOne{}, "", dErrors.New(dErrors.CodeNotFound, "stage token did not decode")
		}
		return d, modalID, nil
	}

	if id, ok := strings.CutPrefix(buttonID, SessionPrefix); ok {
		d, err := s.lookupSession(ctx, id)
		if err != nil {
			return models.StageOne{}, "", err
		}
		return d, buttonID, nil
	}

	return models.StageOne{}, "", dErrors.New(dErrors.CodeNotFound, "unrecognized continuation id")
}

// Complete resolves the stage-two modal's custom_id, merges both
// stages, derives the due date, and forwards the final record. The
// returned record backs the success message.
func (s *Service) Complete(ctx context.Context, modalID string, two models.StageTwo) (models.FinalRecord, error) {
	one, err := s.resolveModalID(ctx, modalID)
	if err != nil {
		s.metrics.IncRegistration("session_expired")
		return models.FinalRecord{}, err
	}
	return s.merge(ctx, one, two)
}

// PeekStageOne resolves the stage-one data behind a stage-two modal's
// custom_id without completing the conversation. The transport uses it
// to word the immediate acknowledgement in deferred mode.
func (s *Service) PeekStageOne(ctx context.Context, modalID string) (models.StageOne, error) {
	return s.resolveModalID(ctx, modalID)
}

// CompleteDirect handles the degenerate single-modal variant where both
// stages arrive in one submission: validation and merge run in one
// transition with no continuation handle.
func (s *Service) CompleteDirect(ctx context.Context, one models.StageOne, two models.StageTwo) (models.FinalRecord, error) {
	res := validate.StageOne(one)
	if !res.Valid {
		return models.FinalRecord{}, dErrors.New(dErrors.CodeBadRequest, res.Message)
	}
	return s.merge(ctx, one, two)
}

func (s *Service) resolveModalID(ctx context.Context, modalID string) (models.StageOne, error) {
	if strings.HasPrefix(modalID, token.Prefix) {
		d, ok := token.Decode(modalID)
		if !ok {
			s.metrics.IncTokenDecodeFailure()
			return models.StageOne{}, dErrors.New(dErrors.CodeNotFound, "stage token did not decode")
		}
		return d, nil
	}
	if id, ok := strings.CutPrefix(modalID, SessionPrefix); ok {
		return s.lookupSession(ctx, id)
	}
	return models.StageOne{}, dErrors.New(dErrors.CodeNotFound, "unrecognized modal id")
}

func (s *Service) lookupSession(ctx context.Context, id string) (models.StageOne, error) {
	if s.sessions == nil {
		return models.StageOne{}, dErrors.New(dErrors.CodeNotFound, "session store not configured")
	}
	d, err := s.sessions.Get(ctx, id)
	if err != nil {
		return models.StageOne{}, dErrors.Wrap(err, dErrors.CodeNotFound, "session lookup failed")
	}
	return d, nil
}

// merge combines both stages, derives the payment due date, stamps the
// registration time, and forwards the record. Recorder failures keep
// their timeout/unavailable codes so the transport can suggest a retry.
func (s *Service) merge(ctx context.Context, one models.StageOne, two models.StageTwo) (models.FinalRecord, error) {
	invoiceDate, err := time.Parse(busday.ISO, one.Date)
	if err != nil {
		s.metrics.IncRegistration("internal_failure")
		return models.FinalRecord{}, dErrors.Wrap(err, dErrors.CodeInternal, "invoice date did not parse")
	}

	due, err := s.calc.PaymentDueDate(ctx, invoiceDate)
	if err != nil {
		s.metrics.IncRegistration("internal_failure")
		return models.FinalRecord{}, dErrors.Wrap(err, dErrors.CodeInternal, "payment due date did not resolve")
	}

	rec := models.FinalRecord{
		StageOne:       one,
		StageTwo:       two,
		PaymentDueDate: due.Format(busday.ISO),
		RegisteredAt:   s.now().UTC().Format(time.RFC3339),
	}

	if err := s.rec.Record(ctx, rec); err != nil {
		s.metrics.IncRegistration("recorder_failure")
		s.logger.ErrorContext(ctx, "recorder call failed",
			"invoice_number", rec.Number,
			"error", err,
		)
		return rec, err
	}

	s.metrics.IncRegistration("success")
	s.logger.InfoContext(ctx, "invoice recorded",
		"invoice_number", rec.Number,
		"payment_due_date", rec.PaymentDueDate,
	)
	return rec, nil
}

// ReleaseSession drops a store-backed continuation once the
// conversation reached a terminal state. Token-mode IDs are ignored.
func (s *Service) ReleaseSession(ctx context.Context, modalID string) {
	id, ok := strings.CutPrefix(modalID, SessionPrefix)
	if !ok || s.sessions == nil {
		return
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "session delete failed", "error", err)
	}
}
