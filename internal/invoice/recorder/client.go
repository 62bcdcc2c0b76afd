// Package recorder forwards completed invoices to the external
// recording endpoint. One POST per record, no retry, no idempotency
// key: success is any 2xx response within the configured timeout.
package recorder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"invoicebot/internal/invoice/models"
	"invoicebot/internal/platform/metrics"
	dErrors "invoicebot/pkg/domainerrors"
	"invoicebot/pkg/platform/circuit"
)

// Recorder records a completed invoice with the external system.
type Recorder interface {
	Record(ctx context.Context, rec models.FinalRecord) error
}

// HTTPRecorder implements Recorder against a webhook URL. A circuit
// breaker fails fast once the endpoint has rejected several calls in a
// row; correctness of the flow does not depend on it.
type HTTPRecorder struct {
	url     string
	client  *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *metrics.Metrics

	probeInterval time.Duration
	mu            sync.Mutex
	lastProbe     time.Time
}

// Option configures an HTTPRecorder.
type Option func(*HTTPRecorder)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *HTTPRecorder) { r.logger = logger }
}

// WithMetrics sets the metrics sink for call latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *HTTPRecorder) { r.metrics = m }
}

// New creates an HTTPRecorder. The timeout bounds each call including
// connection setup and body read.
func New(url string, timeout time.Duration, opts ...Option) *HTTPRecorder {
	r := &HTTPRecorder{
		url:           url,
		client:        &http.Client{Timeout: timeout},
		breaker:       circuit.New("recorder"),
		logger:        slog.Default(),
		probeInterval: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record POSTs the final record as JSON. Timeouts, network errors, and
// non-2xx responses are all failures wrapped with a domain error code.
func (r *HTTPRecorder) Record(ctx context.Context, rec models.FinalRecord) error {
	if r.breaker.IsOpen() && !r.allowProbe() {
		return dErrors.New(dErrors.CodeUnavailable, "recorder circuit open")
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "marshal final record")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "build recorder request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "invoicebot/1.0")

	start := time.Now()
	resp, err := r.client.Do(req)
	if r.metrics != nil {
		r.metrics.ObserveRecorderLatency(time.Since(start).Seconds())
	}
	if err != nil {
		r.recordFailure(ctx)
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "recorder call timed out")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "recorder call failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.recordFailure(ctx)
		return dErrors.Wrap(
			fmt.Errorf("recorder returned %d", resp.StatusCode),
			dErrors.CodeUnavailable, "recorder rejected the record",
		)
	}

	if _, change := r.breaker.RecordSuccess(); change.Closed {
		r.logger.InfoContext(ctx, "recorder circuit closed")
	}
	return nil
}

// allowProbe rations real attempts while the circuit is open so the
// breaker can observe successes and close again.
func (r *HTTPRecorder) allowProbe() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastProbe) < r.probeInterval {
		return false
	}
	r.lastProbe = time.Now()
	return true
}

func (r *HTTPRecorder) recordFailure(ctx context.Context) {
	if _, change := r.breaker.RecordFailure(); change.Opened {
		r.logger.ErrorContext(ctx, "recorder circuit opened")
	}
}

func isTimeout(err error) bool {
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}
