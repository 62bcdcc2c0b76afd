package recorder

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicebot/internal/invoice/models"
	dErrors "invoicebot/pkg/domainerrors"
)

func finalRecord() models.FinalRecord {
	return models.FinalRecord{
		StageOne: models.StageOne{
			Date:     "2025-07-16",
			Number:   "INV-001",
			Customer: "Acme Corp",
			Subject:  "July consulting",
		},
		StageTwo: models.StageTwo{
			Description: "Consulting services",
			Quantity:    "10",
			UnitPrice:   "50000",
		},
		PaymentDueDate: "2025-08-29",
		RegisteredAt:   "2025-07-16T03:04:05Z",
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecord_Success(t *testing.T) {
	var got models.FinalRecord
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "invoicebot/1.0", r.Header.Get("User-Agent"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rec := New(srv.URL, time.Second, WithLogger(discardLogger()))
	require.NoError(t, rec.Record(context.Background(), finalRecord()))
	assert.Equal(t, finalRecord(), got)
}

func TestRecord_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rec := New(srv.URL, time.Second, WithLogger(discardLogger()))
	err := rec.Record(context.Background(), finalRecord())
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnavailable, dErrors.CodeOf(err))
}

func TestRecord_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	rec := New(srv.URL, 20*time.Millisecond, WithLogger(discardLogger()))
	err := rec.Record(context.Background(), finalRecord())
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeTimeout, dErrors.CodeOf(err))
}

func TestRecord_Unreachable(t *testing.T) {
	rec := New("http://127.0.0.1:1", 100*time.Millisecond, WithLogger(discardLogger()))
	err := rec.Record(context.Background(), finalRecord())
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnavailable, dErrors.CodeOf(err))
}

func TestRecord_CircuitOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	rec := New(srv.URL, time.Second, WithLogger(discardLogger()))
	ctx := context.Background()

	for range 5 {
		assert.Error(t, rec.Record(ctx, finalRecord()))
	}
	assert.True(t, rec.breaker.IsOpen())
	assert.EqualValues(t, 5, hits.Load())

	// With the probe window not yet elapsed, calls fail fast without
	// touching the endpoint.
	rec.probeInterval = time.Hour
	rec.lastProbe = time.Now()

	err := rec.Record(ctx, finalRecord())
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnavailable, dErrors.CodeOf(err))
	assert.Equal(t, "recorder circuit open", dErrors.MessageOf(err))
	assert.EqualValues(t, 5, hits.Load())
}

func TestRecord_CircuitClosesAfterProbeSuccesses(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rec := New(srv.URL, time.Second, WithLogger(discardLogger()))
	// Every call while open counts as a probe.
	rec.probeInterval = 0
	ctx := context.Background()

	for range 5 {
		assert.Error(t, rec.Record(ctx, finalRecord()))
	}
	require.True(t, rec.breaker.IsOpen())

	// The endpoint recovers; three successful probes close the circuit.
	fail.Store(false)
	for range 3 {
		require.NoError(t, rec.Record(ctx, finalRecord()))
	}
	assert.False(t, rec.breaker.IsOpen())
}
