package httptransport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"invoicebot/internal/busday"
	"invoicebot/internal/invoice/models"
	"invoicebot/internal/invoice/service"
	"invoicebot/internal/platform/config"
	"invoicebot/internal/transport/discord"
	"invoicebot/pkg/testutil"
)

type noHolidaySource struct{}

func (noHolidaySource) Holidays(context.Context, int) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, models.FinalRecord) error { return nil }

func newRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := service.New(busday.New(noHolidaySource{}), nopRecorder{}, service.WithLogger(logger))
	require.NoError(t, err)

	behavior := config.Behavior{RecorderTimeout: 2 * time.Second, SkipCleanup: true}
	h, err := discord.NewHandler(svc, logger, "", behavior)
	require.NoError(t, err)

	return NewRouter(h, logger)
}

func TestRouter_Health(t *testing.T) {
	router := newRouter(t)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/healthz", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
}

func TestRouter_Metrics(t *testing.T) {
	router := newRouter(t)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/metrics", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
}

func TestRouter_Interactions(t *testing.T) {
	router := newRouter(t)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/interactions", map[string]any{"type": 1}))
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertJSONContains(t, rr, "type", float64(1))
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := newRouter(t)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/nope", nil))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}
