package busday

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSource_Holidays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2025/date.json", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"2025-01-01":"New Year's Day","2025-07-21":"Marine Day"}`))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, time.Second)
	dates, err := src.Holidays(context.Background(), 2025)
	require.NoError(t, err)
	assert.Len(t, dates, 2)
	assert.Contains(t, dates, "2025-01-01")
	assert.Contains(t, dates, "2025-07-21")
}

func TestHTTPSource_HolidaysErrors(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		src := NewHTTPSource(srv.URL, time.Second)
		_, err := src.Holidays(context.Background(), 2025)
		assert.ErrorContains(t, err, "502")
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		src := NewHTTPSource(srv.URL, time.Second)
		_, err := src.Holidays(context.Background(), 2025)
		assert.ErrorContains(t, err, "decode holiday response")
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		src := NewHTTPSource(srv.URL, 20*time.Millisecond)
		_, err := src.Holidays(context.Background(), 2025)
		assert.Error(t, err)
	})

	t.Run("unreachable host", func(t *testing.T) {
		src := NewHTTPSource("http://127.0.0.1:1", 100*time.Millisecond)
		_, err := src.Holidays(context.Background(), 2025)
		assert.Error(t, err)
	})
}
