package busday

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Source supplies the public-holiday dates for a given year, keyed by
// ISO date (YYYY-MM-DD).
type Source interface {
	Holidays(ctx context.Context, year int) (map[string]struct{}, error)
}

// HTTPSource fetches holiday calendars from a holidays-jp style API:
// GET {base}/{year}/date.json returns a JSON object whose keys are the
// holiday dates of that year.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSource creates an HTTPSource. The timeout bounds each fetch;
// an exceeded timeout is a fetch failure, not retried.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Holidays fetches the holiday set for one year.
func (s *HTTPSource) Holidays(ctx context.Context, year int) (map[string]struct{}, error) {
	url := fmt.Sprintf("%s/%d/date.json", s.baseURL, year)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build holiday request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch holidays for %d: %w", year, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("holiday source returned %d for year %d", resp.StatusCode, year)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode holiday response for %d: %w", year, err)
	}

	dates := make(map[string]struct{}, len(body))
	for date := range body {
		dates[date] = struct{}{}
	}
	return dates, nil
}
