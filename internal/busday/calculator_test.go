package busday

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureSource serves predetermined holiday calendars and counts
// fetches per year.
type fixtureSource struct {
	mu    sync.Mutex
	years map[int][]string
	calls map[int]int
	err   error
}

func newFixtureSource(years map[int][]string) *fixtureSource {
	return &fixtureSource{years: years, calls: make(map[int]int)}
}

func (f *fixtureSource) Holidays(_ context.Context, year int) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[year]++
	if f.err != nil {
		return nil, f.err
	}
	dates := make(map[string]struct{})
	for _, d := range f.years[year] {
		dates[d] = struct{}{}
	}
	return dates, nil
}

func (f *fixtureSource) callCount(year int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[year]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(ISO, s)
	require.NoError(t, err)
	return d
}

func TestIsBusinessDay(t *testing.T) {
	src := newFixtureSource(map[int][]string{
		2025: {"2025-01-01", "2025-07-21"},
	})
	calc := New(src, WithLogger(testLogger()))
	ctx := context.Background()

	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"holiday", "2025-01-01", false},
		{"saturday", "2025-01-04", false},
		{"sunday", "2025-01-05", false},
		{"regular monday", "2025-01-06", true},
		{"monday holiday", "2025-07-21", false},
		{"regular friday", "2025-07-18", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calc.IsBusinessDay(ctx, date(t, tt.in)))
		})
	}
}

func TestIsBusinessDay_CachesPerYear(t *testing.T) {
	src := newFixtureSource(map[int][]string{2025: {"2025-01-01"}})
	calc := New(src, WithLogger(testLogger()))
	ctx := context.Background()

	// Holiday and non-holiday determinations for the same year share
	// one fetch.
	calc.IsBusinessDay(ctx, date(t, "2025-01-01"))
	calc.IsBusinessDay(ctx, date(t, "2025-03-03"))
	calc.IsBusinessDay(ctx, date(t, "2025-11-11"))
	assert.Equal(t, 1, src.callCount(2025))

	calc.IsBusinessDay(ctx, date(t, "2026-02-02"))
	assert.Equal(t, 1, src.callCount(2026))
}

func TestIsBusinessDay_FailsOpen(t *testing.T) {
	src := newFixtureSource(nil)
	src.err = errors.New("holiday source down")
	calc := New(src, WithLogger(testLogger()))
	ctx := context.Background()

	// A weekday passes even though the calendar could not be fetched.
	assert.True(t, calc.IsBusinessDay(ctx, date(t, "2025-01-06")))
	// Weekends still fail on day-of-week alone.
	assert.False(t, calc.IsBusinessDay(ctx, date(t, "2025-01-04")))

	// The failure is cached, not retried.
	calc.IsBusinessDay(ctx, date(t, "2025-05-07"))
	assert.Equal(t, 1, src.callCount(2025))
}

func TestIsBusinessDay_ConcurrentPopulation(t *testing.T) {
	src := newFixtureSource(map[int][]string{2025: {"2025-01-01"}})
	calc := New(src, WithLogger(testLogger()))
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.False(t, calc.IsBusinessDay(ctx, date(t, "2025-01-01")))
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, src.callCount(2025))
}

func TestNextBusinessDay(t *testing.T) {
	src := newFixtureSource(map[int][]string{2025: {"2025-01-01"}})
	calc := New(src, WithLogger(testLogger()))
	ctx := context.Background()

	// From New Year's Eve: Jan 1 is a holiday, Jan 2 is a Thursday.
	next, err := calc.NextBusinessDay(ctx, date(t, "2024-12-31"))
	require.NoError(t, err)
	assert.Equal(t, "2025-01-02", next.Format(ISO))

	// From a Friday the scan crosses the weekend.
	next, err = calc.NextBusinessDay(ctx, date(t, "2025-01-03"))
	require.NoError(t, err)
	assert.Equal(t, "2025-01-06", next.Format(ISO))
}

func TestPreviousBusinessDay(t *testing.T) {
	src := newFixtureSource(map[int][]string{2025: {"2025-01-01"}})
	calc := New(src, WithLogger(testLogger()))
	ctx := context.Background()

	// From a Monday the scan crosses the weekend backwards.
	prev, err := calc.PreviousBusinessDay(ctx, date(t, "2025-01-06"))
	require.NoError(t, err)
	assert.Equal(t, "2025-01-03", prev.Format(ISO))

	// Jan 2 skips the holiday on Jan 1 and the preceding weekend... Jan 1
	// is Wednesday, so the previous business day is Tuesday Dec 31.
	prev, err = calc.PreviousBusinessDay(ctx, date(t, "2025-01-02"))
	require.NoError(t, err)
	assert.Equal(t, "2024-12-31", prev.Format(ISO))
}

func TestScan_Bounded(t *testing.T) {
	// A pathological calendar that marks every day a holiday.
	src := &everyDayHolidaySource{}
	calc := New(src, WithLogger(testLogger()))
	ctx := context.Background()

	_, err := calc.NextBusinessDay(ctx, date(t, "2025-01-01"))
	assert.ErrorIs(t, err, ErrScanLimit)

	_, err = calc.PreviousBusinessDay(ctx, date(t, "2025-01-01"))
	assert.ErrorIs(t, err, ErrScanLimit)
}

// everyDayHolidaySource marks every date of the requested year (and its
// neighbors) as a holiday.
type everyDayHolidaySource struct{}

func (everyDayHolidaySource) Holidays(_ context.Context, year int) (map[string]struct{}, error) {
	dates := make(map[string]struct{})
	for _, y := range []int{year - 1, year, year + 1} {
		d := time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
		for d.Year() == y {
			dates[d.Format(ISO)] = struct{}{}
			d = d.AddDate(0, 0, 1)
		}
	}
	return dates, nil
}

func TestPaymentDueDate(t *testing.T) {
	t.Run("month end on a business day", func(t *testing.T) {
		src := newFixtureSource(map[int][]string{2025: {"2025-01-01"}})
		calc := New(src, WithLogger(testLogger()))

		// 2025-07-31 is a Thursday.
		due, err := calc.PaymentDueDate(context.Background(), date(t, "2025-06-15"))
		require.NoError(t, err)
		assert.Equal(t, "2025-07-31", due.Format(ISO))
	})

	t.Run("month end on a holiday", func(t *testing.T) {
		src := newFixtureSource(map[int][]string{2025: {"2025-07-31"}})
		calc := New(src, WithLogger(testLogger()))

		due, err := calc.PaymentDueDate(context.Background(), date(t, "2025-06-15"))
		require.NoError(t, err)
		assert.Equal(t, "2025-07-30", due.Format(ISO))
	})

	t.Run("month end on a weekend", func(t *testing.T) {
		src := newFixtureSource(nil)
		calc := New(src, WithLogger(testLogger()))

		// 2025-08-31 is a Sunday; the due date pulls back to Friday the 29th.
		due, err := calc.PaymentDueDate(context.Background(), date(t, "2025-07-10"))
		require.NoError(t, err)
		assert.Equal(t, "2025-08-29", due.Format(ISO))
	})

	t.Run("year rollover", func(t *testing.T) {
		src := newFixtureSource(nil)
		calc := New(src, WithLogger(testLogger()))

		// December rolls into January of the next year; 2026-01-31 is a
		// Saturday, so the due date is Friday the 30th.
		due, err := calc.PaymentDueDate(context.Background(), date(t, "2025-12-10"))
		require.NoError(t, err)
		assert.Equal(t, "2026-01-30", due.Format(ISO))
	})
}

func TestDateInfo(t *testing.T) {
	src := newFixtureSource(map[int][]string{2025: {"2025-01-01"}})
	calc := New(src, WithLogger(testLogger()))
	ctx := context.Background()

	info, err := calc.DateInfo(ctx, date(t, "2025-01-06"))
	require.NoError(t, err)
	assert.True(t, info.IsBusinessDay)
	assert.Equal(t, "2025-01-06", info.NextBusinessDay)

	info, err = calc.DateInfo(ctx, date(t, "2025-01-01"))
	require.NoError(t, err)
	assert.False(t, info.IsBusinessDay)
	assert.Equal(t, "2025-01-02", info.NextBusinessDay)
}

func TestPrefetch(t *testing.T) {
	src := newFixtureSource(map[int][]string{2025: nil, 2026: nil})
	calc := New(src, WithLogger(testLogger()))

	calc.Prefetch(context.Background(), 2025, 2026)
	assert.Equal(t, 1, src.callCount(2025))
	assert.Equal(t, 1, src.callCount(2026))

	// Later lookups are served from the warmed cache.
	calc.IsBusinessDay(context.Background(), date(t, "2025-04-01"))
	assert.Equal(t, 1, src.callCount(2025))
}
