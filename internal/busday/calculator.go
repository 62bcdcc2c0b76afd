// Package busday determines business days against a remote holiday
// calendar and derives payment due dates from them.
//
// A date is a business day iff it is neither a Saturday nor a Sunday
// and does not appear in the holiday calendar for its year. Holiday
// lookups fail open: if the calendar for a year cannot be fetched, the
// year is treated as holiday-free. That can misclassify a holiday as a
// working day but never blocks an otherwise valid one; the empty result
// is cached and not retried.
package busday

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ISO is the calendar-date layout used throughout the bot.
const ISO = "2006-01-02"

// scanLimit bounds the day-at-a-time scans. A calendar would have to
// mark more than a year of consecutive days non-business to hit it.
const scanLimit = 366

// ErrScanLimit is returned when no business day is found within scanLimit days.
var ErrScanLimit = fmt.Errorf("no business day within %d days", scanLimit)

// Calculator answers business-day questions. It owns a per-year holiday
// cache populated lazily from the Source, with no eviction: holiday
// calendars for a given year do not change within a process lifetime.
// Safe for concurrent use.
type Calculator struct {
	source  Source
	logger  *slog.Logger
	observe func(result string)

	mu    sync.RWMutex
	years map[int]map[string]struct{}
	group singleflight.Group
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithLogger sets the logger used for fetch-failure warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Calculator) { c.logger = logger }
}

// WithFetchObserver registers a callback invoked once per calendar
// fetch with "ok" or "error", used to feed the metrics counter.
func WithFetchObserver(observe func(result string)) Option {
	return func(c *Calculator) { c.observe = observe }
}

// New creates a Calculator backed by the given holiday source.
func New(source Source, opts ...Option) *Calculator {
	c := &Calculator{
		source: source,
		logger: slog.Default(),
		years:  make(map[int]map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsBusinessDay reports whether date is a business day. Holiday fetch
// failures are absorbed (fail open).
func (c *Calculator) IsBusinessDay(ctx context.Context, date time.Time) bool {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	holidays := c.holidaysFor(ctx, date.Year())
	_, holiday := holidays[date.Format(ISO)]
	return !holiday
}

// NextBusinessDay returns the first business day strictly after date.
func (c *Calculator) NextBusinessDay(ctx context.Context, date time.Time) (time.Time, error) {
	return c.scan(ctx, date, 1)
}

// PreviousBusinessDay returns the first business day strictly before date.
func (c *Calculator) PreviousBusinessDay(ctx context.Context, date time.Time) (time.Time, error) {
	return c.scan(ctx, date, -1)
}

// PaymentDueDate derives the due date for an invoice: the last calendar
// day of the month after invoiceDate (December rolls into January of
// the next year), pulled back to the nearest earlier business day when
// the month-end itself is not one.
func (c *Calculator) PaymentDueDate(ctx context.Context, invoiceDate time.Time) (time.Time, error) {
	y, m, _ := invoiceDate.Date()
	// Day zero of month+2 is the last day of month+1; time.Date
	// normalizes the month overflow, so December rolls into January.
	candidate := time.Date(y, m+2, 0, 0, 0, 0, 0, invoiceDate.Location())

	if c.IsBusinessDay(ctx, candidate) {
		return candidate, nil
	}
	return c.PreviousBusinessDay(ctx, candidate)
}

// Info describes a date's business-day status.
type Info struct {
	Date            string `json:"date"`
	IsBusinessDay   bool   `json:"is_business_day"`
	NextBusinessDay string `json:"next_business_day"`
}

// DateInfo reports whether date is a business day and the next business
// day (the date itself when it already is one).
func (c *Calculator) DateInfo(ctx context.Context, date time.Time) (Info, error) {
	isBusiness := c.IsBusinessDay(ctx, date)
	next := date
	if !isBusiness {
		var err error
		next, err = c.NextBusinessDay(ctx, date)
		if err != nil {
			return Info{}, err
		}
	}
	return Info{
		Date:            date.Format(ISO),
		IsBusinessDay:   isBusiness,
		NextBusinessDay: next.Format(ISO),
	}, nil
}

func (c *Calculator) scan(ctx context.Context, date time.Time, step int) (time.Time, error) {
	d := date
	for i := 0; i < scanLimit; i++ {
		d = d.AddDate(0, 0, step)
		if c.IsBusinessDay(ctx, d) {
			return d, nil
		}
	}
	return time.Time{}, ErrScanLimit
}

// holidaysFor returns the holiday set for a year, fetching it once per
// year per process. Concurrent callers for an unfetched year are
// deduplicated; concurrent population of the same year converges to the
// same result regardless.
func (c *Calculator) holidaysFor(ctx context.Context, year int) map[string]struct{} {
	c.mu.RLock()
	cached, ok := c.years[year]
	c.mu.RUnlock()
	if ok {
		return cached
	}

	v, _, _ := c.group.Do(strconv.Itoa(year), func() (any, error) {
		dates, err := c.source.Holidays(ctx, year)
		if c.observe != nil {
			if err != nil {
				c.observe("error")
			} else {
				c.observe("ok")
			}
		}
		if err != nil {
			// Fail open: cache the empty set so the failure is not retried.
			c.logger.WarnContext(ctx, "holiday fetch failed, treating year as holiday-free",
				"year", year,
				"error", err,
			)
			dates = map[string]struct{}{}
		}
		c.mu.Lock()
		c.years[year] = dates
		c.mu.Unlock()
		return dates, nil
	})
	return v.(map[string]struct{})
}

// Prefetch warms the cache for the given years. Used by the scheduled
// calendar prefetch job; lookups never depend on it.
func (c *Calculator) Prefetch(ctx context.Context, years ...int) {
	for _, year := range years {
		c.holidaysFor(ctx, year)
	}
}
