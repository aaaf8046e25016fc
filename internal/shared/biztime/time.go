// Package biztime centralizes clock and calendar-date handling.
// Storage and transport use UTC; the business timezone is only used to
// render timestamps operators read in the shared document.
package biztime

import (
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultTimezone is used when none is configured.
	DefaultTimezone = "UTC"

	// DateLayout is the canonical calendar-date format.
	DateLayout = "2006-01-02"
)

var (
	bizLocation *time.Location
	locMu       sync.RWMutex
	now         = time.Now
)

// Init sets the business timezone. An empty tz means UTC.
func Init(tz string) error {
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("invalid business timezone %q: %w", tz, err)
	}
	locMu.Lock()
	bizLocation = loc
	locMu.Unlock()
	return nil
}

// Location returns the business timezone, defaulting to UTC.
func Location() *time.Location {
	locMu.RLock()
	defer locMu.RUnlock()
	if bizLocation == nil {
		return time.UTC
	}
	return bizLocation
}

// NowUTC returns the current time in UTC.
func NowUTC() time.Time {
	return now().UTC()
}

// FormatTimestamp renders t as ISO-8601 in the business timezone.
func FormatTimestamp(t time.Time) string {
	return t.In(Location()).Format(time.RFC3339)
}

// TruncateToDay drops the clock part of t, keeping its UTC calendar day.
func TruncateToDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDate renders the UTC calendar day of t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return TruncateToDay(t).Format(DateLayout)
}
