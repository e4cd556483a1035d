// Package daterange resolves hospital calendar days.
//
// The hospital books and reports in India Standard Time regardless of the host
// timezone, so a calendar day is always [00:00:00+05:30, next day 00:00:00+05:30).
// A fixed zone is used instead of loading Asia/Kolkata from tzdata; IST has no
// daylight saving so the two are equivalent.
package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Location is the fixed UTC+05:30 offset every calendar day is resolved in.
var Location = time.FixedZone("IST", 5*60*60+30*60)

// DateLayout is the layout of a calendar day in flags, query strings and storage.
const DateLayout = "2006-01-02"

// MaxSpanDays is the longest span ParseSpan accepts.
const MaxSpanDays = 366

var (
	// ErrInvertedRange is returned when the end day precedes the start day.
	ErrInvertedRange = errors.New("range end is before range start")

	// ErrInvalidDay is returned when a day selector cannot be parsed.
	ErrInvalidDay = errors.New("invalid day: use today, yesterday or YYYY-MM-DD")

	// ErrSpanTooLong is returned when a span covers more than MaxSpanDays days.
	ErrSpanTooLong = errors.New("range is too long")
)

// Range is an inclusive span of calendar days.
type Range struct {
	Start time.Time // first day, midnight IST
	End   time.Time // last day, midnight IST
}

// StartOfDay returns midnight IST of the calendar day containing t.
func StartOfDay(t time.Time) time.Time {
	local := t.In(Location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Location)
}

// Day returns the single-day range containing t.
func Day(t time.Time) Range {
	start := StartOfDay(t)
	return Range{Start: start, End: start}
}

// Today returns the range for the IST calendar day of now.
func Today(now time.Time) Range {
	return Day(now)
}

// Yesterday returns the range for the IST calendar day before now.
func Yesterday(now time.Time) Range {
	return Day(StartOfDay(now).AddDate(0, 0, -1))
}

// New builds a range from two calendar days.
func New(start, end time.Time) (Range, error) {
	r := Range{Start: StartOfDay(start), End: StartOfDay(end)}
	if r.End.Before(r.Start) {
		return Range{}, fmt.Errorf("%w: %s > %s", ErrInvertedRange, r.Start.Format(DateLayout), r.End.Format(DateLayout))
	}
	return r, nil
}

// ParseDay resolves "today", "yesterday" or a YYYY-MM-DD date relative to now.
func ParseDay(selector string, now time.Time) (Range, error) {
	switch strings.ToLower(strings.TrimSpace(selector)) {
	case "", "today":
		return Today(now), nil
	case "yesterday":
		return Yesterday(now), nil
	}

	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(selector), Location)
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidDay, selector)
	}
	return Day(day), nil
}

// ParseSpan resolves an explicit start/end pair of YYYY-MM-DD dates covering
// at most MaxSpanDays days.
func ParseSpan(start, end string) (Range, error) {
	s, err := time.ParseInLocation(DateLayout, strings.TrimSpace(start), Location)
	if err != nil {
		return Range{}, fmt.Errorf("%w: start %q", ErrInvalidDay, start)
	}
	e, err := time.ParseInLocation(DateLayout, strings.TrimSpace(end), Location)
	if err != nil {
		return Range{}, fmt.Errorf("%w: end %q", ErrInvalidDay, end)
	}
	r, err := New(s, e)
	if err != nil {
		return Range{}, err
	}
	if n := r.NumDays(); n > MaxSpanDays {
		return Range{}, fmt.Errorf("%w: %d days, at most %d", ErrSpanTooLong, n, MaxSpanDays)
	}
	return r, nil
}

// Bounds returns the half-open instant window [from, until) covered by the range.
func (r Range) Bounds() (from, until time.Time) {
	return r.Start, r.End.AddDate(0, 0, 1)
}

// Contains reports whether instant t falls on one of the range's calendar days.
// The zero time is never contained.
func (r Range) Contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	from, until := r.Bounds()
	return !t.Before(from) && t.Before(until)
}

// NumDays returns the number of calendar days in the range.
func (r Range) NumDays() int {
	return int(r.End.Sub(r.Start)/(24*time.Hour)) + 1
}

// SingleDay reports whether the range covers exactly one calendar day.
func (r Range) SingleDay() bool {
	return r.Start.Equal(r.End)
}

// Days enumerates the calendar days of the range in order.
func (r Range) Days() []time.Time {
	var days []time.Time
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// String renders the range as a day or a day span.
func (r Range) String() string {
	if r.SingleDay() {
		return r.Start.Format(DateLayout)
	}
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

// ParseStoredDate reads a date column written by the booking forms: a plain
// YYYY-MM-DD day (interpreted in IST) or an RFC 3339 timestamp.
func ParseStoredDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := time.ParseInLocation(DateLayout, raw, Location); err == nil {
		return t, nil
	}
	layouts := []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05Z07:00", "2006-01-02T15:04:05", "2006-01-02 15:04:05"}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, raw, Location); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", raw)
}
