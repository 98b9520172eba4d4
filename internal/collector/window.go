package collector

import (
	"fmt"
	"strings"
	"time"
)

// Window is the closed time range activity is collected for.
type Window struct {
	Since time.Time `json:"since"`
	Until time.Time `json:"until"`
}

// Contains reports whether t lies within the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Since) && !t.After(w.Until)
}

// Location is the time zone results are reported in.
func (w Window) Location() *time.Location {
	return w.Since.Location()
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

const dateLayout = "2006-01-02"

// ParseWindow resolves the user-facing range options against now.
//
// days > 0 selects the last days calendar days ending today and ignores
// since and until. Otherwise since and until accept a timestamp or a bare
// date; a bare since starts at 00:00:00 and a bare until ends at 23:59:59 of
// that day. Missing values default to the start and end of today.
func ParseWindow(since, until string, days int, now time.Time) (Window, error) {
	loc := now.Location()
	today := startOfDay(now)
	if days > 0 {
		return Window{
			Since: today.AddDate(0, 0, -(days - 1)),
			Until: endOfDay(today),
		}, nil
	}
	if days < 0 {
		return Window{}, fmt.Errorf("days must not be negative (got %d)", days)
	}

	w := Window{Since: today, Until: endOfDay(today)}
	if s := strings.TrimSpace(since); s != "" {
		t, dateOnly, err := parseInstant(s, loc)
		if err != nil {
			return Window{}, fmt.Errorf("parse since: %w", err)
		}
		if dateOnly {
			t = startOfDay(t)
		}
		w.Since = t
	}
	if u := strings.TrimSpace(until); u != "" {
		t, dateOnly, err := parseInstant(u, loc)
		if err != nil {
			return Window{}, fmt.Errorf("parse until: %w", err)
		}
		if dateOnly {
			t = endOfDay(t)
		}
		w.Until = t
	}
	if w.Since.After(w.Until) {
		return Window{}, fmt.Errorf("since %s is after until %s",
			w.Since.Format(time.RFC3339), w.Until.Format(time.RFC3339))
	}
	return w, nil
}

func parseInstant(value string, loc *time.Location) (time.Time, bool, error) {
	if t, err := time.ParseInLocation(dateLayout, value, loc); err == nil {
		return t, true, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, false, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unrecognised date %q (want YYYY-MM-DD or RFC3339)", value)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}
