package collector

import (
	"strings"
	"testing"
	"time"
)

func TestParseWindow(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	now := time.Date(2024, 3, 15, 14, 30, 0, 0, loc)
	day := func(d, h, m, s int) time.Time { return time.Date(2024, 3, d, h, m, s, 0, loc) }

	cases := []struct {
		name         string
		since, until string
		days         int
		want         Window
	}{
		{"defaults to today", "", "", 0, Window{day(15, 0, 0, 0), day(15, 23, 59, 59)}},
		{"one day is today", "", "", 1, Window{day(15, 0, 0, 0), day(15, 23, 59, 59)}},
		{"last seven days", "", "", 7, Window{day(9, 0, 0, 0), day(15, 23, 59, 59)}},
		{"days overrides since", "2024-01-01", "", 2, Window{day(14, 0, 0, 0), day(15, 23, 59, 59)}},
		{"date-only range expands to full days", "2024-03-10", "2024-03-12", 0, Window{day(10, 0, 0, 0), day(12, 23, 59, 59)}},
		{"since only runs to end of today", "2024-03-10", "", 0, Window{day(10, 0, 0, 0), day(15, 23, 59, 59)}},
		{"timestamps kept as given", "2024-03-15 09:15:00", "2024-03-15T11:00:00", 0, Window{day(15, 9, 15, 0), day(15, 11, 0, 0)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseWindow(tc.since, tc.until, tc.days, now)
			if err != nil {
				t.Fatalf("ParseWindow: %v", err)
			}
			if !got.Since.Equal(tc.want.Since) || !got.Until.Equal(tc.want.Until) {
				t.Errorf("got %v .. %v, want %v .. %v", got.Since, got.Until, tc.want.Since, tc.want.Until)
			}
		})
	}
}

func TestParseWindowRFC3339KeepsOffset(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	w, err := ParseWindow("2024-03-15T08:00:00+02:00", "", 0, now)
	if err != nil {
		t.Fatalf("ParseWindow: %v", err)
	}
	if !w.Since.Equal(time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC)) {
		t.Errorf("Since: got %v", w.Since)
	}
}

func TestParseWindowErrors(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name         string
		since, until string
		days         int
		wantSubstr   string
	}{
		{"garbage since", "yesterday", "", 0, "parse since"},
		{"garbage until", "", "03/15/2024", 0, "parse until"},
		{"reversed range", "2024-03-16", "2024-03-15", 0, "after until"},
		{"negative days", "", "", -3, "days"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseWindow(tc.since, tc.until, tc.days, now)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantSubstr) {
				t.Errorf("error %q does not mention %q", err, tc.wantSubstr)
			}
		})
	}
}

func TestWindowContains(t *testing.T) {
	w := testWindow()
	if !w.Contains(w.Since) || !w.Contains(w.Until) {
		t.Error("window bounds must be inclusive")
	}
	if w.Contains(w.Until.Add(time.Second)) || w.Contains(w.Since.Add(-time.Second)) {
		t.Error("instants outside the window must be excluded")
	}
}
