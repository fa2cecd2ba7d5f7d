package timeslot

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	t.Parallel()

	date, err := ParseDate("2025-10-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if date.Year != 2025 || date.Month != time.October || date.Day != 15 {
		t.Fatalf("unexpected date: %+v", date)
	}
	if got := date.Weekday(); got != time.Wednesday {
		t.Fatalf("expected Wednesday, got %v", got)
	}
	if got := date.String(); got != "2025-10-15" {
		t.Fatalf("unexpected string form: %s", got)
	}

	if _, err := ParseDate("15/10/2025"); err == nil {
		t.Fatal("expected error for non ISO date")
	}
}

func TestDateCovers(t *testing.T) {
	t.Parallel()

	from, _ := ParseDate("2025-08-01")
	until, _ := ParseDate("2025-12-15")

	inside, _ := ParseDate("2025-10-15")
	if !inside.Covers(from, until) {
		t.Fatal("date inside validity range should be covered")
	}
	if !from.Covers(from, until) || !until.Covers(from, until) {
		t.Fatal("validity bounds are inclusive")
	}
	outside, _ := ParseDate("2026-01-05")
	if outside.Covers(from, until) {
		t.Fatal("date after validity range should not be covered")
	}
}

func TestParseWindow(t *testing.T) {
	t.Parallel()

	w, err := ParseWindow("10:00", "12:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Start != 600 || w.End != 750 {
		t.Fatalf("unexpected bounds: %+v", w)
	}
	if got := w.String(); got != "10:00-12:30" {
		t.Fatalf("unexpected string form: %s", got)
	}
	if got := w.StartHour(); got != 10 {
		t.Fatalf("unexpected start hour: %d", got)
	}

	invalid := []struct{ start, end string }{
		{"12:00", "10:00"},
		{"10:00", "10:00"},
		{"25:00", "26:00"},
		{"10:60", "11:00"},
		{"ten", "eleven"},
	}
	for _, tc := range invalid {
		if _, err := ParseWindow(tc.start, tc.end); err == nil {
			t.Fatalf("expected error for %s-%s", tc.start, tc.end)
		}
	}
}

func TestWindowOverlaps(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b Window
		want bool
	}{
		{"identical", Window{600, 720}, Window{600, 720}, true},
		{"contained", Window{600, 720}, Window{630, 690}, true},
		{"partial", Window{600, 720}, Window{660, 780}, true},
		{"touching end", Window{600, 720}, Window{720, 780}, false},
		{"touching start", Window{600, 720}, Window{540, 600}, false},
		{"disjoint", Window{600, 720}, Window{780, 840}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Overlaps(tc.b); got != tc.want {
				t.Fatalf("Overlaps(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
			// Half-open overlap is symmetric by construction.
			if got := tc.b.Overlaps(tc.a); got != tc.want {
				t.Fatalf("Overlaps(%v, %v) = %v, want %v", tc.b, tc.a, got, tc.want)
			}
		})
	}
}
