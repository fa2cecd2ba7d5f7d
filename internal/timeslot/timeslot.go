// Package timeslot provides the civil-date and time-window value types shared
// by the conflict detector, the alternative finder and the commitment model.
// Windows are half-open intervals of minutes since midnight, so back-to-back
// bookings such as [10:00,12:00) and [12:00,14:00) never collide.
package timeslot

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date identifies a calendar day independent of time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a date in YYYY-MM-DD form.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return Date{}, fmt.Errorf("timeslot: invalid date %q", value)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// DateOf extracts the calendar day from an instant.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Weekday returns the day of week for the date.
func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// Time returns midnight UTC of the date, used for ordering and storage.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Before reports whether d falls before other.
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

// Covers reports whether d lies within [from, until] inclusive.
func (d Date) Covers(from, until Date) bool {
	t := d.Time()
	return !t.Before(from.Time()) && !t.After(until.Time())
}

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Window is a half-open [Start, End) interval expressed in minutes since
// midnight.
type Window struct {
	Start int
	End   int
}

// ParseWindow parses HH:MM bounds into a window.
func ParseWindow(start, end string) (Window, error) {
	s, err := parseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := parseClock(end)
	if err != nil {
		return Window{}, err
	}
	w := Window{Start: s, End: e}
	if !w.Valid() {
		return Window{}, fmt.Errorf("timeslot: window %s-%s is empty or inverted", start, end)
	}
	return w, nil
}

func parseClock(value string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("timeslot: invalid clock value %q", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("timeslot: invalid clock value %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("timeslot: invalid clock value %q", value)
	}
	return hour*60 + minute, nil
}

// Valid reports whether the window is non-empty and within a single day.
func (w Window) Valid() bool {
	return w.Start >= 0 && w.End <= 24*60 && w.Start < w.End
}

// IsZero reports whether the window is unset.
func (w Window) IsZero() bool {
	return w.Start == 0 && w.End == 0
}

// Overlaps reports whether two half-open windows share any minute. The test
// is symmetric: w.Overlaps(o) == o.Overlaps(w).
func (w Window) Overlaps(other Window) bool {
	return !(w.End <= other.Start || w.Start >= other.End)
}

// StartHour returns the hour component of the window start.
func (w Window) StartHour() int {
	return w.Start / 60
}

// String formats the window as HH:MM-HH:MM.
func (w Window) String() string {
	return formatClock(w.Start) + "-" + formatClock(w.End)
}

// StartClock formats the start bound as HH:MM.
func (w Window) StartClock() string {
	return formatClock(w.Start)
}

// EndClock formats the end bound as HH:MM.
func (w Window) EndClock() string {
	return formatClock(w.End)
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
