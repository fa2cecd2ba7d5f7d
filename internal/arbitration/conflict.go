package arbitration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/campus-reservations/internal/logging"
	"github.com/example/campus-reservations/internal/timeslot"
	"github.com/example/campus-reservations/internal/tracing"
)

// ScheduleStore exposes the two conflict sources consulted by the detector.
// Implementations must return only commitments whose validity range covers
// the date, and only requests that still hold their approval.
type ScheduleStore interface {
	CommitmentsFor(ctx context.Context, roomCode string, weekday time.Weekday, date timeslot.Date) ([]Commitment, error)
	ApprovedRequestsFor(ctx context.Context, roomCode string, date timeslot.Date) ([]BookedRequest, error)
}

// ConflictDetector checks a (room, date, window) probe against the recurring
// semester schedule and previously approved ad-hoc requests.
type ConflictDetector struct {
	store  ScheduleStore
	logger *slog.Logger
}

// NewConflictDetector wires the detector to its schedule store.
func NewConflictDetector(store ScheduleStore, logger *slog.Logger) *ConflictDetector {
	return &ConflictDetector{store: store, logger: logger}
}

// Detect reports whether the probe window collides with either source. A
// store failure is returned as ErrScheduleUnavailable so callers never treat
// unreachable data as a free slot. The report also carries warnings for
// already-overlapping approved bookings found while scanning, evidence of a
// prior race that is surfaced rather than silently repaired.
func (d *ConflictDetector) Detect(ctx context.Context, roomCode string, date timeslot.Date, window timeslot.Window) (ConflictReport, error) {
	if d == nil || d.store == nil {
		return ConflictReport{}, fmt.Errorf("conflict detector not configured: %w", ErrScheduleUnavailable)
	}

	ctx, span := tracing.StartSpan(ctx, "arbitration.detect", "room", roomCode, "date", date.String())
	var spanErr error
	defer func() { tracing.EndSpan(span, spanErr) }()

	weekday := date.Weekday()

	commitments, err := d.store.CommitmentsFor(ctx, roomCode, weekday, date)
	if err != nil {
		spanErr = err
		return ConflictReport{}, fmt.Errorf("querying commitments for %s on %s: %v: %w", roomCode, date, err, ErrScheduleUnavailable)
	}

	booked, err := d.store.ApprovedRequestsFor(ctx, roomCode, date)
	if err != nil {
		spanErr = err
		return ConflictReport{}, fmt.Errorf("querying approved requests for %s on %s: %v: %w", roomCode, date, err, ErrScheduleUnavailable)
	}

	report := ConflictReport{}

	for _, commitment := range commitments {
		if window.Overlaps(commitment.Window) {
			report.Records = append(report.Records, ConflictRecord{
				Source:      SourceCommitment,
				ID:          commitment.ID,
				RoomCode:    commitment.RoomCode,
				Window:      commitment.Window,
				Description: describeCommitment(commitment),
			})
		}
	}

	for _, request := range booked {
		if window.Overlaps(request.Window) {
			report.Records = append(report.Records, ConflictRecord{
				Source:      SourceRequest,
				ID:          request.ID,
				RoomCode:    request.RoomCode,
				Window:      request.Window,
				Description: fmt.Sprintf("approved request by %s", request.Requester),
			})
		}
	}

	report.HasConflict = len(report.Records) > 0
	report.Inconsistencies = findInconsistencies(roomCode, date, commitments, booked)

	if len(report.Inconsistencies) > 0 {
		logging.Component(ctx, d.logger, "conflict_detector").WarnContext(ctx, "overlapping approved bookings detected",
			"room", roomCode,
			"date", date.String(),
			"pairs", len(report.Inconsistencies),
		)
	}

	return report, nil
}

// findInconsistencies cross-checks the already-booked slots against each
// other. Two overlapping entries mean an earlier decision raced past the
// critical section.
func findInconsistencies(roomCode string, date timeslot.Date, commitments []Commitment, booked []BookedRequest) []InconsistencyWarning {
	type slot struct {
		id     string
		window timeslot.Window
	}

	slots := make([]slot, 0, len(commitments)+len(booked))
	for _, c := range commitments {
		slots = append(slots, slot{id: c.ID, window: c.Window})
	}
	for _, b := range booked {
		slots = append(slots, slot{id: b.ID, window: b.Window})
	}

	var warnings []InconsistencyWarning
	for i := 0; i < len(slots); i++ {
		for j := i + 1; j < len(slots); j++ {
			if slots[i].window.Overlaps(slots[j].window) {
				warnings = append(warnings, InconsistencyWarning{
					RoomCode: roomCode,
					Date:     date,
					FirstID:  slots[i].id,
					SecondID: slots[j].id,
				})
			}
		}
	}
	return warnings
}

func describeCommitment(c Commitment) string {
	switch {
	case c.Subject != "" && c.Instructor != "":
		return fmt.Sprintf("recurring commitment %s (%s)", c.Subject, c.Instructor)
	case c.Subject != "":
		return fmt.Sprintf("recurring commitment %s", c.Subject)
	default:
		return "recurring commitment"
	}
}
