package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/campus-reservations/internal/arbitration"
	"github.com/example/campus-reservations/internal/logging"
	"github.com/example/campus-reservations/internal/timeslot"
)

// UpcomingSource lists the approved requests booked for a date.
type UpcomingSource interface {
	ApprovedOn(ctx context.Context, date timeslot.Date) ([]arbitration.Request, error)
}

// ReminderScheduler sends the day-before notice for tomorrow's approved
// bookings on a fixed interval.
type ReminderScheduler struct {
	source     UpcomingSource
	dispatcher *Dispatcher
	interval   time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// NewReminderScheduler wires the reminder loop. interval defaults to one
// hour.
func NewReminderScheduler(source UpcomingSource, dispatcher *Dispatcher, interval time.Duration, now func() time.Time, logger *slog.Logger) *ReminderScheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &ReminderScheduler{
		source:     source,
		dispatcher: dispatcher,
		interval:   interval,
		now:        now,
		logger:     logger,
	}
}

// RunOnce scans tomorrow's schedule and dispatches one reminder per still
// active approval. It returns how many requests were reminded; a failing
// dispatch is logged and does not stop the scan.
func (s *ReminderScheduler) RunOnce(ctx context.Context) (int, error) {
	if s == nil || s.source == nil || s.dispatcher == nil {
		return 0, fmt.Errorf("reminder scheduler not configured")
	}

	tomorrow := timeslot.DateOf(s.now().AddDate(0, 0, 1))
	requests, err := s.source.ApprovedOn(ctx, tomorrow)
	if err != nil {
		return 0, fmt.Errorf("listing approvals for %s: %w", tomorrow, err)
	}

	reminded := 0
	for _, request := range requests {
		if !request.ActiveApproval() {
			continue
		}
		if _, err := s.dispatcher.DispatchReminder(ctx, request); err != nil {
			logging.Component(ctx, s.logger, "reminder_scheduler", "request_id", request.ID).
				WarnContext(ctx, "reminder dispatch failed", "error", err)
			continue
		}
		reminded++
	}

	logging.Component(ctx, s.logger, "reminder_scheduler").
		InfoContext(ctx, "reminder scan finished", "date", tomorrow.String(), "reminded", reminded)
	return reminded, nil
}

// Run scans on every tick until the context is canceled.
func (s *ReminderScheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				logging.Component(ctx, s.logger, "reminder_scheduler").
					ErrorContext(ctx, "reminder scan failed", "error", err)
			}
		}
	}
}
