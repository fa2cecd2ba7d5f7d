package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/campus-reservations/internal/arbitration"
	"github.com/example/campus-reservations/internal/timeslot"
)

type upcomingSourceStub struct {
	requests  []arbitration.Request
	err       error
	askedDate timeslot.Date
}

func (s *upcomingSourceStub) ApprovedOn(ctx context.Context, date timeslot.Date) ([]arbitration.Request, error) {
	s.askedDate = date
	if s.err != nil {
		return nil, s.err
	}
	return s.requests, nil
}

func TestReminderScheduler_RunOnce(t *testing.T) {
	t.Parallel()

	now := func() time.Time {
		return time.Date(2025, time.October, 14, 8, 0, 0, 0, time.UTC)
	}

	t.Run("reminds tomorrow's active approvals", func(t *testing.T) {
		t.Parallel()

		booked := testRequest(t)
		booked.Status = arbitration.StatusApproved

		withdrawnAt := time.Date(2025, time.October, 13, 12, 0, 0, 0, time.UTC)
		withdrawn := testRequest(t)
		withdrawn.ID = "req-2"
		withdrawn.Status = arbitration.StatusApproved
		withdrawn.WithdrawnAt = &withdrawnAt

		source := &upcomingSourceStub{requests: []arbitration.Request{booked, withdrawn}}
		gateway := &recordingGateway{}
		dispatcher := newTestDispatcher(t, gateway, &recordingAuditLog{}, []Channel{ChannelChat}, Contact{}, 0)
		scheduler := NewReminderScheduler(source, dispatcher, 0, now, nil)

		reminded, err := scheduler.RunOnce(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reminded != 1 {
			t.Fatalf("reminded = %d, want 1", reminded)
		}
		if got, want := source.askedDate.String(), "2025-10-15"; got != want {
			t.Fatalf("scanned date = %s, want %s", got, want)
		}
		if len(gateway.sent) != 1 {
			t.Fatalf("sends = %d, want 1", len(gateway.sent))
		}
	})

	t.Run("source failure surfaces", func(t *testing.T) {
		t.Parallel()

		source := &upcomingSourceStub{err: errors.New("store down")}
		dispatcher := newTestDispatcher(t, &recordingGateway{}, &recordingAuditLog{}, nil, Contact{}, 0)
		scheduler := NewReminderScheduler(source, dispatcher, 0, now, nil)

		if _, err := scheduler.RunOnce(context.Background()); err == nil {
			t.Fatal("expected error when the source fails")
		}
	})
}

func TestReminderScheduler_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	source := &upcomingSourceStub{}
	dispatcher := newTestDispatcher(t, &recordingGateway{}, &recordingAuditLog{}, nil, Contact{}, 0)
	scheduler := NewReminderScheduler(source, dispatcher, 5*time.Millisecond, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- scheduler.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("run loop did not stop after cancel")
	}
}
