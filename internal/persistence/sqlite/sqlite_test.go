package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/campus-reservations/internal/persistence"
	"github.com/example/campus-reservations/internal/timeslot"
)

func newTestPool(t *testing.T) *ConnectionPool {
	t.Helper()

	pool, err := NewConnectionPool(filepath.Join(t.TempDir(), "reservations.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	if err := Migrate(context.Background(), pool); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return pool
}

func date(t *testing.T, value string) timeslot.Date {
	t.Helper()
	d, err := timeslot.ParseDate(value)
	if err != nil {
		t.Fatalf("parse date %s: %v", value, err)
	}
	return d
}

func pendingRequest(id string, d timeslot.Date) persistence.BookingRequest {
	return persistence.BookingRequest{
		ID:             id,
		RequesterName:  "Dr. García",
		RequesterEmail: "garcia@universidad.example",
		Role:           "academic",
		RoomCode:       "A101",
		Date:           d,
		StartMinute:    600,
		EndMinute:      720,
		Purpose:        "final exam",
		Priority:       120,
		Status:         "pending",
		Probability:    0.5,
		CreatedAt:      time.Date(2025, time.October, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestMigrate_Rerunnable(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	if err := Migrate(context.Background(), pool); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
}

func TestRoomRepository(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	repo := NewRoomRepository(pool)
	ctx := context.Background()

	rooms := []persistence.Room{
		{Code: "A101", Capacity: 40, Faculty: "Ingeniería", Equipment: []string{"projector", "whiteboard"}},
		{Code: "B201", Capacity: 80, Faculty: "Medicina", Status: persistence.RoomStatusInactive},
	}
	for _, room := range rooms {
		if err := repo.CreateRoom(ctx, room); err != nil {
			t.Fatalf("creating room %s: %v", room.Code, err)
		}
	}

	if err := repo.CreateRoom(ctx, rooms[0]); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("duplicate insert: expected ErrDuplicate, got %v", err)
	}

	got, err := repo.GetRoom(ctx, "A101")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Capacity != 40 || len(got.Equipment) != 2 || got.Status != persistence.RoomStatusActive {
		t.Fatalf("unexpected room: %+v", got)
	}

	active, err := repo.ListActiveRooms(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].Code != "A101" {
		t.Fatalf("active rooms = %+v, want only A101", active)
	}

	got.Status = persistence.RoomStatusInactive
	if err := repo.UpdateRoom(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	active, err = repo.ListActiveRooms(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("active rooms after deactivation = %+v", active)
	}

	if _, err := repo.GetRoom(ctx, "Z999"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("missing room: expected ErrNotFound, got %v", err)
	}
}

func TestCommitmentRepository_ValidityFilter(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	rooms := NewRoomRepository(pool)
	repo := NewCommitmentRepository(pool)
	ctx := context.Background()

	if err := rooms.CreateRoom(ctx, persistence.Room{Code: "A101"}); err != nil {
		t.Fatalf("creating room: %v", err)
	}

	commitments := []persistence.Commitment{
		{
			ID: "c1", RoomCode: "A101", Weekday: time.Wednesday,
			StartMinute: 600, EndMinute: 720,
			ValidFrom: date(t, "2025-08-01"), ValidUntil: date(t, "2025-12-20"),
			Subject: "Calculus", Instructor: "Dr. Soto",
		},
		{
			// Expired before the probed date.
			ID: "c2", RoomCode: "A101", Weekday: time.Wednesday,
			StartMinute: 480, EndMinute: 600,
			ValidFrom: date(t, "2025-03-01"), ValidUntil: date(t, "2025-07-15"),
		},
		{
			// Different weekday.
			ID: "c3", RoomCode: "A101", Weekday: time.Thursday,
			StartMinute: 600, EndMinute: 720,
			ValidFrom: date(t, "2025-08-01"), ValidUntil: date(t, "2025-12-20"),
		},
	}
	for _, c := range commitments {
		if err := repo.CreateCommitment(ctx, c); err != nil {
			t.Fatalf("creating commitment %s: %v", c.ID, err)
		}
	}

	// 2025-10-15 is a Wednesday.
	got, err := repo.ListForRoomWeekday(ctx, "A101", time.Wednesday, date(t, "2025-10-15"))
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(got) != 1 || got[0].ID != "c1" {
		t.Fatalf("commitments = %+v, want only c1", got)
	}
	if got[0].Subject != "Calculus" || got[0].ValidUntil.String() != "2025-12-20" {
		t.Fatalf("commitment fields lost: %+v", got[0])
	}

	if err := repo.DeleteCommitment(ctx, "c1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteCommitment(ctx, "c1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestRequestRepository_DecisionWrittenOnce(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	repo := NewRequestRepository(pool)
	ctx := context.Background()
	d := date(t, "2025-10-15")

	if err := repo.CreateRequest(ctx, pendingRequest("req-1", d)); err != nil {
		t.Fatalf("create: %v", err)
	}

	update := persistence.DecisionUpdate{
		Status:      "approved",
		ReasonCode:  "no_conflicts",
		Reason:      "no conflicts",
		Probability: 0.8,
		ProcessedAt: time.Date(2025, time.October, 1, 9, 0, 1, 0, time.UTC),
	}
	decided, err := repo.RecordDecision(ctx, "req-1", update)
	if err != nil {
		t.Fatalf("first decision: %v", err)
	}
	if decided.Status != "approved" || decided.ProcessedAt == nil {
		t.Fatalf("unexpected decided request: %+v", decided)
	}

	update.Status = "rejected"
	if _, err := repo.RecordDecision(ctx, "req-1", update); !errors.Is(err, persistence.ErrAlreadyDecided) {
		t.Fatalf("second decision: expected ErrAlreadyDecided, got %v", err)
	}

	// The first decision is untouched.
	got, err := repo.GetRequest(ctx, "req-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != "approved" || got.Probability != 0.8 {
		t.Fatalf("decision overwritten: %+v", got)
	}

	if _, err := repo.RecordDecision(ctx, "missing", update); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("missing request: expected ErrNotFound, got %v", err)
	}
}

func TestRequestRepository_Withdrawal(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	repo := NewRequestRepository(pool)
	ctx := context.Background()
	d := date(t, "2025-10-15")
	at := time.Date(2025, time.October, 2, 10, 0, 0, 0, time.UTC)

	t.Run("pending request becomes withdrawn", func(t *testing.T) {
		if err := repo.CreateRequest(ctx, pendingRequest("req-pending", d)); err != nil {
			t.Fatalf("create: %v", err)
		}
		got, err := repo.MarkWithdrawn(ctx, "req-pending", at)
		if err != nil {
			t.Fatalf("withdraw: %v", err)
		}
		if got.Status != "withdrawn" || got.WithdrawnAt == nil {
			t.Fatalf("unexpected request: %+v", got)
		}
	})

	t.Run("approved request keeps status and frees slot", func(t *testing.T) {
		if err := repo.CreateRequest(ctx, pendingRequest("req-approved", d)); err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := repo.RecordDecision(ctx, "req-approved", persistence.DecisionUpdate{
			Status: "approved", ReasonCode: "no_conflicts", Reason: "no conflicts",
			Probability: 0.5, ProcessedAt: at,
		}); err != nil {
			t.Fatalf("decide: %v", err)
		}

		got, err := repo.MarkWithdrawn(ctx, "req-approved", at)
		if err != nil {
			t.Fatalf("withdraw: %v", err)
		}
		if got.Status != "approved" || got.WithdrawnAt == nil {
			t.Fatalf("unexpected request: %+v", got)
		}

		holding, err := repo.ListApprovedForRoomDate(ctx, "A101", d)
		if err != nil {
			t.Fatalf("list approved: %v", err)
		}
		for _, request := range holding {
			if request.ID == "req-approved" {
				t.Fatal("withdrawn approval still listed as holding the slot")
			}
		}
	})

	t.Run("second withdrawal reports not found", func(t *testing.T) {
		if _, err := repo.MarkWithdrawn(ctx, "req-pending", at); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for already withdrawn, got %v", err)
		}
	})
}

func TestRequestRepository_Listings(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	repo := NewRequestRepository(pool)
	ctx := context.Background()
	d := date(t, "2025-10-15")
	at := time.Date(2025, time.October, 2, 10, 0, 0, 0, time.UTC)

	approve := func(id string, request persistence.BookingRequest) {
		t.Helper()
		if err := repo.CreateRequest(ctx, request); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
		if _, err := repo.RecordDecision(ctx, id, persistence.DecisionUpdate{
			Status: "approved", ReasonCode: "no_conflicts", Reason: "no conflicts",
			Probability: 0.5, ProcessedAt: at,
		}); err != nil {
			t.Fatalf("decide %s: %v", id, err)
		}
	}

	first := pendingRequest("req-1", d)
	approve("req-1", first)

	second := pendingRequest("req-2", d)
	second.RoomCode = "B201"
	second.StartMinute = 800
	second.EndMinute = 900
	approve("req-2", second)

	third := pendingRequest("req-3", date(t, "2025-10-16"))
	approve("req-3", third)

	pending := pendingRequest("req-4", d)
	if err := repo.CreateRequest(ctx, pending); err != nil {
		t.Fatalf("create req-4: %v", err)
	}

	byRoom, err := repo.ListApprovedForRoomDate(ctx, "A101", d)
	if err != nil {
		t.Fatalf("list by room: %v", err)
	}
	if len(byRoom) != 1 || byRoom[0].ID != "req-1" {
		t.Fatalf("by room = %+v, want only req-1", byRoom)
	}

	byDate, err := repo.ListApprovedOn(ctx, d)
	if err != nil {
		t.Fatalf("list by date: %v", err)
	}
	if len(byDate) != 2 {
		t.Fatalf("by date = %d requests, want 2", len(byDate))
	}

	decided, err := repo.ListDecided(ctx)
	if err != nil {
		t.Fatalf("list decided: %v", err)
	}
	if len(decided) != 3 {
		t.Fatalf("decided = %d requests, want 3 (pending excluded)", len(decided))
	}
}

func TestAuditRepository(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	repo := NewAuditRepository(pool)
	ctx := context.Background()
	base := time.Date(2025, time.October, 1, 9, 0, 0, 0, time.UTC)

	records := []persistence.NotificationRecord{
		{ID: "n1", RequestID: "req-1", Recipient: "garcia@universidad.example", Channel: "email", Template: "approved_email", Message: "hola", Status: "sent", SentAt: base},
		{ID: "n2", RequestID: "req-1", Recipient: "912345678", Channel: "sms", Template: "approved_sms", Message: "hola", Status: "failed", Detail: "provider unreachable", SentAt: base.Add(time.Minute)},
		{ID: "n3", RequestID: "req-2", Recipient: "912345678", Channel: "sms", Template: "rejected_sms", Message: "hola", Status: "failed", Detail: "provider unreachable", SentAt: base.Add(2 * time.Minute)},
	}
	for _, record := range records {
		if err := repo.AppendAttempt(ctx, record); err != nil {
			t.Fatalf("append %s: %v", record.ID, err)
		}
	}

	ranged, err := repo.ListRange(ctx, base, base.Add(90*time.Second))
	if err != nil {
		t.Fatalf("list range: %v", err)
	}
	if len(ranged) != 2 {
		t.Fatalf("range = %d records, want 2", len(ranged))
	}

	counts, err := repo.CountByChannelStatus(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	want := map[string]int{"email|sent": 1, "sms|failed": 2}
	for _, count := range counts {
		key := count.Channel + "|" + count.Status
		if want[key] != count.Count {
			t.Fatalf("count %s = %d, want %d", key, count.Count, want[key])
		}
		delete(want, key)
	}
	if len(want) != 0 {
		t.Fatalf("missing aggregate rows: %v", want)
	}

	recent, err := repo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "n3" {
		t.Fatalf("recent = %+v, want newest first capped at 2", recent)
	}
}
