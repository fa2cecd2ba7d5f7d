package testfixtures

import (
	"context"
	"testing"
	"time"

	"github.com/example/campus-reservations/internal/persistence"
)

func TestFixturesAreDistinct(t *testing.T) {
	first := NewRoomFixture()
	second := NewRoomFixture()
	if first.Code == second.Code {
		t.Fatalf("room fixtures should not share codes: %q", first.Code)
	}

	reqA := NewRequestFixture()
	reqB := NewRequestFixture()
	if reqA.ID == reqB.ID {
		t.Fatalf("request fixtures should not share ids: %q", reqA.ID)
	}
	if reqA.Status != "pending" {
		t.Fatalf("default request status = %q, want pending", reqA.Status)
	}
}

func TestFixtureOptions(t *testing.T) {
	room := NewRoomFixture(WithRoomCode("301-A"), WithRoomFaculty("Medicina"), WithRoomStatus(persistence.RoomStatusInactive))
	if room.Code != "301-A" || room.Faculty != "Medicina" || room.Status != persistence.RoomStatusInactive {
		t.Fatalf("room options not applied: %+v", room)
	}

	commitment := NewCommitmentFixture(WithCommitmentWindow(time.Friday, 14*60, 16*60))
	if commitment.Weekday != time.Friday || commitment.StartMinute != 14*60 {
		t.Fatalf("commitment options not applied: %+v", commitment)
	}

	request := NewRequestFixture(WithRequestRoom("205-B"), WithRequestWindow(16*60, 18*60), WithRequestStatus("approved"))
	if request.RoomCode != "205-B" || request.EndMinute != 18*60 || request.Status != "approved" {
		t.Fatalf("request options not applied: %+v", request)
	}
}

func TestSQLiteHarnessRoundTrip(t *testing.T) {
	harness := NewSQLiteHarness(t)
	ctx := context.Background()

	room := NewRoomFixture()
	if err := harness.Rooms.CreateRoom(ctx, room); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	commitment := NewCommitmentFixture(WithCommitmentRoom(room.Code))
	if err := harness.Commitments.CreateCommitment(ctx, commitment); err != nil {
		t.Fatalf("CreateCommitment: %v", err)
	}

	request := NewRequestFixture(WithRequestRoom(room.Code))
	if err := harness.Requests.CreateRequest(ctx, request); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	stored, err := harness.Requests.GetRequest(ctx, request.ID)
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}
	if stored.RoomCode != room.Code || stored.Status != "pending" {
		t.Fatalf("unexpected stored request: %+v", stored)
	}

	attempt := NewAttemptFixture()
	if err := harness.Audit.AppendAttempt(ctx, attempt); err != nil {
		t.Fatalf("AppendAttempt: %v", err)
	}
	recent, err := harness.Audit.ListRecent(ctx, 5)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(recent) != 1 || recent[0].ID != attempt.ID {
		t.Fatalf("unexpected recent attempts: %+v", recent)
	}
}
