// Package testfixtures provides deterministic builders for persistence
// records plus controllable clocks and identifier generators.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/campus-reservations/internal/persistence"
	"github.com/example/campus-reservations/internal/timeslot"
)

var (
	roomCounter       uint64
	commitmentCounter uint64
	requestCounter    uint64
	attemptCounter    uint64
)

var referenceTime = time.Date(2025, time.August, 4, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
// It falls on a Monday at the start of a semester.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate returns the calendar date of ReferenceTime.
func ReferenceDate() timeslot.Date {
	return timeslot.DateOf(referenceTime)
}

// ----------------------------- Room fixtures -----------------------------

// RoomOption configures a generated room fixture.
type RoomOption func(*persistence.Room)

// NewRoomFixture returns a deterministic active room with optional overrides.
func NewRoomFixture(opts ...RoomOption) persistence.Room {
	idx := atomic.AddUint64(&roomCounter, 1)
	room := persistence.Room{
		Code:      fmt.Sprintf("%03d-T", idx),
		Capacity:  30 + int(idx%4)*5,
		Faculty:   "Ingeniería",
		Equipment: []string{"Proyector"},
		Status:    persistence.RoomStatusActive,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&room)
	}
	return room
}

// WithRoomCode overrides the generated room code.
func WithRoomCode(code string) RoomOption {
	return func(room *persistence.Room) { room.Code = code }
}

// WithRoomFaculty overrides the owning faculty.
func WithRoomFaculty(faculty string) RoomOption {
	return func(room *persistence.Room) { room.Faculty = faculty }
}

// WithRoomStatus overrides the room status.
func WithRoomStatus(status string) RoomOption {
	return func(room *persistence.Room) { room.Status = status }
}

// -------------------------- Commitment fixtures --------------------------

// CommitmentOption configures a generated commitment fixture.
type CommitmentOption func(*persistence.Commitment)

// NewCommitmentFixture returns a weekly commitment valid for one semester,
// Monday 08:00-10:00 by default.
func NewCommitmentFixture(opts ...CommitmentOption) persistence.Commitment {
	idx := atomic.AddUint64(&commitmentCounter, 1)
	commitment := persistence.Commitment{
		ID:          fmt.Sprintf("com-%03d", idx),
		RoomCode:    "301-A",
		Weekday:     time.Monday,
		StartMinute: 8 * 60,
		EndMinute:   10 * 60,
		ValidFrom:   ReferenceDate(),
		ValidUntil:  ReferenceDate().AddDays(140),
		Subject:     "Programación",
		Instructor:  "Prof. García",
	}
	for _, opt := range opts {
		opt(&commitment)
	}
	return commitment
}

// WithCommitmentRoom overrides the committed room.
func WithCommitmentRoom(code string) CommitmentOption {
	return func(commitment *persistence.Commitment) { commitment.RoomCode = code }
}

// WithCommitmentWindow overrides the weekday and minute window.
func WithCommitmentWindow(weekday time.Weekday, startMinute, endMinute int) CommitmentOption {
	return func(commitment *persistence.Commitment) {
		commitment.Weekday = weekday
		commitment.StartMinute = startMinute
		commitment.EndMinute = endMinute
	}
}

// WithCommitmentValidity overrides the validity range.
func WithCommitmentValidity(from, until timeslot.Date) CommitmentOption {
	return func(commitment *persistence.Commitment) {
		commitment.ValidFrom = from
		commitment.ValidUntil = until
	}
}

// ---------------------------- Request fixtures ----------------------------

// RequestOption configures a generated booking request fixture.
type RequestOption func(*persistence.BookingRequest)

// NewRequestFixture returns a pending academic booking request for the day
// after the reference date.
func NewRequestFixture(opts ...RequestOption) persistence.BookingRequest {
	idx := atomic.AddUint64(&requestCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	request := persistence.BookingRequest{
		ID:             fmt.Sprintf("req-%03d", idx),
		RequesterName:  fmt.Sprintf("Prof. Solicitante %03d", idx),
		RequesterEmail: fmt.Sprintf("solicitante%03d@universidad.example", idx),
		Role:           "academic",
		RoomCode:       "301-A",
		Date:           ReferenceDate().AddDays(1),
		StartMinute:    10 * 60,
		EndMinute:      12 * 60,
		Purpose:        "clase de recuperación",
		Priority:       100,
		Status:         "pending",
		Probability:    0.5,
		CreatedAt:      created,
	}
	for _, opt := range opts {
		opt(&request)
	}
	return request
}

// WithRequestRoom overrides the requested room.
func WithRequestRoom(code string) RequestOption {
	return func(request *persistence.BookingRequest) { request.RoomCode = code }
}

// WithRequestDate overrides the requested date.
func WithRequestDate(date timeslot.Date) RequestOption {
	return func(request *persistence.BookingRequest) { request.Date = date }
}

// WithRequestWindow overrides the requested minute window.
func WithRequestWindow(startMinute, endMinute int) RequestOption {
	return func(request *persistence.BookingRequest) {
		request.StartMinute = startMinute
		request.EndMinute = endMinute
	}
}

// WithRequestStatus overrides the stored status.
func WithRequestStatus(status string) RequestOption {
	return func(request *persistence.BookingRequest) { request.Status = status }
}

// ---------------------------- Attempt fixtures ----------------------------

// AttemptOption configures a generated notification record fixture.
type AttemptOption func(*persistence.NotificationRecord)

// NewAttemptFixture returns a sent email notification record.
func NewAttemptFixture(opts ...AttemptOption) persistence.NotificationRecord {
	idx := atomic.AddUint64(&attemptCounter, 1)
	record := persistence.NotificationRecord{
		ID:        fmt.Sprintf("att-%03d", idx),
		RequestID: fmt.Sprintf("req-%03d", idx),
		Recipient: fmt.Sprintf("solicitante%03d@universidad.example", idx),
		Channel:   "email",
		Template:  "approved_email",
		Message:   "SOLICITUD APROBADA",
		Status:    "sent",
		SentAt:    referenceTime.Add(time.Duration(idx) * time.Second),
	}
	for _, opt := range opts {
		opt(&record)
	}
	return record
}

// WithAttemptChannel overrides the delivery channel.
func WithAttemptChannel(channel string) AttemptOption {
	return func(record *persistence.NotificationRecord) { record.Channel = channel }
}

// WithAttemptStatus overrides the delivery status.
func WithAttemptStatus(status string) AttemptOption {
	return func(record *persistence.NotificationRecord) { record.Status = status }
}
