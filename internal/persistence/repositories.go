package persistence

import (
	"context"
	"time"

	"github.com/example/campus-reservations/internal/timeslot"
)

// RoomRepository exposes operations on the room catalog.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, code string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	ListActiveRooms(ctx context.Context) ([]Room, error)
}

// CommitmentRepository stores the recurring semester schedule.
type CommitmentRepository interface {
	CreateCommitment(ctx context.Context, commitment Commitment) error
	// ListForRoomWeekday returns the commitments for the room and weekday
	// whose validity range covers the date.
	ListForRoomWeekday(ctx context.Context, roomCode string, weekday time.Weekday, date timeslot.Date) ([]Commitment, error)
	DeleteCommitment(ctx context.Context, id string) error
}

// RequestRepository stores booking requests and their single decision.
type RequestRepository interface {
	CreateRequest(ctx context.Context, request BookingRequest) error
	GetRequest(ctx context.Context, id string) (BookingRequest, error)
	// RecordDecision flips a pending request to its terminal state. It
	// returns ErrAlreadyDecided when the request is no longer pending.
	RecordDecision(ctx context.Context, id string, update DecisionUpdate) (BookingRequest, error)
	// MarkWithdrawn stamps the withdrawal instant; a pending request also
	// moves to the withdrawn status.
	MarkWithdrawn(ctx context.Context, id string, at time.Time) (BookingRequest, error)
	// ListApprovedForRoomDate returns approvals still holding their slot.
	ListApprovedForRoomDate(ctx context.Context, roomCode string, date timeslot.Date) ([]BookingRequest, error)
	ListApprovedOn(ctx context.Context, date timeslot.Date) ([]BookingRequest, error)
	// ListDecided returns all terminally decided requests, for the
	// approval history.
	ListDecided(ctx context.Context) ([]BookingRequest, error)
}

// AuditRepository stores the notification delivery log.
type AuditRepository interface {
	AppendAttempt(ctx context.Context, record NotificationRecord) error
	ListRange(ctx context.Context, from, to time.Time) ([]NotificationRecord, error)
	CountByChannelStatus(ctx context.Context) ([]ChannelStatusCount, error)
	ListRecent(ctx context.Context, limit int) ([]NotificationRecord, error)
}
