package persistence

import (
	"time"

	"github.com/example/campus-reservations/internal/timeslot"
)

// Room statuses.
const (
	RoomStatusActive   = "active"
	RoomStatusInactive = "inactive"
)

// Room is a bookable room from the catalog.
type Room struct {
	Code      string
	Capacity  int
	Faculty   string
	Equipment []string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the room may be booked or offered as an
// alternative.
func (r Room) Active() bool {
	return r.Status == RoomStatusActive
}

// Commitment is a standing weekly reservation from the semester schedule.
// ValidFrom and ValidUntil bound the dates it applies to, inclusive.
type Commitment struct {
	ID          string
	RoomCode    string
	Weekday     time.Weekday
	StartMinute int
	EndMinute   int
	ValidFrom   timeslot.Date
	ValidUntil  timeslot.Date
	Subject     string
	Instructor  string
}

// BookingRequest is the stored form of a one-time booking request.
type BookingRequest struct {
	ID             string
	RequesterName  string
	RequesterEmail string
	RequesterPhone string
	Role           string
	RoomCode       string
	Date           timeslot.Date
	StartMinute    int
	EndMinute      int
	Purpose        string
	Priority       int
	Status         string
	ReasonCode     string
	Reason         string
	Probability    float64
	PriorRequestID string
	CreatedAt      time.Time
	ProcessedAt    *time.Time
	WithdrawnAt    *time.Time
}

// DecisionUpdate is the terminal state written onto a pending request.
type DecisionUpdate struct {
	Status      string
	ReasonCode  string
	Reason      string
	Probability float64
	ProcessedAt time.Time
}

// NotificationRecord is one stored delivery attempt.
type NotificationRecord struct {
	ID        string
	RequestID string
	Recipient string
	Channel   string
	Template  string
	Message   string
	Status    string
	Detail    string
	SentAt    time.Time
}

// ChannelStatusCount is one aggregate row of the notification report.
type ChannelStatusCount struct {
	Channel string
	Status  string
	Count   int
}
