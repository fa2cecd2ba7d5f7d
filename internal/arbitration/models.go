package arbitration

import (
	"time"

	"github.com/example/campus-reservations/internal/priority"
	"github.com/example/campus-reservations/internal/timeslot"
)

// Status tracks the lifecycle of a booking request. Transitions are forward
// only; a decided request is never moved back to pending.
type Status string

const (
	StatusPending     Status = "pending"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusNeedsReview Status = "needs_review"
	StatusWithdrawn   Status = "withdrawn"
)

// Decided reports whether the status is a terminal arbitration outcome.
func (s Status) Decided() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusNeedsReview:
		return true
	}
	return false
}

// Outcome is the arbitration verdict carried on a Decision.
type Outcome string

const (
	OutcomeApproved    Outcome = "approved"
	OutcomeRejected    Outcome = "rejected"
	OutcomeNeedsReview Outcome = "needs_review"
)

// ReasonCode is the machine-readable explanation for an outcome.
type ReasonCode string

const (
	ReasonNoConflicts          ReasonCode = "no_conflicts"
	ReasonConflictReview       ReasonCode = "conflict_requires_review"
	ReasonConflictInsufficient ReasonCode = "conflict_insufficient_priority"
	ReasonScheduleUnavailable  ReasonCode = "schedule_unavailable"
)

// Requester identifies who asked for the room and how to reach them.
type Requester struct {
	Name  string
	Email string
	Phone string
}

// Request is a one-time booking request for a room, date and time window.
type Request struct {
	ID             string
	Requester      Requester
	Role           priority.Role
	RoomCode       string
	Date           timeslot.Date
	Window         timeslot.Window
	Purpose        string
	Priority       int
	Status         Status
	ReasonCode     ReasonCode
	Reason         string
	Probability    float64
	PriorRequestID string
	CreatedAt      time.Time
	ProcessedAt    *time.Time
	WithdrawnAt    *time.Time
}

// ActiveApproval reports whether the request currently holds its slot: it
// was approved and has not been withdrawn since.
func (r Request) ActiveApproval() bool {
	return r.Status == StatusApproved && r.WithdrawnAt == nil
}

// RequestInput carries the raw caller-provided fields for a new request.
// Validation happens in the engine before any store access.
type RequestInput struct {
	RequesterName  string
	RequesterEmail string
	RequesterPhone string
	Role           string
	RoomCode       string
	Date           string
	StartTime      string
	EndTime        string
	Purpose        string
	PriorRequestID string
}

// Commitment is a standing weekly reservation from the semester schedule, as
// seen by the conflict detector: validity filtering already happened at the
// store.
type Commitment struct {
	ID         string
	RoomCode   string
	Window     timeslot.Window
	Subject    string
	Instructor string
}

// BookedRequest is a previously approved ad-hoc request occupying a slot.
type BookedRequest struct {
	ID        string
	RoomCode  string
	Window    timeslot.Window
	Requester string
}

// ConflictSource distinguishes which schedule source produced a conflict.
type ConflictSource string

const (
	SourceCommitment ConflictSource = "recurring_commitment"
	SourceRequest    ConflictSource = "approved_request"
)

// ConflictRecord is one specific overlapping booking, surfaced so callers
// can explain and audit the decision.
type ConflictRecord struct {
	Source      ConflictSource
	ID          string
	RoomCode    string
	Window      timeslot.Window
	Description string
}

// InconsistencyWarning flags two already-approved or committed bookings that
// overlap each other, indicating a prior race. It is reported, never
// auto-resolved.
type InconsistencyWarning struct {
	RoomCode string
	Date     timeslot.Date
	FirstID  string
	SecondID string
}

// ConflictReport is the detector output for one (room, date, window) probe.
type ConflictReport struct {
	HasConflict     bool
	Records         []ConflictRecord
	Inconsistencies []InconsistencyWarning
}

// Alternative is a candidate replacement room offered on rejection.
type Alternative struct {
	RoomCode  string
	Available bool
	Reason    string
}

// Decision is the arbitration verdict for a request. The probability is
// informational only and never changes the outcome.
type Decision struct {
	RequestID    string
	Outcome      Outcome
	ReasonCode   ReasonCode
	Reason       string
	Priority     int
	Alternatives []Alternative
	Probability  float64
	Warnings     []InconsistencyWarning
	DecidedAt    time.Time
}

// RoomInfo is the catalog view needed by the alternative finder.
type RoomInfo struct {
	Code     string
	Capacity int
	Faculty  string
	Active   bool
}

// PredictionFeatures are the inputs offered to the optional approval
// predictor.
type PredictionFeatures struct {
	Weekday  time.Weekday
	Month    time.Month
	Hour     int
	Role     priority.Role
	RoomCode string
}
