package arbitration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campus-reservations/internal/logging"
	"github.com/example/campus-reservations/internal/priority"
	"github.com/example/campus-reservations/internal/timeslot"
	"github.com/example/campus-reservations/internal/tracing"
)

// NeutralProbability is attached to decisions when no predictor is
// configured or the configured one fails. It never blocks arbitration.
const NeutralProbability = 0.5

// predictorTimeout bounds how long arbitration waits for the optional
// estimate before falling back to the neutral value.
const predictorTimeout = 2 * time.Second

// RequestStore persists booking requests and their single decision.
type RequestStore interface {
	CreateRequest(ctx context.Context, request Request) (Request, error)
	GetRequest(ctx context.Context, id string) (Request, error)
	// RecordDecision flips a pending request to its terminal status. It
	// must fail with ErrAlreadyDecided when the request is no longer
	// pending, so a decision is written exactly once.
	RecordDecision(ctx context.Context, id string, status Status, decision Decision, processedAt time.Time) (Request, error)
	// Withdraw marks the request withdrawn at the given instant without
	// deleting it.
	Withdraw(ctx context.Context, id string, at time.Time) (Request, error)
}

// Predictor estimates the historical approval probability for a request
// shape. Optional; arbitration never depends on its availability.
type Predictor interface {
	Estimate(ctx context.Context, features PredictionFeatures) (float64, error)
}

// Engine arbitrates booking requests: it combines the priority score and the
// conflict report into an outcome, searches for alternatives on rejection,
// and writes the decision onto the request exactly once.
type Engine struct {
	requests    RequestStore
	detector    *ConflictDetector
	finder      *AlternativeFinder
	catalog     RoomCatalog
	predictor   Predictor
	slotLocks   *lockTable
	idLocks     *lockTable
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEngine wires the arbitration dependencies. predictor may be nil.
func NewEngine(requests RequestStore, detector *ConflictDetector, finder *AlternativeFinder, catalog RoomCatalog, predictor Predictor, idGenerator func() string, now func() time.Time, logger *slog.Logger) *Engine {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{
		requests:    requests,
		detector:    detector,
		finder:      finder,
		catalog:     catalog,
		predictor:   predictor,
		slotLocks:   newLockTable(),
		idLocks:     newLockTable(),
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// Submit validates the input, creates the pending request, arbitrates it and
// returns the decided request together with its decision. A schedule failure
// while reading conflict sources yields a NeedsReview decision; a failure
// while writing the decision is returned to the caller with the request left
// pending for resubmission.
func (e *Engine) Submit(ctx context.Context, input RequestInput) (Request, Decision, error) {
	if e == nil || e.requests == nil {
		return Request{}, Decision{}, fmt.Errorf("arbitration engine not configured")
	}

	ctx, span := tracing.StartSpan(ctx, "arbitration.submit", "room", input.RoomCode)
	var spanErr error
	defer func() { tracing.EndSpan(span, spanErr) }()

	request, err := e.buildRequest(ctx, input)
	if err != nil {
		spanErr = err
		return Request{}, Decision{}, err
	}

	created, err := e.requests.CreateRequest(ctx, request)
	if err != nil {
		spanErr = err
		return Request{}, Decision{}, fmt.Errorf("persisting request: %w", err)
	}

	decided, decision, err := e.arbitrate(ctx, created)
	if err != nil {
		spanErr = err
		return created, Decision{}, err
	}

	logging.Component(ctx, e.logger, "arbitration_engine",
		"request_id", decided.ID,
		"room", decided.RoomCode,
		"date", decided.Date.String(),
	).InfoContext(ctx, "request decided",
		"outcome", string(decision.Outcome),
		"reason_code", string(decision.ReasonCode),
		"priority", decision.Priority,
		"alternatives", len(decision.Alternatives),
	)

	return decided, decision, nil
}

// Resolve arbitrates an existing pending request by id, recovering requests
// left pending after a failed decision write. Callers racing on the same
// identifier serialize inside arbitrate, so only the first writes a
// decision; later ones observe ErrAlreadyDecided from the store.
func (e *Engine) Resolve(ctx context.Context, requestID string) (Request, Decision, error) {
	if e == nil || e.requests == nil {
		return Request{}, Decision{}, fmt.Errorf("arbitration engine not configured")
	}
	request, err := e.requests.GetRequest(ctx, requestID)
	if err != nil {
		return Request{}, Decision{}, err
	}
	switch {
	case request.Status == StatusWithdrawn || request.WithdrawnAt != nil:
		return request, Decision{}, ErrAlreadyWithdrawn
	case request.Status.Decided():
		return request, Decision{}, ErrAlreadyDecided
	}
	return e.arbitrate(ctx, request)
}

func (e *Engine) arbitrate(ctx context.Context, request Request) (Request, Decision, error) {
	// Single writer per request id.
	releaseID := e.idLocks.Acquire(request.ID)
	defer releaseID()

	// The predictor runs alongside the conflict check; it is informational
	// and must never delay or block the decision beyond its own timeout.
	probCh := make(chan float64, 1)
	go func() { probCh <- e.estimate(ctx, request) }()

	// The slot lock spans the conflict check and, for approvals, the
	// decision write: the request row becomes a conflict source the moment
	// it flips to approved, so no other submission for an overlapping
	// window on the same room and date may check in between.
	releaseSlot := e.slotLocks.Acquire(slotKey(request.RoomCode, request.Date.String()))
	unlockSlot := func() {
		if releaseSlot != nil {
			releaseSlot()
			releaseSlot = nil
		}
	}
	defer unlockSlot()

	decision := Decision{RequestID: request.ID, Priority: request.Priority}

	report, detectErr := e.detector.Detect(ctx, request.RoomCode, request.Date, request.Window)
	switch {
	case detectErr != nil:
		unlockSlot()
		if !errors.Is(detectErr, ErrScheduleUnavailable) {
			detectErr = fmt.Errorf("%v: %w", detectErr, ErrScheduleUnavailable)
		}
		decision.Outcome = OutcomeNeedsReview
		decision.ReasonCode = ReasonScheduleUnavailable
		decision.Reason = "schedule unavailable, manual review required"
		logging.Component(ctx, e.logger, "arbitration_engine", "request_id", request.ID).
			WarnContext(ctx, "schedule unavailable, escalating to review", "error", detectErr)

	case !report.HasConflict:
		decision.Outcome = OutcomeApproved
		decision.ReasonCode = ReasonNoConflicts
		decision.Reason = "no conflicts"
		decision.Warnings = report.Inconsistencies

	case request.Priority >= priority.ReviewThreshold:
		unlockSlot()
		decision.Outcome = OutcomeNeedsReview
		decision.ReasonCode = ReasonConflictReview
		decision.Reason = "conflict with privileged requester, manual review required"
		decision.Warnings = report.Inconsistencies

	default:
		unlockSlot()
		decision.Outcome = OutcomeRejected
		decision.ReasonCode = ReasonConflictInsufficient
		decision.Reason = "conflict, insufficient priority"
		decision.Warnings = report.Inconsistencies
		if e.finder != nil {
			alternatives, _ := e.finder.Find(ctx, request.RoomCode, request.Date, request.Window)
			decision.Alternatives = alternatives
		}
	}

	decision.Probability = <-probCh
	decision.DecidedAt = e.now()

	status := statusForOutcome(decision.Outcome)
	decided, err := e.requests.RecordDecision(ctx, request.ID, status, decision, decision.DecidedAt)
	if err != nil {
		return request, Decision{}, fmt.Errorf("recording decision for %s: %w", request.ID, err)
	}
	return decided, decision, nil
}

func (e *Engine) buildRequest(ctx context.Context, input RequestInput) (Request, error) {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.RequesterName) == "" {
		vErr.add("requester_name", "requester name is required")
	}
	if strings.TrimSpace(input.Role) == "" {
		vErr.add("role", "role is required")
	}
	if strings.TrimSpace(input.RoomCode) == "" {
		vErr.add("room_code", "room code is required")
	}

	var date timeslot.Date
	if strings.TrimSpace(input.Date) == "" {
		vErr.add("date", "date is required")
	} else {
		parsed, err := timeslot.ParseDate(input.Date)
		if err != nil {
			vErr.add("date", "date must be YYYY-MM-DD")
		} else {
			date = parsed
		}
	}

	var window timeslot.Window
	if strings.TrimSpace(input.StartTime) == "" || strings.TrimSpace(input.EndTime) == "" {
		vErr.add("window", "start and end times are required")
	} else {
		parsed, err := timeslot.ParseWindow(input.StartTime, input.EndTime)
		if err != nil {
			vErr.add("window", "window must be HH:MM-HH:MM with start before end")
		} else {
			window = parsed
		}
	}

	if vErr.HasErrors() {
		return Request{}, vErr
	}

	if e.catalog != nil {
		exists, err := e.catalog.RoomExists(ctx, strings.TrimSpace(input.RoomCode))
		if err == nil && !exists {
			vErr.add("room_code", "room does not exist")
			return Request{}, vErr
		}
	}

	if prior := strings.TrimSpace(input.PriorRequestID); prior != "" {
		previous, err := e.requests.GetRequest(ctx, prior)
		if err != nil {
			vErr.add("prior_request_id", "prior request does not exist")
			return Request{}, vErr
		}
		if previous.Status != StatusWithdrawn && previous.Status != StatusRejected && previous.WithdrawnAt == nil {
			vErr.add("prior_request_id", "prior request must be withdrawn or rejected")
			return Request{}, vErr
		}
	}

	role := priority.ParseRole(input.Role)
	return Request{
		ID: e.idGenerator(),
		Requester: Requester{
			Name:  strings.TrimSpace(input.RequesterName),
			Email: strings.TrimSpace(input.RequesterEmail),
			Phone: strings.TrimSpace(input.RequesterPhone),
		},
		Role:           role,
		RoomCode:       strings.TrimSpace(input.RoomCode),
		Date:           date,
		Window:         window,
		Purpose:        strings.TrimSpace(input.Purpose),
		Priority:       priority.Score(role, input.Purpose),
		Status:         StatusPending,
		PriorRequestID: strings.TrimSpace(input.PriorRequestID),
		CreatedAt:      e.now(),
	}, nil
}

func (e *Engine) estimate(ctx context.Context, request Request) float64 {
	if e.predictor == nil {
		return NeutralProbability
	}

	ctx, cancel := context.WithTimeout(ctx, predictorTimeout)
	defer cancel()

	estimate, err := e.predictor.Estimate(ctx, PredictionFeatures{
		Weekday:  request.Date.Weekday(),
		Month:    request.Date.Month,
		Hour:     request.Window.StartHour(),
		Role:     request.Role,
		RoomCode: request.RoomCode,
	})
	if err != nil || estimate < 0 || estimate > 1 {
		return NeutralProbability
	}
	return estimate
}

// Get returns the stored request.
func (e *Engine) Get(ctx context.Context, id string) (Request, error) {
	if e == nil || e.requests == nil {
		return Request{}, fmt.Errorf("arbitration engine not configured")
	}
	return e.requests.GetRequest(ctx, id)
}

// Alternatives recomputes the conflict-free candidates for a stored
// request's date and window against current schedule state.
func (e *Engine) Alternatives(ctx context.Context, requestID string) ([]Alternative, error) {
	request, err := e.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if e.finder == nil {
		return nil, nil
	}
	return e.finder.Find(ctx, request.RoomCode, request.Date, request.Window)
}

// Withdraw cancels a request. A pending request moves to withdrawn; a
// decided one keeps its terminal status and gains a withdrawal timestamp,
// which also frees the slot when the request held an approval. Withdrawal
// never deletes the record.
func (e *Engine) Withdraw(ctx context.Context, requestID string) (Request, error) {
	if e == nil || e.requests == nil {
		return Request{}, fmt.Errorf("arbitration engine not configured")
	}

	releaseID := e.idLocks.Acquire(requestID)
	defer releaseID()

	request, err := e.requests.GetRequest(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if request.WithdrawnAt != nil || request.Status == StatusWithdrawn {
		return request, ErrAlreadyWithdrawn
	}

	withdrawn, err := e.requests.Withdraw(ctx, requestID, e.now())
	if err != nil {
		return Request{}, err
	}

	logging.Component(ctx, e.logger, "arbitration_engine", "request_id", requestID).
		InfoContext(ctx, "request withdrawn", "previous_status", string(request.Status))

	return withdrawn, nil
}

func statusForOutcome(outcome Outcome) Status {
	switch outcome {
	case OutcomeApproved:
		return StatusApproved
	case OutcomeRejected:
		return StatusRejected
	default:
		return StatusNeedsReview
	}
}
