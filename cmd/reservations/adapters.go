package main

import (
	"context"
	"errors"
	"time"

	"github.com/example/campus-reservations/internal/arbitration"
	"github.com/example/campus-reservations/internal/notification"
	"github.com/example/campus-reservations/internal/persistence"
	"github.com/example/campus-reservations/internal/predictor"
	"github.com/example/campus-reservations/internal/priority"
	"github.com/example/campus-reservations/internal/timeslot"
)

// requestStoreAdapter maps between the arbitration request model and its
// stored form.
type requestStoreAdapter struct {
	repo persistence.RequestRepository
}

func newRequestStoreAdapter(repo persistence.RequestRepository) *requestStoreAdapter {
	return &requestStoreAdapter{repo: repo}
}

func (a *requestStoreAdapter) CreateRequest(ctx context.Context, request arbitration.Request) (arbitration.Request, error) {
	if err := a.repo.CreateRequest(ctx, toStoredRequest(request)); err != nil {
		return arbitration.Request{}, mapStoreError(err)
	}
	return request, nil
}

func (a *requestStoreAdapter) GetRequest(ctx context.Context, id string) (arbitration.Request, error) {
	stored, err := a.repo.GetRequest(ctx, id)
	if err != nil {
		return arbitration.Request{}, mapStoreError(err)
	}
	return toArbitrationRequest(stored), nil
}

func (a *requestStoreAdapter) RecordDecision(ctx context.Context, id string, status arbitration.Status, decision arbitration.Decision, processedAt time.Time) (arbitration.Request, error) {
	stored, err := a.repo.RecordDecision(ctx, id, persistence.DecisionUpdate{
		Status:      string(status),
		ReasonCode:  string(decision.ReasonCode),
		Reason:      decision.Reason,
		Probability: decision.Probability,
		ProcessedAt: processedAt,
	})
	if err != nil {
		return arbitration.Request{}, mapStoreError(err)
	}
	return toArbitrationRequest(stored), nil
}

func (a *requestStoreAdapter) Withdraw(ctx context.Context, id string, at time.Time) (arbitration.Request, error) {
	stored, err := a.repo.MarkWithdrawn(ctx, id, at)
	if err != nil {
		return arbitration.Request{}, mapStoreError(err)
	}
	return toArbitrationRequest(stored), nil
}

// scheduleStoreAdapter feeds the conflict detector from the commitment and
// request tables.
type scheduleStoreAdapter struct {
	commitments persistence.CommitmentRepository
	requests    persistence.RequestRepository
}

func newScheduleStoreAdapter(commitments persistence.CommitmentRepository, requests persistence.RequestRepository) *scheduleStoreAdapter {
	return &scheduleStoreAdapter{commitments: commitments, requests: requests}
}

func (a *scheduleStoreAdapter) CommitmentsFor(ctx context.Context, roomCode string, weekday time.Weekday, date timeslot.Date) ([]arbitration.Commitment, error) {
	stored, err := a.commitments.ListForRoomWeekday(ctx, roomCode, weekday, date)
	if err != nil {
		return nil, err
	}
	out := make([]arbitration.Commitment, 0, len(stored))
	for _, commitment := range stored {
		out = append(out, arbitration.Commitment{
			ID:         commitment.ID,
			RoomCode:   commitment.RoomCode,
			Window:     timeslot.Window{Start: commitment.StartMinute, End: commitment.EndMinute},
			Subject:    commitment.Subject,
			Instructor: commitment.Instructor,
		})
	}
	return out, nil
}

func (a *scheduleStoreAdapter) ApprovedRequestsFor(ctx context.Context, roomCode string, date timeslot.Date) ([]arbitration.BookedRequest, error) {
	stored, err := a.requests.ListApprovedForRoomDate(ctx, roomCode, date)
	if err != nil {
		return nil, err
	}
	out := make([]arbitration.BookedRequest, 0, len(stored))
	for _, request := range stored {
		out = append(out, arbitration.BookedRequest{
			ID:        request.ID,
			RoomCode:  request.RoomCode,
			Window:    timeslot.Window{Start: request.StartMinute, End: request.EndMinute},
			Requester: request.RequesterName,
		})
	}
	return out, nil
}

// roomCatalogAdapter exposes the room table to the engine and the
// alternative finder.
type roomCatalogAdapter struct {
	repo persistence.RoomRepository
}

func newRoomCatalogAdapter(repo persistence.RoomRepository) *roomCatalogAdapter {
	return &roomCatalogAdapter{repo: repo}
}

func (a *roomCatalogAdapter) RoomExists(ctx context.Context, code string) (bool, error) {
	if _, err := a.repo.GetRoom(ctx, code); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (a *roomCatalogAdapter) ActiveRooms(ctx context.Context) ([]arbitration.RoomInfo, error) {
	rooms, err := a.repo.ListActiveRooms(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]arbitration.RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, arbitration.RoomInfo{
			Code:     room.Code,
			Capacity: room.Capacity,
			Faculty:  room.Faculty,
			Active:   room.Active(),
		})
	}
	return out, nil
}

// auditAdapter stores and reads delivery attempts.
type auditAdapter struct {
	repo persistence.AuditRepository
}

func newAuditAdapter(repo persistence.AuditRepository) *auditAdapter {
	return &auditAdapter{repo: repo}
}

func (a *auditAdapter) Append(ctx context.Context, attempt notification.Attempt) error {
	return a.repo.AppendAttempt(ctx, persistence.NotificationRecord{
		ID:        attempt.ID,
		RequestID: attempt.RequestID,
		Recipient: attempt.Recipient,
		Channel:   string(attempt.Channel),
		Template:  attempt.Template,
		Message:   attempt.Message,
		Status:    string(attempt.Status),
		Detail:    attempt.Detail,
		SentAt:    attempt.SentAt,
	})
}

func (a *auditAdapter) ListRange(ctx context.Context, from, to time.Time) ([]notification.Attempt, error) {
	records, err := a.repo.ListRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return toAttempts(records), nil
}

func (a *auditAdapter) CountByChannelStatus(ctx context.Context) ([]notification.ChannelCount, error) {
	counts, err := a.repo.CountByChannelStatus(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]notification.ChannelCount, 0, len(counts))
	for _, count := range counts {
		out = append(out, notification.ChannelCount{
			Channel: notification.Channel(count.Channel),
			Status:  notification.DeliveryStatus(count.Status),
			Count:   count.Count,
		})
	}
	return out, nil
}

func (a *auditAdapter) Recent(ctx context.Context, limit int) ([]notification.Attempt, error) {
	records, err := a.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	return toAttempts(records), nil
}

// upcomingSourceAdapter lists tomorrow's active approvals for the reminder
// scheduler.
type upcomingSourceAdapter struct {
	repo persistence.RequestRepository
}

func newUpcomingSourceAdapter(repo persistence.RequestRepository) *upcomingSourceAdapter {
	return &upcomingSourceAdapter{repo: repo}
}

func (a *upcomingSourceAdapter) ApprovedOn(ctx context.Context, date timeslot.Date) ([]arbitration.Request, error) {
	stored, err := a.repo.ListApprovedOn(ctx, date)
	if err != nil {
		return nil, err
	}
	out := make([]arbitration.Request, 0, len(stored))
	for _, request := range stored {
		out = append(out, toArbitrationRequest(request))
	}
	return out, nil
}

// historySourceAdapter feeds decided requests to the approval estimator.
type historySourceAdapter struct {
	repo persistence.RequestRepository
}

func newHistorySourceAdapter(repo persistence.RequestRepository) *historySourceAdapter {
	return &historySourceAdapter{repo: repo}
}

func (a *historySourceAdapter) DecidedRequests(ctx context.Context) ([]predictor.DecidedRequest, error) {
	stored, err := a.repo.ListDecided(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]predictor.DecidedRequest, 0, len(stored))
	for _, request := range stored {
		out = append(out, predictor.DecidedRequest{
			Weekday:  request.Date.Weekday(),
			Hour:     request.StartMinute / 60,
			Role:     priority.ParseRole(request.Role),
			RoomCode: request.RoomCode,
			Approved: request.Status == string(arbitration.StatusApproved),
		})
	}
	return out, nil
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return arbitration.ErrNotFound
	case errors.Is(err, persistence.ErrAlreadyDecided):
		return arbitration.ErrAlreadyDecided
	default:
		return err
	}
}

func toStoredRequest(request arbitration.Request) persistence.BookingRequest {
	return persistence.BookingRequest{
		ID:             request.ID,
		RequesterName:  request.Requester.Name,
		RequesterEmail: request.Requester.Email,
		RequesterPhone: request.Requester.Phone,
		Role:           string(request.Role),
		RoomCode:       request.RoomCode,
		Date:           request.Date,
		StartMinute:    request.Window.Start,
		EndMinute:      request.Window.End,
		Purpose:        request.Purpose,
		Priority:       request.Priority,
		Status:         string(request.Status),
		ReasonCode:     string(request.ReasonCode),
		Reason:         request.Reason,
		Probability:    request.Probability,
		PriorRequestID: request.PriorRequestID,
		CreatedAt:      request.CreatedAt,
		ProcessedAt:    cloneTime(request.ProcessedAt),
		WithdrawnAt:    cloneTime(request.WithdrawnAt),
	}
}

func toArbitrationRequest(stored persistence.BookingRequest) arbitration.Request {
	return arbitration.Request{
		ID: stored.ID,
		Requester: arbitration.Requester{
			Name:  stored.RequesterName,
			Email: stored.RequesterEmail,
			Phone: stored.RequesterPhone,
		},
		Role:           priority.ParseRole(stored.Role),
		RoomCode:       stored.RoomCode,
		Date:           stored.Date,
		Window:         timeslot.Window{Start: stored.StartMinute, End: stored.EndMinute},
		Purpose:        stored.Purpose,
		Priority:       stored.Priority,
		Status:         arbitration.Status(stored.Status),
		ReasonCode:     arbitration.ReasonCode(stored.ReasonCode),
		Reason:         stored.Reason,
		Probability:    stored.Probability,
		PriorRequestID: stored.PriorRequestID,
		CreatedAt:      stored.CreatedAt,
		ProcessedAt:    cloneTime(stored.ProcessedAt),
		WithdrawnAt:    cloneTime(stored.WithdrawnAt),
	}
}

func toAttempts(records []persistence.NotificationRecord) []notification.Attempt {
	out := make([]notification.Attempt, 0, len(records))
	for _, record := range records {
		out = append(out, notification.Attempt{
			ID:        record.ID,
			RequestID: record.RequestID,
			Recipient: record.Recipient,
			Channel:   notification.Channel(record.Channel),
			Template:  record.Template,
			Message:   record.Message,
			Status:    notification.DeliveryStatus(record.Status),
			Detail:    record.Detail,
			SentAt:    record.SentAt,
		})
	}
	return out
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
