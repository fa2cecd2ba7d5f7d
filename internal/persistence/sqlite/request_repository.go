package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/campus-reservations/internal/persistence"
	"github.com/example/campus-reservations/internal/timeslot"
)

// RequestRepository implements persistence.RequestRepository on SQLite.
type RequestRepository struct {
	pool *ConnectionPool
}

func NewRequestRepository(pool *ConnectionPool) *RequestRepository {
	return &RequestRepository{pool: pool}
}

const requestColumns = `
	id, requester_name, requester_email, requester_phone, role, room_code,
	date, start_minute, end_minute, purpose, priority, status, reason_code,
	reason, probability, prior_request_id, created_at, processed_at, withdrawn_at`

// CreateRequest inserts a new pending request.
func (r *RequestRepository) CreateRequest(ctx context.Context, request persistence.BookingRequest) error {
	if request.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}

	var prior sql.NullString
	if request.PriorRequestID != "" {
		prior = sql.NullString{String: request.PriorRequestID, Valid: true}
	}

	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO requests
			(id, requester_name, requester_email, requester_phone, role, room_code,
			 date, start_minute, end_minute, purpose, priority, status, reason_code,
			 reason, probability, prior_request_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		request.ID,
		request.RequesterName,
		request.RequesterEmail,
		request.RequesterPhone,
		request.Role,
		request.RoomCode,
		request.Date.String(),
		request.StartMinute,
		request.EndMinute,
		request.Purpose,
		request.Priority,
		request.Status,
		request.ReasonCode,
		request.Reason,
		request.Probability,
		prior,
		request.CreatedAt.UTC().Format(time.RFC3339),
	)
	return mapError(err)
}

// GetRequest retrieves a request by id.
func (r *RequestRepository) GetRequest(ctx context.Context, id string) (persistence.BookingRequest, error) {
	if id == "" {
		return persistence.BookingRequest{}, persistence.ErrNotFound
	}

	row := r.pool.db.QueryRowContext(ctx,
		"SELECT"+requestColumns+" FROM requests WHERE id = ?", id)
	return scanRequest(row.Scan)
}

// RecordDecision flips a pending request to its terminal state. The status
// guard in the WHERE clause makes the write first-wins: a second decision
// matches zero rows and reports ErrAlreadyDecided.
func (r *RequestRepository) RecordDecision(ctx context.Context, id string, update persistence.DecisionUpdate) (persistence.BookingRequest, error) {
	if id == "" {
		return persistence.BookingRequest{}, persistence.ErrNotFound
	}

	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE requests
		SET status = ?, reason_code = ?, reason = ?, probability = ?, processed_at = ?
		WHERE id = ? AND status = 'pending'`,
		update.Status,
		update.ReasonCode,
		update.Reason,
		update.Probability,
		update.ProcessedAt.UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return persistence.BookingRequest{}, mapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.BookingRequest{}, fmt.Errorf("reading rows affected: %w", err)
	}
	if affected == 0 {
		if _, getErr := r.GetRequest(ctx, id); errors.Is(getErr, persistence.ErrNotFound) {
			return persistence.BookingRequest{}, persistence.ErrNotFound
		}
		return persistence.BookingRequest{}, persistence.ErrAlreadyDecided
	}
	return r.GetRequest(ctx, id)
}

// MarkWithdrawn stamps the withdrawal instant. A pending request also moves
// to the withdrawn status; a decided one keeps its terminal status.
func (r *RequestRepository) MarkWithdrawn(ctx context.Context, id string, at time.Time) (persistence.BookingRequest, error) {
	if id == "" {
		return persistence.BookingRequest{}, persistence.ErrNotFound
	}

	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE requests
		SET withdrawn_at = ?,
		    status = CASE WHEN status = 'pending' THEN 'withdrawn' ELSE status END
		WHERE id = ? AND withdrawn_at IS NULL`,
		at.UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return persistence.BookingRequest{}, mapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.BookingRequest{}, fmt.Errorf("reading rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.BookingRequest{}, persistence.ErrNotFound
	}
	return r.GetRequest(ctx, id)
}

// ListApprovedForRoomDate returns the approvals still holding their slot on
// the room and date.
func (r *RequestRepository) ListApprovedForRoomDate(ctx context.Context, roomCode string, date timeslot.Date) ([]persistence.BookingRequest, error) {
	return r.list(ctx, `
		SELECT`+requestColumns+`
		FROM requests
		WHERE room_code = ? AND date = ? AND status = 'approved' AND withdrawn_at IS NULL
		ORDER BY start_minute ASC`,
		roomCode, date.String())
}

// ListApprovedOn returns all approvals still holding a slot on the date.
func (r *RequestRepository) ListApprovedOn(ctx context.Context, date timeslot.Date) ([]persistence.BookingRequest, error) {
	return r.list(ctx, `
		SELECT`+requestColumns+`
		FROM requests
		WHERE date = ? AND status = 'approved' AND withdrawn_at IS NULL
		ORDER BY room_code ASC, start_minute ASC`,
		date.String())
}

// ListDecided returns every terminally decided request for the approval
// history.
func (r *RequestRepository) ListDecided(ctx context.Context) ([]persistence.BookingRequest, error) {
	return r.list(ctx, `
		SELECT`+requestColumns+`
		FROM requests
		WHERE status IN ('approved', 'rejected', 'needs_review')
		ORDER BY created_at ASC`)
}

func (r *RequestRepository) list(ctx context.Context, query string, args ...any) ([]persistence.BookingRequest, error) {
	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var requests []persistence.BookingRequest
	for rows.Next() {
		request, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return requests, nil
}

func scanRequest(scan func(...any) error) (persistence.BookingRequest, error) {
	var request persistence.BookingRequest
	var dateStr, createdAt string
	var prior, processedAt, withdrawnAt sql.NullString

	err := scan(
		&request.ID,
		&request.RequesterName,
		&request.RequesterEmail,
		&request.RequesterPhone,
		&request.Role,
		&request.RoomCode,
		&dateStr,
		&request.StartMinute,
		&request.EndMinute,
		&request.Purpose,
		&request.Priority,
		&request.Status,
		&request.ReasonCode,
		&request.Reason,
		&request.Probability,
		&prior,
		&createdAt,
		&processedAt,
		&withdrawnAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.BookingRequest{}, persistence.ErrNotFound
		}
		return persistence.BookingRequest{}, mapError(err)
	}

	if request.Date, err = timeslot.ParseDate(dateStr); err != nil {
		return persistence.BookingRequest{}, fmt.Errorf("parsing date for request %s: %w", request.ID, err)
	}
	if request.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.BookingRequest{}, fmt.Errorf("parsing created_at for request %s: %w", request.ID, err)
	}
	if prior.Valid {
		request.PriorRequestID = prior.String
	}
	if processedAt.Valid {
		parsed, err := time.Parse(time.RFC3339, processedAt.String)
		if err != nil {
			return persistence.BookingRequest{}, fmt.Errorf("parsing processed_at for request %s: %w", request.ID, err)
		}
		request.ProcessedAt = &parsed
	}
	if withdrawnAt.Valid {
		parsed, err := time.Parse(time.RFC3339, withdrawnAt.String)
		if err != nil {
			return persistence.BookingRequest{}, fmt.Errorf("parsing withdrawn_at for request %s: %w", request.ID, err)
		}
		request.WithdrawnAt = &parsed
	}
	return request, nil
}
