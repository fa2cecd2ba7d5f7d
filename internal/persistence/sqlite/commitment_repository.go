package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/campus-reservations/internal/persistence"
	"github.com/example/campus-reservations/internal/timeslot"
)

// CommitmentRepository implements persistence.CommitmentRepository on SQLite.
type CommitmentRepository struct {
	pool *ConnectionPool
}

func NewCommitmentRepository(pool *ConnectionPool) *CommitmentRepository {
	return &CommitmentRepository{pool: pool}
}

// CreateCommitment inserts a recurring semester reservation.
func (r *CommitmentRepository) CreateCommitment(ctx context.Context, commitment persistence.Commitment) error {
	if commitment.ID == "" || commitment.RoomCode == "" {
		return persistence.ErrConstraintViolation
	}
	if commitment.EndMinute <= commitment.StartMinute {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO commitments
			(id, room_code, weekday, start_minute, end_minute, valid_from, valid_until, subject, instructor)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		commitment.ID,
		commitment.RoomCode,
		int(commitment.Weekday),
		commitment.StartMinute,
		commitment.EndMinute,
		commitment.ValidFrom.String(),
		commitment.ValidUntil.String(),
		commitment.Subject,
		commitment.Instructor,
	)
	return mapError(err)
}

// ListForRoomWeekday returns the commitments for the room and weekday whose
// validity range covers the date. Date strings are ISO, so lexical
// comparison matches chronological order.
func (r *CommitmentRepository) ListForRoomWeekday(ctx context.Context, roomCode string, weekday time.Weekday, date timeslot.Date) ([]persistence.Commitment, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, room_code, weekday, start_minute, end_minute, valid_from, valid_until, subject, instructor
		FROM commitments
		WHERE room_code = ? AND weekday = ? AND valid_from <= ? AND valid_until >= ?
		ORDER BY start_minute ASC`,
		roomCode, int(weekday), date.String(), date.String(),
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var commitments []persistence.Commitment
	for rows.Next() {
		var c persistence.Commitment
		var weekdayInt int
		var validFrom, validUntil string

		err := rows.Scan(&c.ID, &c.RoomCode, &weekdayInt, &c.StartMinute, &c.EndMinute, &validFrom, &validUntil, &c.Subject, &c.Instructor)
		if err != nil {
			return nil, mapError(err)
		}
		c.Weekday = time.Weekday(weekdayInt)
		if c.ValidFrom, err = timeslot.ParseDate(validFrom); err != nil {
			return nil, fmt.Errorf("parsing valid_from for commitment %s: %w", c.ID, err)
		}
		if c.ValidUntil, err = timeslot.ParseDate(validUntil); err != nil {
			return nil, fmt.Errorf("parsing valid_until for commitment %s: %w", c.ID, err)
		}
		commitments = append(commitments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return commitments, nil
}

// DeleteCommitment removes a commitment by id.
func (r *CommitmentRepository) DeleteCommitment(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM commitments WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
