package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/campus-reservations/internal/persistence"
)

// AuditRepository implements persistence.AuditRepository on SQLite. Attempts
// are append-only; there is no update path.
type AuditRepository struct {
	pool *ConnectionPool
}

func NewAuditRepository(pool *ConnectionPool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// AppendAttempt records one delivery attempt.
func (r *AuditRepository) AppendAttempt(ctx context.Context, record persistence.NotificationRecord) error {
	if record.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if record.SentAt.IsZero() {
		record.SentAt = time.Now().UTC()
	}

	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO notification_attempts
			(id, request_id, recipient, channel, template, message, status, detail, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.RequestID,
		record.Recipient,
		record.Channel,
		record.Template,
		record.Message,
		record.Status,
		record.Detail,
		record.SentAt.UTC().Format(time.RFC3339),
	)
	return mapError(err)
}

// ListRange returns the attempts sent within [from, to), newest first.
func (r *AuditRepository) ListRange(ctx context.Context, from, to time.Time) ([]persistence.NotificationRecord, error) {
	return r.list(ctx, `
		SELECT id, request_id, recipient, channel, template, message, status, detail, sent_at
		FROM notification_attempts
		WHERE sent_at >= ? AND sent_at < ?
		ORDER BY sent_at DESC`,
		from.UTC().Format(time.RFC3339),
		to.UTC().Format(time.RFC3339),
	)
}

// CountByChannelStatus aggregates attempts per channel and delivery status.
func (r *AuditRepository) CountByChannelStatus(ctx context.Context) ([]persistence.ChannelStatusCount, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT channel, status, COUNT(*)
		FROM notification_attempts
		GROUP BY channel, status
		ORDER BY channel ASC, status ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var counts []persistence.ChannelStatusCount
	for rows.Next() {
		var count persistence.ChannelStatusCount
		if err := rows.Scan(&count.Channel, &count.Status, &count.Count); err != nil {
			return nil, mapError(err)
		}
		counts = append(counts, count)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return counts, nil
}

// ListRecent returns the newest attempts, capped at limit.
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]persistence.NotificationRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	return r.list(ctx, `
		SELECT id, request_id, recipient, channel, template, message, status, detail, sent_at
		FROM notification_attempts
		ORDER BY sent_at DESC
		LIMIT ?`, limit)
}

func (r *AuditRepository) list(ctx context.Context, query string, args ...any) ([]persistence.NotificationRecord, error) {
	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var records []persistence.NotificationRecord
	for rows.Next() {
		var record persistence.NotificationRecord
		var sentAt string
		err := rows.Scan(
			&record.ID,
			&record.RequestID,
			&record.Recipient,
			&record.Channel,
			&record.Template,
			&record.Message,
			&record.Status,
			&record.Detail,
			&sentAt,
		)
		if err != nil {
			return nil, mapError(err)
		}
		if record.SentAt, err = time.Parse(time.RFC3339, sentAt); err != nil {
			return nil, fmt.Errorf("parsing sent_at for attempt %s: %w", record.ID, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return records, nil
}
