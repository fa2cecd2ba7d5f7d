package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/campus-reservations/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository on SQLite.
type RoomRepository struct {
	pool *ConnectionPool
}

func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{pool: pool}
}

// CreateRoom inserts a room into the catalog.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.Code == "" {
		return persistence.ErrConstraintViolation
	}
	if room.Status == "" {
		room.Status = persistence.RoomStatusActive
	}

	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now

	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO rooms (code, capacity, faculty, equipment, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		room.Code,
		room.Capacity,
		room.Faculty,
		strings.Join(room.Equipment, ","),
		room.Status,
		room.CreatedAt.Format(time.RFC3339),
		room.UpdatedAt.Format(time.RFC3339),
	)
	return mapError(err)
}

// UpdateRoom rewrites a room's mutable fields.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if room.Code == "" {
		return persistence.ErrNotFound
	}

	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE rooms
		SET capacity = ?, faculty = ?, equipment = ?, status = ?, updated_at = ?
		WHERE code = ?`,
		room.Capacity,
		room.Faculty,
		strings.Join(room.Equipment, ","),
		room.Status,
		time.Now().UTC().Format(time.RFC3339),
		room.Code,
	)
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

// GetRoom retrieves a room by code.
func (r *RoomRepository) GetRoom(ctx context.Context, code string) (persistence.Room, error) {
	if code == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}

	row := r.pool.db.QueryRowContext(ctx, `
		SELECT code, capacity, faculty, equipment, status, created_at, updated_at
		FROM rooms
		WHERE code = ?`, code)
	return scanRoom(row.Scan)
}

// ListRooms returns the full catalog ordered by code.
func (r *RoomRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	return r.list(ctx, `
		SELECT code, capacity, faculty, equipment, status, created_at, updated_at
		FROM rooms
		ORDER BY code ASC`)
}

// ListActiveRooms returns only rooms currently open for booking.
func (r *RoomRepository) ListActiveRooms(ctx context.Context) ([]persistence.Room, error) {
	return r.list(ctx, `
		SELECT code, capacity, faculty, equipment, status, created_at, updated_at
		FROM rooms
		WHERE status = 'active'
		ORDER BY code ASC`)
}

func (r *RoomRepository) list(ctx context.Context, query string) ([]persistence.Room, error) {
	rows, err := r.pool.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := scanRoom(rows.Scan)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return rooms, nil
}

func scanRoom(scan func(...any) error) (persistence.Room, error) {
	var room persistence.Room
	var equipment, createdAt, updatedAt string

	err := scan(&room.Code, &room.Capacity, &room.Faculty, &equipment, &room.Status, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Room{}, persistence.ErrNotFound
		}
		return persistence.Room{}, mapError(err)
	}

	if equipment != "" {
		room.Equipment = strings.Split(equipment, ",")
	}
	if room.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.Room{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if room.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.Room{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return room, nil
}
