package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is one versioned schema step. Steps run in order inside a
// transaction and are recorded in schema_migrations, so reruns are no-ops.
type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "create rooms",
		stmts: []string{`
			CREATE TABLE IF NOT EXISTS rooms (
				code       TEXT PRIMARY KEY,
				capacity   INTEGER NOT NULL DEFAULT 0,
				faculty    TEXT NOT NULL DEFAULT '',
				equipment  TEXT NOT NULL DEFAULT '',
				status     TEXT NOT NULL DEFAULT 'active',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
		},
	},
	{
		version: 2,
		name:    "create commitments",
		stmts: []string{`
			CREATE TABLE IF NOT EXISTS commitments (
				id           TEXT PRIMARY KEY,
				room_code    TEXT NOT NULL REFERENCES rooms(code),
				weekday      INTEGER NOT NULL CHECK (weekday BETWEEN 0 AND 6),
				start_minute INTEGER NOT NULL,
				end_minute   INTEGER NOT NULL CHECK (end_minute > start_minute),
				valid_from   TEXT NOT NULL,
				valid_until  TEXT NOT NULL,
				subject      TEXT NOT NULL DEFAULT '',
				instructor   TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE INDEX IF NOT EXISTS idx_commitments_room_weekday
				ON commitments(room_code, weekday)`,
		},
	},
	{
		version: 3,
		name:    "create requests",
		stmts: []string{`
			CREATE TABLE IF NOT EXISTS requests (
				id               TEXT PRIMARY KEY,
				requester_name   TEXT NOT NULL,
				requester_email  TEXT NOT NULL DEFAULT '',
				requester_phone  TEXT NOT NULL DEFAULT '',
				role             TEXT NOT NULL,
				room_code        TEXT NOT NULL,
				date             TEXT NOT NULL,
				start_minute     INTEGER NOT NULL,
				end_minute       INTEGER NOT NULL CHECK (end_minute > start_minute),
				purpose          TEXT NOT NULL DEFAULT '',
				priority         INTEGER NOT NULL DEFAULT 0,
				status           TEXT NOT NULL DEFAULT 'pending',
				reason_code      TEXT NOT NULL DEFAULT '',
				reason           TEXT NOT NULL DEFAULT '',
				probability      REAL NOT NULL DEFAULT 0.5,
				prior_request_id TEXT,
				created_at       TEXT NOT NULL,
				processed_at     TEXT,
				withdrawn_at     TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_requests_room_date
				ON requests(room_code, date)`,
			`CREATE INDEX IF NOT EXISTS idx_requests_status
				ON requests(status)`,
		},
	},
	{
		version: 4,
		name:    "create notification attempts",
		stmts: []string{`
			CREATE TABLE IF NOT EXISTS notification_attempts (
				id         TEXT PRIMARY KEY,
				request_id TEXT NOT NULL,
				recipient  TEXT NOT NULL,
				channel    TEXT NOT NULL,
				template   TEXT NOT NULL,
				message    TEXT NOT NULL,
				status     TEXT NOT NULL,
				detail     TEXT NOT NULL DEFAULT '',
				sent_at    TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_attempts_sent_at
				ON notification_attempts(sent_at)`,
			`CREATE INDEX IF NOT EXISTS idx_attempts_request
				ON notification_attempts(request_id)`,
		},
	},
}

// Migrate brings the schema up to the current version.
func Migrate(ctx context.Context, pool *ConnectionPool) error {
	if _, err := pool.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	for _, m := range migrations {
		applied, err := migrationApplied(ctx, pool.db, m.version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		err = pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, stmt := range m.stmts {
				if _, err := tx.Exec(stmt); err != nil {
					return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
				}
			}
			_, err := tx.Exec(
				"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
				m.version, m.name,
			)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func migrationApplied(ctx context.Context, db *sql.DB, version int) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_migrations WHERE version = ?", version,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking migration %d: %w", version, err)
	}
	return count > 0, nil
}
