package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"callaudio/pkg/utils"
)

// Schema creates the journal table. The daemon applies it at startup.
const Schema = `
CREATE TABLE IF NOT EXISTS audio_events (
	id                TEXT PRIMARY KEY,
	type              TEXT NOT NULL,
	subsystem         TEXT NOT NULL,
	from_state        TEXT NOT NULL DEFAULT '',
	to_state          TEXT NOT NULL DEFAULT '',
	trigger           TEXT NOT NULL DEFAULT '',
	focus             TEXT NOT NULL DEFAULT '',
	mode              TEXT NOT NULL DEFAULT '',
	route             TEXT NOT NULL DEFAULT '',
	available         TEXT NOT NULL DEFAULT '',
	muted             BOOLEAN NOT NULL DEFAULT FALSE,
	correlation_token TEXT NOT NULL DEFAULT '',
	message           TEXT NOT NULL DEFAULT '',
	metadata          TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS audio_events_created_at ON audio_events (created_at DESC);
`

const insertEvent = `
INSERT INTO audio_events (
	id, type, subsystem, from_state, to_state, trigger, focus, mode,
	route, available, muted, correlation_token, message, metadata, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

const selectRecent = `
SELECT id, type, subsystem, from_state, to_state, trigger, focus, mode,
	route, available, muted, correlation_token, message, metadata, created_at
FROM audio_events
ORDER BY created_at DESC
LIMIT $1`

// PostgresRepo stores events in Postgres through database/sql (pgx stdlib).
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) (*PostgresRepo, error) {
	if db == nil {
		return nil, errors.New("audit: db is nil")
	}
	return &PostgresRepo{db: db}, nil
}

// Migrate applies Schema.
func (r *PostgresRepo) Migrate(ctx context.Context) error {
	return utils.WithTx(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, Schema)
		return err
	})
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	return utils.WithTx(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, insertEvent,
			e.ID, string(e.Type), e.Subsystem, e.FromState, e.ToState, e.Trigger, e.Focus, e.Mode,
			e.Route, e.Available, e.Muted, e.CorrelationToken, e.Message, e.Metadata, e.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("audit: insert event: %w", err)
		}
		return nil
	})
}

func (r *PostgresRepo) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, selectRecent, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var typ string
		if err := rows.Scan(
			&e.ID, &typ, &e.Subsystem, &e.FromState, &e.ToState, &e.Trigger, &e.Focus, &e.Mode,
			&e.Route, &e.Available, &e.Muted, &e.CorrelationToken, &e.Message, &e.Metadata, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("audit: scan event: %w", err)
		}
		e.Type = EventType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}
