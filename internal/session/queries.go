package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgx a query runner needs; satisfied by both
// *pgxpool.Pool and pgx.Tx, so the same queries run inside and outside a
// transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries runs the raw SQL for session persistence.
type Queries struct {
	db DBTX
}

// NewQueries creates a query runner over db.
func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns the same queries bound to a transaction.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

const createSessionSQL = `
INSERT INTO sessions (title)
VALUES ($1)
RETURNING id, title, created_at, updated_at, message_count`

func (q *Queries) CreateSession(ctx context.Context, title *string) (sessionRow, error) {
	var row sessionRow
	err := q.db.QueryRow(ctx, createSessionSQL, title).
		Scan(&row.ID, &row.Title, &row.CreatedAt, &row.UpdatedAt, &row.MessageCount)
	return row, err
}

const getSessionSQL = `
SELECT id, title, created_at, updated_at, message_count
FROM sessions
WHERE id = $1`

func (q *Queries) GetSession(ctx context.Context, id uuid.UUID) (sessionRow, error) {
	var row sessionRow
	err := q.db.QueryRow(ctx, getSessionSQL, id).
		Scan(&row.ID, &row.Title, &row.CreatedAt, &row.UpdatedAt, &row.MessageCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return row, ErrSessionNotFound
	}
	return row, err
}

const listSessionsSQL = `
SELECT id, title, created_at, updated_at, message_count
FROM sessions
ORDER BY updated_at DESC
LIMIT $1 OFFSET $2`

func (q *Queries) ListSessions(ctx context.Context, limit, offset int32) ([]sessionRow, error) {
	rows, err := q.db.Query(ctx, listSessionsSQL, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sessionRow
	for rows.Next() {
		var row sessionRow
		if err := rows.Scan(&row.ID, &row.Title, &row.CreatedAt, &row.UpdatedAt, &row.MessageCount); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

const deleteSessionSQL = `DELETE FROM sessions WHERE id = $1`

func (q *Queries) DeleteSession(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, deleteSessionSQL, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// lockSessionSQL serializes concurrent saves against the same session.
const lockSessionSQL = `SELECT id FROM sessions WHERE id = $1 FOR UPDATE`

func (q *Queries) LockSession(ctx context.Context, id uuid.UUID) error {
	var got uuid.UUID
	err := q.db.QueryRow(ctx, lockSessionSQL, id).Scan(&got)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrSessionNotFound
	}
	return err
}

// upsertMessageSQL makes snapshot saves idempotent: the debounced writer
// may resend the same messages, and re-sent rows just update in place.
const upsertMessageSQL = `
INSERT INTO session_messages (session_id, message_id, role, content, sequence_number)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (session_id, message_id)
DO UPDATE SET content = EXCLUDED.content, sequence_number = EXCLUDED.sequence_number`

func (q *Queries) UpsertMessage(ctx context.Context, row messageRow) error {
	_, err := q.db.Exec(ctx, upsertMessageSQL,
		row.SessionID, row.MessageID, row.Role, row.Content, row.SequenceNumber)
	return err
}

const getMessagesSQL = `
SELECT session_id, message_id, role, content, sequence_number
FROM session_messages
WHERE session_id = $1
ORDER BY sequence_number ASC
LIMIT $2`

func (q *Queries) GetMessages(ctx context.Context, sessionID uuid.UUID, limit int32) ([]messageRow, error) {
	rows, err := q.db.Query(ctx, getMessagesSQL, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []messageRow
	for rows.Next() {
		var row messageRow
		if err := rows.Scan(&row.SessionID, &row.MessageID, &row.Role, &row.Content, &row.SequenceNumber); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

const touchSessionSQL = `
UPDATE sessions
SET updated_at = now(), message_count = $2
WHERE id = $1`

func (q *Queries) TouchSession(ctx context.Context, id uuid.UUID, messageCount int32) error {
	tag, err := q.db.Exec(ctx, touchSessionSQL, id, messageCount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("touch session %s: %w", id, ErrSessionNotFound)
	}
	return nil
}
