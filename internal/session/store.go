package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marislab/maris/internal/conversation"
)

// Querier defines the database operations Store depends on. The interface
// lives with the consumer so tests can substitute a mock; *Queries is the
// production implementation.
type Querier interface {
	CreateSession(ctx context.Context, title *string) (sessionRow, error)
	GetSession(ctx context.Context, id uuid.UUID) (sessionRow, error)
	ListSessions(ctx context.Context, limit, offset int32) ([]sessionRow, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	LockSession(ctx context.Context, id uuid.UUID) error
	UpsertMessage(ctx context.Context, row messageRow) error
	GetMessages(ctx context.Context, sessionID uuid.UUID, limit int32) ([]messageRow, error)
	TouchSession(ctx context.Context, id uuid.UUID, messageCount int32) error
}

// Compile-time interface verification.
var _ Querier = (*Queries)(nil)

// Store manages session persistence with a PostgreSQL backend.
// Safe for concurrent use.
type Store struct {
	querier Querier
	pool    *pgxpool.Pool // for transactions; nil in unit tests
	logger  *slog.Logger

	// historyLimit caps LoadMessages; zero means DefaultHistoryLimit.
	historyLimit int32
}

// New creates a Store. pool may be nil when querier is a test mock; saves
// then run non-transactionally.
func New(querier Querier, pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{querier: querier, pool: pool, logger: logger}
}

// SetHistoryLimit overrides how many messages LoadMessages retrieves.
// The value is clamped into [1, MaxHistoryLimit]; zero and negatives
// restore the default.
func (s *Store) SetHistoryLimit(limit int32) {
	s.historyLimit = NormalizeHistoryLimit(limit)
}

// CreateSession creates a new conversation session.
func (s *Store) CreateSession(ctx context.Context, title string) (*Session, error) {
	var titlePtr *string
	if title != "" {
		titlePtr = &title
	}

	row, err := s.querier.CreateSession(ctx, titlePtr)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	sess := rowToSession(row)
	s.logger.Debug("created session", "id", sess.ID, "title", sess.Title)
	return sess, nil
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	row, err := s.querier.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return rowToSession(row), nil
}

// ListSessions lists sessions ordered by most recently updated.
func (s *Store) ListSessions(ctx context.Context, limit, offset int32) ([]*Session, error) {
	rows, err := s.querier.ListSessions(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sessions := make([]*Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, rowToSession(row))
	}
	return sessions, nil
}

// DeleteSession deletes a session and all its messages (CASCADE).
func (s *Store) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if err := s.querier.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	s.logger.Debug("deleted session", "id", id)
	return nil
}

// SaveMessages persists a whole snapshot of the session's canonical
// sequence. Upserts are keyed by message ID with the loaded- prefix
// stripped, so reseeded historical messages land on their original rows
// instead of duplicating.
//
// With a pool the save runs in one transaction under a session row lock;
// without (mock tests) it runs statement by statement.
func (s *Store) SaveMessages(ctx context.Context, sessionID uuid.UUID, msgs []conversation.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	if s.pool == nil {
		return s.saveMessages(ctx, s.querier, sessionID, msgs)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errorsIsTxClosed(rbErr) {
			s.logger.Debug("save rollback", "error", rbErr)
		}
	}()

	if err := s.saveMessages(ctx, NewQueries(tx), sessionID, msgs); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save transaction: %w", err)
	}

	s.logger.Debug("saved messages", "session_id", sessionID, "count", len(msgs))
	return nil
}

func (s *Store) saveMessages(ctx context.Context, q Querier, sessionID uuid.UUID, msgs []conversation.Message) error {
	if err := q.LockSession(ctx, sessionID); err != nil {
		return fmt.Errorf("lock session %s: %w", sessionID, err)
	}

	for i, msg := range msgs {
		content, err := json.Marshal(msg.Parts)
		if err != nil {
			return fmt.Errorf("marshal message %d: %w", i, err)
		}

		if err := q.UpsertMessage(ctx, messageRow{
			SessionID:      sessionID,
			MessageID:      conversation.CanonicalID(msg.ID),
			Role:           string(msg.Role),
			Content:        content,
			SequenceNumber: int32(i), // #nosec G115 -- loop index bounded by slice length
		}); err != nil {
			return fmt.Errorf("upsert message %d: %w", i, err)
		}
	}

	if err := q.TouchSession(ctx, sessionID, int32(len(msgs))); err != nil { // #nosec G115
		return err
	}
	return nil
}

// LoadMessages retrieves the persisted snapshot in sequence order.
// Malformed rows are skipped with a warning rather than failing the whole
// load: one bad row must not make a session unopenable.
func (s *Store) LoadMessages(ctx context.Context, sessionID uuid.UUID) ([]conversation.Message, error) {
	rows, err := s.querier.GetMessages(ctx, sessionID, NormalizeHistoryLimit(s.historyLimit))
	if err != nil {
		return nil, fmt.Errorf("load messages for %s: %w", sessionID, err)
	}

	msgs := make([]conversation.Message, 0, len(rows))
	for _, row := range rows {
		var parts []conversation.Part
		if err := json.Unmarshal(row.Content, &parts); err != nil {
			s.logger.Warn("skipping malformed message row",
				"session_id", sessionID, "message_id", row.MessageID, "error", err)
			continue
		}
		msgs = append(msgs, conversation.Message{
			ID:     row.MessageID,
			Role:   conversation.Role(row.Role),
			Parts:  parts,
			Origin: conversation.OriginHistorical,
		})
	}
	return msgs, nil
}

func rowToSession(row sessionRow) *Session {
	sess := &Session{
		ID:           row.ID,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		MessageCount: int(row.MessageCount),
	}
	if row.Title != nil {
		sess.Title = *row.Title
	}
	return sess
}

func errorsIsTxClosed(err error) bool {
	return errors.Is(err, pgx.ErrTxClosed)
}
