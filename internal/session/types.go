package session

import (
	"time"

	"github.com/google/uuid"
)

// Session is the application-level session record.
type Session struct {
	ID           uuid.UUID
	Title        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
}

// Row types mirror the database schema. Message content is the
// conversation part list serialized as JSONB.

// sessionRow is one row of the sessions table.
type sessionRow struct {
	ID           uuid.UUID
	Title        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int32
}

// messageRow is one row of the session_messages table.
type messageRow struct {
	SessionID      uuid.UUID
	MessageID      string
	Role           string
	Content        []byte
	SequenceNumber int32
}
