package conversation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Status mirrors the transport's streaming state.
type Status string

// Transport statuses.
const (
	StatusIdle      Status = "idle"
	StatusSubmitted Status = "submitted"
	StatusStreaming Status = "streaming"
)

// Transport is the live message channel to the agent backend. The engine
// treats its message list as authoritative once non-empty.
//
// Interfaces are defined here, by the consumer; internal/transport provides
// the WebSocket implementation.
type Transport interface {
	// Send submits a user message. The transport appends it to its live
	// list before returning.
	Send(text string) error

	// Stop aborts an in-flight stream, leaving the live list exactly as
	// last received. No rollback.
	Stop()

	// ReplaceAll swaps the transport's entire live list. Used to seed
	// historical messages at session activation.
	ReplaceAll(msgs []Message)

	// Messages returns a snapshot of the live list.
	Messages() []Message

	// Status reports idle, submitted, or streaming.
	Status() Status
}

// Store persists session snapshots. Failures are the store's concern; the
// engine logs them and moves on.
type Store interface {
	SaveMessages(ctx context.Context, sessionID uuid.UUID, msgs []Message) error
	LoadMessages(ctx context.Context, sessionID uuid.UUID) ([]Message, error)
}

// PendingWrites is the slice of the persistence scheduler the lifecycle
// controller needs: cancel-and-drain on switch, reset for the new session.
type PendingWrites interface {
	// Flush cancels any pending debounce window and returns the last
	// observed snapshot, unfiltered.
	Flush() []Message

	// Reset clears change detection so the new session starts from zero.
	Reset()
}

// ScrollState is the slice of the scroll arbiter the controller resets on
// session switch.
type ScrollState interface {
	Reset()
}

// Controller owns the Inactive -> Active(sessionID) transition. It gates
// the merge resolver: Canonical only reflects the transport once a session
// is active, and a switch always flushes the outgoing session before the
// incoming one is seeded. That ordering - flush, reset, seed - is what
// prevents a stream chunk racing a session switch from being attributed to
// the wrong list.
//
// All state lives on the controller instance, created on activate and
// discarded on deactivate. Nothing here is ambient: a stale timer from a
// previous session has no path back into a live one.
type Controller struct {
	transport Transport
	store     Store
	writes    PendingWrites
	scroll    ScrollState
	logger    *slog.Logger

	active     uuid.UUID
	historical []Message
}

// NewController wires the lifecycle controller. All dependencies are
// required except scroll, which may be nil in headless tests.
func NewController(transport Transport, store Store, writes PendingWrites, scroll ScrollState, logger *slog.Logger) (*Controller, error) {
	if transport == nil {
		return nil, fmt.Errorf("conversation.NewController: transport is required")
	}
	if store == nil {
		return nil, fmt.Errorf("conversation.NewController: store is required")
	}
	if writes == nil {
		return nil, fmt.Errorf("conversation.NewController: pending writes is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		transport: transport,
		store:     store,
		writes:    writes,
		scroll:    scroll,
		logger:    logger,
	}, nil
}

// ActiveID returns the active session ID, or uuid.Nil when inactive.
func (c *Controller) ActiveID() uuid.UUID {
	return c.active
}

// Canonical resolves the current canonical message sequence.
func (c *Controller) Canonical() []Message {
	if c.active == uuid.Nil {
		return nil
	}
	return Resolve(c.transport.Messages(), c.historical)
}

// Activate switches the engine to sessionID. Re-activation with the same
// ID is a no-op. For a new ID, in order:
//
//  1. flush the outgoing session's last snapshot (immediate, unfiltered)
//  2. reset the scheduler's change detection
//  3. seed the new session's history into the transport, or clear it
//  4. reset scroll arbitration
//
// A failed flush or history load is logged and returned, but activation
// still completes: the worst case is a missed write or an empty history,
// never a stuck switch.
func (c *Controller) Activate(ctx context.Context, sessionID uuid.UUID) error {
	if sessionID == uuid.Nil {
		return fmt.Errorf("conversation: activate: session ID is required")
	}
	if sessionID == c.active {
		return nil
	}

	var firstErr error

	if c.active != uuid.Nil {
		if snapshot := c.writes.Flush(); len(snapshot) > 0 {
			if err := c.store.SaveMessages(ctx, c.active, snapshot); err != nil {
				c.logger.Warn("flush on session switch failed",
					"session_id", c.active, "count", len(snapshot), "error", err)
				firstErr = fmt.Errorf("flush session %s: %w", c.active, err)
			}
		}
	}

	c.writes.Reset()

	history, err := c.store.LoadMessages(ctx, sessionID)
	if err != nil {
		c.logger.Warn("history load failed, starting empty",
			"session_id", sessionID, "error", err)
		if firstErr == nil {
			firstErr = fmt.Errorf("load session %s: %w", sessionID, err)
		}
		history = nil
	}

	seed := AsHistorical(history)
	c.historical = seed
	c.transport.ReplaceAll(seed)

	if c.scroll != nil {
		c.scroll.Reset()
	}

	c.active = sessionID
	c.logger.Debug("session activated", "session_id", sessionID, "history", len(seed))
	return firstErr
}

// Deactivate flushes and forgets the active session. Idempotent; safe to
// call on teardown regardless of state.
func (c *Controller) Deactivate(ctx context.Context) error {
	if c.active == uuid.Nil {
		return nil
	}

	var err error
	if snapshot := c.writes.Flush(); len(snapshot) > 0 {
		if saveErr := c.store.SaveMessages(ctx, c.active, snapshot); saveErr != nil {
			c.logger.Warn("flush on deactivate failed",
				"session_id", c.active, "error", saveErr)
			err = fmt.Errorf("flush session %s: %w", c.active, saveErr)
		}
	}

	c.writes.Reset()
	c.historical = nil
	c.active = uuid.Nil
	return err
}
