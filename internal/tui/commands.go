package tui

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"

	"github.com/marislab/maris/internal/conversation"
	"github.com/marislab/maris/internal/persist"
	"github.com/marislab/maris/internal/scroll"
	"github.com/marislab/maris/internal/transport"
)

// Bubble Tea message types for the engine's asynchronous sources.

// transportEventMsg carries one transport notification.
type transportEventMsg struct {
	event transport.Event
}

// transportClosedMsg signals the event channel closed: the connection to
// the backend is gone.
type transportClosedMsg struct{}

// saveTickMsg is the debounce countdown firing. The generation number lets
// the scheduler ignore countdowns that were superseded by a later
// mutation; a stale timer is harmless by construction.
type saveTickMsg struct {
	gen uint64
}

// saveDoneMsg reports the outcome of an asynchronous save.
type saveDoneMsg struct {
	sessionID uuid.UUID
	count     int
	err       error
}

// followTickMsg is the periodic scroll-to-bottom tick while streaming.
type followTickMsg struct{}

// listenTransport waits for the next transport event. Re-armed after each
// message, like any Bubble Tea subscription.
func listenTransport(events <-chan transport.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return transportClosedMsg{}
		}
		return transportEventMsg{event: ev}
	}
}

// debounceTick starts the persistence countdown for one generation.
func debounceTick(gen uint64) tea.Cmd {
	return tea.Tick(persist.DebounceDelay, func(time.Time) tea.Msg {
		return saveTickMsg{gen: gen}
	})
}

// followTick schedules the next autoscroll tick. Streaming growth from
// incrementally rendered markdown outruns mutation-driven scrolling, so
// follow mode re-anchors on a fixed cadence instead.
func followTick() tea.Cmd {
	return tea.Tick(scroll.TickInterval, func(time.Time) tea.Msg {
		return followTickMsg{}
	})
}

// saveSnapshot persists a filtered snapshot off the event loop. The store
// is safe for concurrent use; the scheduler has already resolved which
// snapshot wins.
func (m *Model) saveSnapshot(sessionID uuid.UUID, msgs []conversation.Message) tea.Cmd {
	ctx := m.ctx
	store := m.store
	return func() tea.Msg {
		saveCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		err := store.SaveMessages(saveCtx, sessionID, msgs)
		return saveDoneMsg{sessionID: sessionID, count: len(msgs), err: err}
	}
}
