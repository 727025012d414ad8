// Package persist schedules debounced writes of the canonical message
// sequence to the session store.
//
// The scheduler is a plain state machine with no timers of its own. The
// UI owns the actual countdown (a tea.Tick in practice) and hands the
// generation number back when it fires; the scheduler decides whether
// that fire is still current. This keeps cancellation and re-arming fully
// testable without fake clocks, and makes a leaked timer harmless: a
// stale generation simply no-ops.
package persist

import (
	"log/slog"
	"time"

	"github.com/marislab/maris/internal/conversation"
)

// DebounceDelay is the quiet period after a qualifying mutation before a
// write fires. Bursts of mutations within the window collapse into one
// write carrying the latest snapshot.
const DebounceDelay = 500 * time.Millisecond

// State of the per-session write scheduler.
type State int

// Scheduler states: Idle -> Scheduled -> Idle.
const (
	StateIdle State = iota
	StateScheduled
)

// Scheduler debounces persistence of one session's message sequence.
// Create one per activated session; Reset on session switch.
//
// Not safe for concurrent use - it lives on the UI event loop.
type Scheduler struct {
	logger *slog.Logger

	state     State
	gen       uint64
	lastCount int
	snapshot  []conversation.Message
}

// NewScheduler creates an idle scheduler.
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{logger: logger}
}

// State returns the current scheduler state.
func (s *Scheduler) State() State {
	return s.state
}

// Observe records the canonical sequence after a mutation. The snapshot is
// always retained (it is what Flush returns), but a debounce window is
// armed only when the message count changed: intra-message streaming edits
// do not re-trigger scheduling, only the arrival of a new message does.
//
// When armed it returns the new generation and true; the caller starts a
// DebounceDelay timer and calls Fire with that generation. Arming while
// already Scheduled supersedes the previous window - the old generation
// becomes stale and its fire is ignored, which is the debounce (latest
// snapshot wins, earlier timers are dead on arrival).
func (s *Scheduler) Observe(msgs []conversation.Message) (uint64, bool) {
	s.snapshot = append(s.snapshot[:0], msgs...)

	if len(msgs) == s.lastCount {
		return 0, false
	}
	s.lastCount = len(msgs)

	s.gen++
	s.state = StateScheduled
	s.logger.Debug("write scheduled", "count", len(msgs), "gen", s.gen)
	return s.gen, true
}

// Fire resolves a debounce timer. It returns the filtered snapshot to
// write and true only when gen is the current generation and the machine
// is still Scheduled; stale or cancelled timers get (nil, false).
//
// Filtering: user messages are always eligible; assistant messages only
// once their derived text content is non-empty, which keeps a
// still-streaming, content-less assistant message out of the store. An
// empty filtered set means no write at all.
func (s *Scheduler) Fire(gen uint64) ([]conversation.Message, bool) {
	if s.state != StateScheduled || gen != s.gen {
		return nil, false
	}
	s.state = StateIdle

	eligible := Eligible(s.snapshot)
	if len(eligible) == 0 {
		return nil, false
	}
	return eligible, true
}

// Flush cancels any pending window and returns the last observed snapshot
// unfiltered, for the immediate write on session switch or teardown. The
// unfiltered snapshot is deliberate: navigating away mid-stream must never
// silently drop a completed exchange.
func (s *Scheduler) Flush() []conversation.Message {
	s.state = StateIdle
	s.gen++ // any in-flight timer is now stale

	if len(s.snapshot) == 0 {
		return nil
	}
	out := make([]conversation.Message, len(s.snapshot))
	copy(out, s.snapshot)
	return out
}

// Reset returns the scheduler to its initial state for a new session:
// change detection back to zero, snapshot dropped, pending window dead.
func (s *Scheduler) Reset() {
	s.state = StateIdle
	s.gen++
	s.lastCount = 0
	s.snapshot = nil
}

// Eligible filters a snapshot down to the messages worth persisting.
func Eligible(msgs []conversation.Message) []conversation.Message {
	var out []conversation.Message
	for _, m := range msgs {
		if m.Role == conversation.RoleAssistant && m.TextContent() == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}
