// Package scroll arbitrates autoscroll against user scroll intent while a
// response streams in.
//
// The arbiter is pure state: the UI feeds it scroll positions and
// streaming transitions, and asks it whether to follow the bottom. It
// never touches the viewport itself.
package scroll

import "time"

// Hysteresis band for the scrolled-up flag. The two thresholds are
// deliberately asymmetric: a user leaves follow mode only after scrolling
// well away from the bottom, and re-enters it only when practically at the
// bottom again. A single threshold would oscillate when layout growth
// keeps moving the boundary under the scroll position.
const (
	// ReengageThreshold is the distance from the bottom, in rendered rows,
	// below which a scrolled-up user snaps back into follow mode. Tight,
	// so an accidental nudge near the bottom does not re-engage.
	ReengageThreshold = 20

	// DisengageThreshold is the distance above which follow mode is
	// abandoned. Wide, so minor viewport jitter during streaming does not
	// count as scroll intent.
	DisengageThreshold = 100
)

// TickInterval is the cadence of the follow tick while streaming. A single
// mutation-driven scroll misses growth from incrementally rendered
// markdown, so follow mode re-issues scroll-to-bottom on this period.
const TickInterval = 300 * time.Millisecond

// Arbiter decides, for every message-list mutation and streaming tick,
// whether the viewport follows the bottom or respects the user's manual
// scroll position.
//
// Not safe for concurrent use - it lives on the UI event loop.
type Arbiter struct {
	userScrolledUp bool
	streaming      bool
	pinUserMessage bool
}

// NewArbiter returns an arbiter in follow mode.
func NewArbiter() *Arbiter {
	return &Arbiter{}
}

// ObserveScroll applies the hysteresis band to a new scroll position,
// expressed as distance from the bottom in rendered rows.
func (a *Arbiter) ObserveScroll(distanceFromBottom int) {
	if a.userScrolledUp {
		if distanceFromBottom < ReengageThreshold {
			a.userScrolledUp = false
		}
		return
	}
	if distanceFromBottom > DisengageThreshold {
		a.userScrolledUp = true
	}
}

// SetStreaming records streaming transitions. The end of a stream forces
// follow mode back on: a finished response always becomes fully visible
// once, regardless of where the user had scrolled.
func (a *Arbiter) SetStreaming(streaming bool) {
	if a.streaming && !streaming {
		a.userScrolledUp = false
	}
	a.streaming = streaming
}

// Streaming reports whether a stream is in flight.
func (a *Arbiter) Streaming() bool {
	return a.streaming
}

// UserScrolledUp reports whether the user has manually scrolled away.
func (a *Arbiter) UserScrolledUp() bool {
	return a.userScrolledUp
}

// ShouldFollow decides whether a mutation or tick scrolls to the bottom.
// historicalOnly suppresses autoscroll when the sequence is entirely
// loaded messages, so the view never jumps on session load.
func (a *Arbiter) ShouldFollow(historicalOnly bool) bool {
	return !a.userScrolledUp && !historicalOnly
}

// ShouldTick reports whether the periodic follow tick should keep running.
func (a *Arbiter) ShouldTick() bool {
	return a.streaming && !a.userScrolledUp
}

// NoteUserMessage arms the one-shot "pin the just-sent user message to the
// top of the viewport" action, distinct from bottom-anchoring.
func (a *Arbiter) NoteUserMessage() {
	a.pinUserMessage = true
}

// TakePin consumes the one-shot pin action. Returns true at most once per
// NoteUserMessage.
func (a *Arbiter) TakePin() bool {
	pinned := a.pinUserMessage
	a.pinUserMessage = false
	return pinned
}

// Reset restores the initial state on session switch.
func (a *Arbiter) Reset() {
	a.userScrolledUp = false
	a.streaming = false
	a.pinUserMessage = false
}
