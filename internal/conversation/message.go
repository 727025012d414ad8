// Package conversation holds the canonical message model shared by the
// transport, the persistence layer, and the terminal UI, plus the logic
// that reconciles live and historical message lists for one session.
//
// Responsibilities: message/part data model, live-vs-historical merge
// resolution, and the session lifecycle controller that gates both.
// Thread Safety: all mutation happens on the UI event loop - callers must
// not share a Controller across goroutines.
package conversation

import (
	"maps"
	"strings"
)

// Role identifies the author of a message.
type Role string

// Valid message roles. A message's role never changes after creation.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Origin records whether a message arrived over the live transport or was
// seeded from the session store.
type Origin string

// Message origins. Historical messages skip entry animation in the UI and
// never trigger autoscroll on their own.
const (
	OriginLive       Origin = "live"
	OriginHistorical Origin = "historical"
)

// HistoricalIDPrefix marks message IDs seeded from the store. The merge
// resolver uses it to tag entries as historical once the transport has
// taken ownership of the list.
const HistoricalIDPrefix = "loaded-"

// PartKind discriminates the Part tagged union.
type PartKind string

// Valid part kinds. Parts with an unknown kind are ignored, not coerced.
const (
	PartText           PartKind = "text"
	PartReasoning      PartKind = "reasoning"
	PartToolInvocation PartKind = "tool-invocation"
)

// ToolState describes the lifecycle of one tool invocation.
//
// The transport normally progresses pending-input -> input-ready ->
// output-available, with error possible at any point. Consumers must treat
// any state as valid input: a tool can jump from input-ready straight to
// error without an intermediate output.
type ToolState string

// Tool invocation states.
const (
	ToolStatePendingInput    ToolState = "pending-input"
	ToolStateInputReady      ToolState = "input-ready"
	ToolStateOutputAvailable ToolState = "output-available"
	ToolStateError           ToolState = "error"
)

// Part is one element of a message body. It is a closed tagged union:
// exactly the fields for its Kind are meaningful, everything else is zero.
// Serialized as JSONB when a message is persisted.
type Part struct {
	Kind PartKind `json:"kind"`

	// Text content for PartText and PartReasoning.
	Text string `json:"text,omitempty"`

	// Tool invocation fields for PartToolInvocation.
	ToolCallID string         `json:"toolCallId,omitempty"`
	ToolName   string         `json:"toolName,omitempty"`
	State      ToolState      `json:"state,omitempty"`
	Input      map[string]any `json:"input,omitempty"`
	Output     string         `json:"output,omitempty"`
	ErrorText  string         `json:"errorText,omitempty"`
}

// NewTextPart creates a text part.
func NewTextPart(content string) Part {
	return Part{Kind: PartText, Text: content}
}

// NewReasoningPart creates a reasoning ("thinking") part.
func NewReasoningPart(content string) Part {
	return Part{Kind: PartReasoning, Text: content}
}

// NewToolPart creates a tool invocation part in its initial state.
func NewToolPart(callID, toolName string, state ToolState) Part {
	return Part{
		Kind:       PartToolInvocation,
		ToolCallID: callID,
		ToolName:   toolName,
		State:      state,
	}
}

// Message is one entry of the canonical conversation sequence.
// ID is unique within a session; Role is immutable after creation.
type Message struct {
	ID     string `json:"id"`
	Role   Role   `json:"role"`
	Parts  []Part `json:"parts"`
	Origin Origin `json:"origin"`
}

// TextContent derives the displayable text of a message by concatenating
// its text parts. Reasoning and tool parts do not contribute: a streaming
// assistant message that has only emitted thinking so far derives to "".
func (m Message) TextContent() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if p.Kind == PartText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// Clone returns a deep copy: the Parts slice and each part's Input map are
// duplicated, so mutating the original afterwards cannot reach the copy.
// A snapshot crossing a goroutine boundary must be a Clone, not a struct
// copy - the Parts slice header aliases the producer's backing array.
func (m Message) Clone() Message {
	out := m
	if m.Parts == nil {
		return out
	}
	out.Parts = make([]Part, len(m.Parts))
	for i, p := range m.Parts {
		p.Input = maps.Clone(p.Input)
		out.Parts[i] = p
	}
	return out
}

// CloneMessages deep-copies a message list. Nil in, nil out.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}

// ToolParts returns the tool invocation parts in arrival order.
func (m Message) ToolParts() []Part {
	var parts []Part
	for _, p := range m.Parts {
		if p.Kind == PartToolInvocation {
			parts = append(parts, p)
		}
	}
	return parts
}

// IsHistorical reports whether the message was seeded from the store,
// either by explicit origin or by the loaded- ID convention.
func (m Message) IsHistorical() bool {
	return m.Origin == OriginHistorical || strings.HasPrefix(m.ID, HistoricalIDPrefix)
}

// CanonicalID strips the loaded- prefix so a reseeded message persists
// under the same identity it was stored with.
func CanonicalID(id string) string {
	return strings.TrimPrefix(id, HistoricalIDPrefix)
}

// AsHistorical returns a copy of msgs tagged historical, with IDs rewritten
// to carry the loaded- prefix. Used when seeding a session's history into
// the transport at activation.
func AsHistorical(msgs []Message) []Message {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		m.Origin = OriginHistorical
		if !strings.HasPrefix(m.ID, HistoricalIDPrefix) {
			m.ID = HistoricalIDPrefix + m.ID
		}
		out[i] = m
	}
	return out
}
