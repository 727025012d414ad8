// Package transport implements the live message channel to the agent
// backend over WebSocket.
//
// The wire protocol is an external contract owned by the backend: the
// client translates incoming events into mutations of its live message
// list and never invents message identity of its own. Once the live list
// is non-empty it is authoritative for the session.
package transport

import (
	"github.com/marislab/maris/internal/conversation"
)

// Wire event types, backend to client.
const (
	wireMessageStart   = "message-start"
	wireTextDelta      = "text-delta"
	wireReasoningDelta = "reasoning-delta"
	wireToolUpdate     = "tool-update"
	wireFinish         = "finish"
	wireError          = "error"
)

// Wire event types, client to backend.
const (
	wireSend = "send"
	wireStop = "stop"
)

// Wire tool invocation states. Fixed external contract; mapped onto the
// conversation package's states on arrival.
const (
	wireStateInputStreaming  = "input-streaming"
	wireStateInputAvailable  = "input-available"
	wireStateOutputAvailable = "output-available"
	wireStateError           = "error"
)

// wireEvent is the single frame shape for both directions. Exactly the
// fields for its Type are set.
type wireEvent struct {
	Type string `json:"type"`

	// Message addressing.
	MessageID string `json:"messageId,omitempty"`
	Role      string `json:"role,omitempty"`

	// Streaming deltas.
	Delta string `json:"delta,omitempty"`

	// Tool updates.
	ToolCallID string         `json:"toolCallId,omitempty"`
	ToolName   string         `json:"toolName,omitempty"`
	State      string         `json:"state,omitempty"`
	Input      map[string]any `json:"input,omitempty"`
	Output     string         `json:"output,omitempty"`
	MediaType  string         `json:"mediaType,omitempty"`
	ErrorText  string         `json:"errorText,omitempty"`

	// Client to backend.
	Text string `json:"text,omitempty"`
}

// mapWireState converts a wire tool state to the conversation model.
// Unknown states degrade to pending-input rather than failing: the
// classifier treats any state as valid input anyway.
func mapWireState(state string) conversation.ToolState {
	switch state {
	case wireStateInputStreaming:
		return conversation.ToolStatePendingInput
	case wireStateInputAvailable:
		return conversation.ToolStateInputReady
	case wireStateOutputAvailable:
		return conversation.ToolStateOutputAvailable
	case wireStateError:
		return conversation.ToolStateError
	default:
		return conversation.ToolStatePendingInput
	}
}
