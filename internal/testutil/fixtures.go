package testutil

import (
	"github.com/marislab/maris/internal/conversation"
)

// UserMessage builds a live user message with a single text part.
func UserMessage(id, text string) conversation.Message {
	return conversation.Message{
		ID:     id,
		Role:   conversation.RoleUser,
		Parts:  []conversation.Part{conversation.NewTextPart(text)},
		Origin: conversation.OriginLive,
	}
}

// AssistantMessage builds a live assistant message from parts.
func AssistantMessage(id string, parts ...conversation.Part) conversation.Message {
	return conversation.Message{
		ID:     id,
		Role:   conversation.RoleAssistant,
		Parts:  parts,
		Origin: conversation.OriginLive,
	}
}

// ToolPart builds a tool invocation part in the given state.
func ToolPart(callID, toolName string, state conversation.ToolState, input map[string]any) conversation.Part {
	p := conversation.NewToolPart(callID, toolName, state)
	p.Input = input
	return p
}
