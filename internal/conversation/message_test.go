package conversation

import (
	"testing"
)

func TestTextContent(t *testing.T) {
	tests := []struct {
		name  string
		parts []Part
		want  string
	}{
		{"no parts", nil, ""},
		{"single text", []Part{NewTextPart("hello")}, "hello"},
		{"concatenates text parts", []Part{NewTextPart("a"), NewTextPart("b")}, "ab"},
		{
			"reasoning does not contribute",
			[]Part{NewReasoningPart("thinking..."), NewTextPart("answer")},
			"answer",
		},
		{
			"only reasoning derives empty",
			[]Part{NewReasoningPart("thinking...")},
			"",
		},
		{
			"tool parts do not contribute",
			[]Part{NewToolPart("c1", "grep", ToolStateOutputAvailable), NewTextPart("done")},
			"done",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Message{Parts: tt.parts}
			if got := m.TextContent(); got != tt.want {
				t.Errorf("TextContent() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToolParts_PreservesOrder(t *testing.T) {
	m := Message{Parts: []Part{
		NewToolPart("c1", "grep", ToolStateOutputAvailable),
		NewTextPart("text"),
		NewToolPart("c2", "read_file", ToolStatePendingInput),
	}}

	got := m.ToolParts()
	if len(got) != 2 {
		t.Fatalf("expected 2 tool parts, got %d", len(got))
	}
	if got[0].ToolCallID != "c1" || got[1].ToolCallID != "c2" {
		t.Errorf("order = %s, %s; want c1, c2", got[0].ToolCallID, got[1].ToolCallID)
	}
}

func TestIsHistorical(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want bool
	}{
		{"live", Message{ID: "a", Origin: OriginLive}, false},
		{"historical origin", Message{ID: "a", Origin: OriginHistorical}, true},
		{"loaded prefix", Message{ID: "loaded-a"}, true},
		{"untagged", Message{ID: "a"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.IsHistorical(); got != tt.want {
				t.Errorf("IsHistorical() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanonicalID(t *testing.T) {
	if got := CanonicalID("loaded-abc"); got != "abc" {
		t.Errorf("CanonicalID(loaded-abc) = %q, want abc", got)
	}
	if got := CanonicalID("abc"); got != "abc" {
		t.Errorf("CanonicalID(abc) = %q, want abc", got)
	}
}

func TestAsHistorical(t *testing.T) {
	msgs := []Message{
		{ID: "a", Origin: OriginLive},
		{ID: "loaded-b", Origin: OriginHistorical},
	}

	got := AsHistorical(msgs)

	if got[0].ID != "loaded-a" {
		t.Errorf("ID = %q, want loaded-a", got[0].ID)
	}
	if got[0].Origin != OriginHistorical {
		t.Errorf("origin = %q, want historical", got[0].Origin)
	}
	if got[1].ID != "loaded-b" {
		t.Errorf("already-prefixed ID = %q, want loaded-b unchanged", got[1].ID)
	}

	// Inputs stay untouched.
	if msgs[0].ID != "a" {
		t.Errorf("input mutated: ID = %q", msgs[0].ID)
	}
}

func TestAsHistorical_Empty(t *testing.T) {
	if got := AsHistorical(nil); got != nil {
		t.Errorf("AsHistorical(nil) = %v, want nil", got)
	}
}

func TestClone_IsolatesPartsAndInput(t *testing.T) {
	orig := Message{
		ID:   "m1",
		Role: RoleAssistant,
		Parts: []Part{
			{Kind: PartText, Text: "hello"},
			{
				Kind:       PartToolInvocation,
				ToolCallID: "c1",
				State:      ToolStatePendingInput,
				Input:      map[string]any{"path": "main.go"},
			},
		},
	}

	clone := orig.Clone()

	// Streaming mutates the original in place; the clone must not move.
	orig.Parts[0].Text += " world"
	orig.Parts[1].State = ToolStateOutputAvailable
	orig.Parts[1].Input["path"] = "other.go"
	orig.Parts = append(orig.Parts, Part{Kind: PartText, Text: "more"})

	if got := clone.TextContent(); got != "hello" {
		t.Errorf("clone text = %q, want %q", got, "hello")
	}
	if clone.Parts[1].State != ToolStatePendingInput {
		t.Errorf("clone tool state = %q, want pending-input", clone.Parts[1].State)
	}
	if got := clone.Parts[1].Input["path"]; got != "main.go" {
		t.Errorf("clone input path = %v, want main.go", got)
	}
	if len(clone.Parts) != 2 {
		t.Errorf("clone has %d parts, want 2", len(clone.Parts))
	}
}

func TestClone_NilParts(t *testing.T) {
	clone := Message{ID: "m1"}.Clone()
	if clone.Parts != nil {
		t.Errorf("clone parts = %v, want nil", clone.Parts)
	}
}

func TestCloneMessages(t *testing.T) {
	if got := CloneMessages(nil); got != nil {
		t.Errorf("CloneMessages(nil) = %v, want nil", got)
	}

	msgs := []Message{{ID: "a", Parts: []Part{{Kind: PartText, Text: "x"}}}}
	clone := CloneMessages(msgs)
	msgs[0].Parts[0].Text = "tampered"
	if clone[0].TextContent() != "x" {
		t.Error("CloneMessages must deep-copy parts")
	}
}
