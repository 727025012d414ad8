package conversation

import (
	"testing"
)

func userMsg(id, text string) Message {
	return Message{ID: id, Role: RoleUser, Parts: []Part{NewTextPart(text)}}
}

func assistantMsg(id, text string) Message {
	return Message{ID: id, Role: RoleAssistant, Parts: []Part{NewTextPart(text)}}
}

func TestResolve_EmptyLiveUsesHistorical(t *testing.T) {
	historical := []Message{userMsg("a", "hi"), assistantMsg("b", "hello")}

	got := Resolve(nil, historical)

	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	for _, m := range got {
		if m.Origin != OriginHistorical {
			t.Errorf("message %s: origin = %q, want historical", m.ID, m.Origin)
		}
	}
}

func TestResolve_LiveReplacesHistoricalWholesale(t *testing.T) {
	live := []Message{userMsg("x", "new question")}
	historical := []Message{userMsg("a", "old"), assistantMsg("b", "older")}

	got := Resolve(live, historical)

	if len(got) != 1 {
		t.Fatalf("expected live list to win, got %d messages", len(got))
	}
	if got[0].ID != "x" {
		t.Errorf("ID = %q, want x", got[0].ID)
	}
	if got[0].Origin != OriginLive {
		t.Errorf("origin = %q, want live", got[0].Origin)
	}
}

func TestResolve_LoadedPrefixTagsHistorical(t *testing.T) {
	live := []Message{
		{ID: "loaded-a", Role: RoleUser, Parts: []Part{NewTextPart("old")}},
		userMsg("x", "new"),
	}

	got := Resolve(live, nil)

	if got[0].Origin != OriginHistorical {
		t.Errorf("loaded- message origin = %q, want historical", got[0].Origin)
	}
	if got[1].Origin != OriginLive {
		t.Errorf("live message origin = %q, want live", got[1].Origin)
	}
}

func TestResolve_BothEmpty(t *testing.T) {
	if got := Resolve(nil, nil); len(got) != 0 {
		t.Errorf("expected empty sequence, got %d messages", len(got))
	}
}

func TestResolve_DoesNotMutateInputs(t *testing.T) {
	live := []Message{{ID: "loaded-a", Role: RoleUser}}
	Resolve(live, nil)
	if live[0].Origin != "" {
		t.Errorf("input slice mutated: origin = %q", live[0].Origin)
	}
}

func TestAllHistorical(t *testing.T) {
	tests := []struct {
		name string
		msgs []Message
		want bool
	}{
		{"empty", nil, false},
		{"all historical", []Message{{Origin: OriginHistorical}, {Origin: OriginHistorical}}, true},
		{"mixed", []Message{{Origin: OriginHistorical}, {Origin: OriginLive}}, false},
		{"all live", []Message{{Origin: OriginLive}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AllHistorical(tt.msgs); got != tt.want {
				t.Errorf("AllHistorical() = %v, want %v", got, tt.want)
			}
		})
	}
}
