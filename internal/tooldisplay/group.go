package tooldisplay

import (
	"github.com/marislab/maris/internal/conversation"
)

// Item pairs a tool invocation part with its classification.
type Item struct {
	Part conversation.Part
	Info Info
}

// Group is one category section of an assistant message's tool activity.
// Derived fresh on every render pass, never mutated in place.
type Group struct {
	Category Category
	Items    []Item

	// IsComplete holds only while every item has produced output.
	IsComplete bool

	// HasError is set by any erroring item and stays set for the whole
	// group within this pass, even when later items succeed. Because the
	// grouping is recomputed from scratch each pass, it clears naturally
	// once no erroring item remains in the input.
	HasError bool
}

// BuildGroups aggregates the tool parts of one assistant message into
// ordered category groups. Categories appear in first-seen order - the
// input's arrival order decides the section order, never alphabetization.
// Non-tool parts are skipped. Running it twice on the same input yields
// identical output.
func BuildGroups(parts []conversation.Part) []Group {
	var groups []Group
	index := make(map[Category]int)

	for _, p := range parts {
		if p.Kind != conversation.PartToolInvocation {
			continue
		}

		info := Classify(p.ToolName, p.Input)

		i, ok := index[info.Category]
		if !ok {
			i = len(groups)
			index[info.Category] = i
			groups = append(groups, Group{Category: info.Category, IsComplete: true})
		}

		g := &groups[i]
		g.Items = append(g.Items, Item{Part: p, Info: info})
		if p.State != conversation.ToolStateOutputAvailable {
			g.IsComplete = false
		}
		if p.State == conversation.ToolStateError {
			g.HasError = true
		}
	}

	return groups
}

// Title returns the section header for a category.
func (c Category) Title() string {
	switch c {
	case CategoryExplore:
		return "Explored"
	case CategorySearch:
		return "Searched"
	case CategoryBrowser:
		return "Browser"
	case CategoryTerminal:
		return "Terminal"
	default:
		return "Actions"
	}
}
