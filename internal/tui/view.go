package tui

import (
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/marislab/maris/internal/conversation"
	"github.com/marislab/maris/internal/tooldisplay"
)

// View implements tea.Model.
// Uses AltScreen with a viewport for scrollable message history.
func (m *Model) View() tea.View {
	m.viewBuf.Reset()

	_, _ = m.viewBuf.WriteString(m.viewport.View())
	_, _ = m.viewBuf.WriteString("\n")

	_, _ = m.viewBuf.WriteString(m.renderSeparator())
	_, _ = m.viewBuf.WriteString("\n")

	// Input is always focused; the next message can be typed while a
	// response streams.
	_, _ = m.viewBuf.WriteString(m.styles.Prompt.Render("> "))
	_, _ = m.viewBuf.WriteString(m.input.View())
	_, _ = m.viewBuf.WriteString("\n")

	_, _ = m.viewBuf.WriteString(m.renderSeparator())
	_, _ = m.viewBuf.WriteString("\n")

	if m.notice != "" {
		_, _ = m.viewBuf.WriteString(m.styles.Notice.Render(m.notice))
		_, _ = m.viewBuf.WriteString("\n")
	}
	_, _ = m.viewBuf.WriteString(m.renderStatusBar())

	v := tea.NewView(m.viewBuf.String())
	v.AltScreen = true
	return v
}

// rebuildViewportContent re-renders the canonical sequence into the
// viewport. Also records pinLine, the first viewport line of the most
// recent live user message, for the scroll-to-top pin.
func (m *Model) rebuildViewportContent() {
	var b strings.Builder

	_, _ = b.WriteString(m.styles.RenderBanner())
	_, _ = b.WriteString("\n")
	_, _ = b.WriteString(m.styles.RenderWelcomeTips())
	_, _ = b.WriteString("\n")

	m.pinLine = -1

	for _, msg := range m.canonical {
		switch msg.Role {
		case conversation.RoleUser:
			if !msg.IsHistorical() {
				m.pinLine = strings.Count(b.String(), "\n")
			}
			_, _ = b.WriteString(m.styles.User.Render("You> "))
			_, _ = b.WriteString(msg.TextContent())
			_, _ = b.WriteString("\n\n")

		case conversation.RoleAssistant:
			m.renderAssistant(&b, msg)
		}
	}

	status := m.client.Status()
	if status == conversation.StatusSubmitted {
		_, _ = b.WriteString(m.spinner.View())
		_, _ = b.WriteString(" Thinking...\n\n")
	}

	m.viewport.SetContent(b.String())
}

// renderAssistant writes one assistant message: tool activity grouped by
// category first, then reasoning, then the response text as Markdown.
func (m *Model) renderAssistant(b *strings.Builder, msg conversation.Message) {
	for _, g := range tooldisplay.BuildGroups(msg.Parts) {
		m.renderToolGroup(b, g)
	}

	for _, p := range msg.Parts {
		if p.Kind == conversation.PartReasoning && p.Text != "" {
			_, _ = b.WriteString(m.styles.Reasoning.Render(p.Text))
			_, _ = b.WriteString("\n\n")
		}
	}

	if text := msg.TextContent(); text != "" {
		_, _ = b.WriteString(m.styles.Assistant.Render("Maris> "))
		_, _ = b.WriteString(m.markdown.Render(text))
		_, _ = b.WriteString("\n\n")
	}
}

// renderToolGroup writes a category header plus one line per invocation.
// Incomplete groups show the spinner in the header; errored items keep
// their error marker even after later items succeed.
func (m *Model) renderToolGroup(b *strings.Builder, g tooldisplay.Group) {
	header := g.Category.Title()
	switch {
	case g.HasError:
		header = m.styles.ToolError.Render("✗ " + header)
	case !g.IsComplete:
		header = m.styles.ToolGroup.Render(header) + " " + m.spinner.View()
	default:
		header = m.styles.ToolGroup.Render(header)
	}
	_, _ = b.WriteString(header)
	_, _ = b.WriteString("\n")

	for _, item := range g.Items {
		line := "  " + item.Info.Icon + " " + item.Info.Label
		if item.Part.State == conversation.ToolStateError {
			_, _ = b.WriteString(m.styles.ToolError.Render(line))
		} else {
			_, _ = b.WriteString(m.styles.ToolItem.Render(line))
		}
		_, _ = b.WriteString("\n")
	}
	_, _ = b.WriteString("\n")
}

// renderSeparator returns a horizontal line separator.
func (m *Model) renderSeparator() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	return m.styles.Separator.Render(strings.Repeat("─", width))
}

// renderStatusBar returns state-appropriate keyboard shortcut help.
func (m *Model) renderStatusBar() string {
	var bindings []key.Binding
	if m.scroll.Streaming() {
		bindings = []key.Binding{
			m.keys.EscStop, m.keys.Cancel,
			m.keys.ScrollUp, m.keys.ScrollDown,
		}
	} else {
		bindings = []key.Binding{
			m.keys.Submit, m.keys.NewLine, m.keys.History,
			m.keys.Quit, m.keys.ScrollUp,
		}
	}
	return m.help.ShortHelpView(bindings)
}
