package tui

import (
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
)

// keyMap holds key bindings for help bar display.
type keyMap struct {
	Submit     key.Binding
	NewLine    key.Binding
	History    key.Binding
	Cancel     key.Binding
	Quit       key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	EscStop    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		NewLine:    key.NewBinding(key.WithKeys("shift+enter"), key.WithHelp("s+enter", "newline")),
		History:    key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "history")),
		Cancel:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "cancel")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "exit")),
		ScrollUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		ScrollDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		EscStop:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "stop")),
	}
}

//nolint:gocyclo // keyboard handler requires branching for all key combinations
func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	k := msg.Key()

	if k.Mod&tea.ModCtrl != 0 {
		switch k.Code {
		case 'c':
			return m.handleCtrlC()
		case 'd':
			return m, m.cleanup()
		}
	}

	switch k.Code {
	case tea.KeyEnter:
		// Enter submits; Shift+Enter falls through to the textarea as a
		// newline.
		if k.Mod&tea.ModShift == 0 {
			return m.handleSubmit()
		}

	case tea.KeyEscape:
		if m.scroll.Streaming() {
			m.stopStream()
			return m, nil
		}

	case tea.KeyUp:
		if m.input.Line() == 0 {
			return m.navigateHistory(-1)
		}

	case tea.KeyDown:
		if m.input.Line() == m.input.LineCount()-1 {
			return m.navigateHistory(1)
		}

	case tea.KeyPgUp:
		m.viewport.PageUp()
		m.scroll.ObserveScroll(m.distanceFromBottom())
		return m, nil

	case tea.KeyPgDown:
		m.viewport.PageDown()
		m.scroll.ObserveScroll(m.distanceFromBottom())
		return m, nil
	}

	// Everything else types into the textarea - including while a
	// response streams, so the next message can be prepared early.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleCtrlC() (tea.Model, tea.Cmd) {
	now := time.Now()

	// Double Ctrl+C within 1 second quits.
	if now.Sub(m.lastCtrlC) < time.Second {
		return m, m.cleanup()
	}
	m.lastCtrlC = now

	if m.scroll.Streaming() {
		m.stopStream()
		return m, nil
	}

	m.input.Reset()
	return m, nil
}

// stopStream is the user-initiated stop: the canonical sequence stays
// exactly as last received, and streaming ends on this same event.
func (m *Model) stopStream() {
	m.client.Stop()
	m.scroll.SetStreaming(false)
	m.followTicking = false
	m.notice = "(stopped)"
	m.rebuildViewportContent()
}

func (m *Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	if strings.HasPrefix(text, "/") {
		return m.handleSlashCommand(text)
	}

	m.history = append(m.history, text)
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
	m.historyIdx = len(m.history)

	m.input.Reset()
	m.notice = ""

	if err := m.client.Send(text); err != nil {
		m.logger.Warn("send failed", "error", err)
		m.notice = "send failed: " + err.Error()
		m.rebuildViewportContent()
		return m, nil
	}

	// The user's own message scrolls to the top of the viewport once,
	// distinct from bottom anchoring.
	m.scroll.NoteUserMessage()

	cmd := m.refresh()
	m.rebuildViewportContent()
	m.applyPinOrFollow()

	return m, tea.Batch(m.spinner.Tick, cmd)
}

func (m *Model) navigateHistory(delta int) (tea.Model, tea.Cmd) {
	if len(m.history) == 0 {
		return m, nil
	}

	m.historyIdx += delta
	if m.historyIdx < 0 {
		m.historyIdx = 0
	}
	if m.historyIdx > len(m.history) {
		m.historyIdx = len(m.history)
	}

	if m.historyIdx == len(m.history) {
		m.input.SetValue("")
	} else {
		m.input.SetValue(m.history[m.historyIdx])
		m.input.CursorEnd()
	}
	return m, nil
}

// cleanup flushes the active session and quits. Deactivate performs the
// immediate unfiltered flush, so quitting mid-stream never drops a
// completed exchange.
func (m *Model) cleanup() tea.Cmd {
	if err := m.engine.Deactivate(m.ctx); err != nil {
		m.logger.Warn("flush on exit failed", "error", err)
	}
	_ = m.client.Close()

	if m.ctxCancel != nil {
		m.ctxCancel()
		m.ctxCancel = nil
	}
	return tea.Quit
}
