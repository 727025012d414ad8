package tui

import (
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"github.com/marislab/maris/internal/conversation"
)

// Update implements tea.Model.
//
//nolint:gocognit,gocyclo // Bubble Tea Update requires a type switch on all message types
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		inputHeight := m.input.Height() + promptLines
		fixedHeight := separatorLines + inputHeight + helpLines
		vpHeight := max(msg.Height-fixedHeight, minViewport)

		m.viewport.SetWidth(msg.Width)
		m.viewport.SetHeight(vpHeight)
		m.input.SetWidth(msg.Width - 4) // room for "> " prompt
		m.help.SetWidth(msg.Width)
		m.markdown.UpdateWidth(msg.Width)

		m.rebuildViewportContent()
		return m, nil

	case tea.MouseWheelMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		// Manual scrolling feeds the arbiter; the hysteresis band decides
		// whether this counts as scroll intent.
		m.scroll.ObserveScroll(m.distanceFromBottom())
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.client.Status() != conversation.StatusIdle {
			m.rebuildViewportContent()
		}
		return m, cmd

	case transportEventMsg:
		return m.handleTransportEvent(msg)

	case transportClosedMsg:
		m.notice = "connection to agent lost"
		m.scroll.SetStreaming(false)
		m.rebuildViewportContent()
		return m, nil

	case saveTickMsg:
		// The scheduler decides whether this countdown is still current;
		// superseded or cancelled generations die here.
		snapshot, ok := m.sched.Fire(msg.gen)
		if !ok {
			return m, nil
		}
		return m, m.saveSnapshot(m.engine.ActiveID(), snapshot)

	case saveDoneMsg:
		if msg.err != nil {
			// Not retried at this layer; the store owns retry policy.
			m.logger.Warn("session save failed",
				"session_id", msg.sessionID, "count", msg.count, "error", msg.err)
			m.notice = "save failed: " + msg.err.Error()
			m.rebuildViewportContent()
		}
		return m, nil

	case followTickMsg:
		if !m.scroll.ShouldTick() {
			m.followTicking = false
			return m, nil
		}
		m.viewport.GotoBottom()
		return m, followTick()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleTransportEvent folds one transport notification into the engine:
// re-resolve the canonical sequence, feed the scheduler, settle scroll.
func (m *Model) handleTransportEvent(msg transportEventMsg) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{listenTransport(m.client.Events())}

	ev := msg.event
	switch {
	case ev.Err != nil:
		// Transport errors are surfaced, never retried, and the list
		// stays exactly as last received.
		m.logger.Warn("transport error", "error", ev.Err)
		m.notice = ev.Err.Error()
		m.scroll.SetStreaming(false)
		if cmd := m.refresh(); cmd != nil {
			cmds = append(cmds, cmd)
		}
		m.rebuildViewportContent()

	case ev.Finished:
		// Stream end: content may have changed without a count change, so
		// observe unconditionally (the snapshot must reflect final text
		// for eligibility filtering), then force the finished response
		// into view.
		if cmd := m.refresh(); cmd != nil {
			cmds = append(cmds, cmd)
		}
		m.scroll.SetStreaming(false)
		m.followTicking = false
		m.rebuildViewportContent()
		m.viewport.GotoBottom()

	case ev.Changed:
		if cmd := m.refresh(); cmd != nil {
			cmds = append(cmds, cmd)
		}
		if cmd := m.syncStreaming(); cmd != nil {
			cmds = append(cmds, cmd)
		}
		m.rebuildViewportContent()
		m.applyPinOrFollow()
	}

	return m, tea.Batch(cmds...)
}

// applyPinOrFollow settles the viewport after a rebuild: the one-shot
// "pin the just-sent user message to the top" wins over bottom anchoring,
// then normal follow arbitration applies.
func (m *Model) applyPinOrFollow() {
	if m.scroll.TakePin() && m.pinLine >= 0 {
		m.viewport.SetYOffset(m.pinLine)
		return
	}
	m.maybeFollow()
}
