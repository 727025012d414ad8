package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"

	"github.com/marislab/maris/internal/session"
)

const commandTimeout = 10 * time.Second

func (m *Model) handleSlashCommand(text string) (tea.Model, tea.Cmd) {
	m.input.Reset()

	fields := strings.Fields(text)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/help":
		m.notice = "commands: /sessions /switch <n> /new /clear /exit"

	case "/clear":
		m.viewport.SetContent("")
		m.notice = ""

	case "/sessions":
		m.listSessions()

	case "/switch":
		if len(args) != 1 {
			m.notice = "usage: /switch <number from /sessions>"
			break
		}
		m.switchSession(args[0])

	case "/new":
		m.newSession()

	case "/exit", "/quit":
		return m, m.cleanup()

	default:
		m.notice = "unknown command: " + cmd
	}

	m.rebuildViewportContent()
	return m, nil
}

func (m *Model) listSessions() {
	ctx, cancel := context.WithTimeout(m.ctx, commandTimeout)
	defer cancel()

	sessions, err := m.store.ListSessions(ctx, 20, 0)
	if err != nil {
		m.logger.Warn("list sessions failed", "error", err)
		m.notice = "list sessions failed: " + err.Error()
		return
	}
	m.sessionList = sessions

	if len(sessions) == 0 {
		m.notice = "no sessions yet"
		return
	}

	var b strings.Builder
	b.WriteString("sessions:")
	for i, s := range sessions {
		marker := " "
		if s.ID == m.engine.ActiveID() {
			marker = "*"
		}
		fmt.Fprintf(&b, "\n %s %d. %s (%s)", marker, i+1, s.Title, s.UpdatedAt.Format("Jan 2 15:04"))
	}
	m.notice = b.String()
}

func (m *Model) switchSession(arg string) {
	id, err := m.resolveSessionArg(arg)
	if err != nil {
		m.notice = err.Error()
		return
	}

	ctx, cancel := context.WithTimeout(m.ctx, commandTimeout)
	defer cancel()

	if err := m.engine.Activate(ctx, id); err != nil {
		m.logger.Warn("switch session failed", "session_id", id, "error", err)
		m.notice = "switch degraded: " + err.Error()
	} else {
		m.notice = "switched session"
	}

	if err := session.SaveCurrentSessionID(id); err != nil {
		m.logger.Warn("persist current session failed", "error", err)
	}

	// Activation reseeded the transport; the cached canonical sequence is
	// the outgoing session's until re-resolved.
	m.canonical = m.engine.Canonical()
	m.followTicking = false
	m.viewport.GotoTop()
}

// resolveSessionArg accepts either an index into the last /sessions
// listing or a raw session UUID.
func (m *Model) resolveSessionArg(arg string) (uuid.UUID, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(m.sessionList) {
			return uuid.Nil, fmt.Errorf("no session %d, run /sessions first", n)
		}
		return m.sessionList[n-1].ID, nil
	}

	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("not a session number or id: %s", arg)
	}
	return id, nil
}

func (m *Model) newSession() {
	ctx, cancel := context.WithTimeout(m.ctx, commandTimeout)
	defer cancel()

	s, err := m.store.CreateSession(ctx, "New session")
	if err != nil {
		m.logger.Warn("create session failed", "error", err)
		m.notice = "create session failed: " + err.Error()
		return
	}

	if err := m.engine.Activate(ctx, s.ID); err != nil {
		m.logger.Warn("activate new session failed", "session_id", s.ID, "error", err)
		m.notice = "switch degraded: " + err.Error()
	} else {
		m.notice = "started new session"
	}

	if err := session.SaveCurrentSessionID(s.ID); err != nil {
		m.logger.Warn("persist current session failed", "error", err)
	}

	m.canonical = m.engine.Canonical()
	m.followTicking = false
	m.viewport.GotoTop()
}
