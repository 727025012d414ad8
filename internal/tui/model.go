// Package tui provides the Bubble Tea terminal interface for maris.
//
// The TUI is deliberately thin: the merge resolver, persistence scheduler,
// scroll arbiter, and session lifecycle controller all live in their own
// packages and are driven from Update. The TUI owns only what Bubble Tea
// forces it to own - the two timers (debounce countdown and follow tick)
// run as tea.Tick commands carrying generation numbers, and the engine
// state machines decide whether a fire is still valid.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/marislab/maris/internal/config"
	"github.com/marislab/maris/internal/conversation"
	"github.com/marislab/maris/internal/persist"
	"github.com/marislab/maris/internal/scroll"
	"github.com/marislab/maris/internal/session"
	"github.com/marislab/maris/internal/transport"
)

// Memory bound for the input history.
const maxHistory = 100

// Layout constants for viewport height calculation.
const (
	separatorLines = 2 // above and below input
	helpLines      = 1
	promptLines    = 1
	minViewport    = 3
)

// Model is the Bubble Tea model for the maris chat interface.
type Model struct {
	// Input (textarea for multi-line support, Shift+Enter for newline)
	input      textarea.Model
	history    []string
	historyIdx int

	// Scrollable message viewport
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	styles   Styles
	markdown *markdownRenderer
	viewBuf  strings.Builder // reused by View to reduce allocations

	// Engine
	client *transport.Client
	engine *conversation.Controller
	sched  *persist.Scheduler
	scroll *scroll.Arbiter
	store  *session.Store
	logger *slog.Logger

	// Last resolved canonical sequence, refreshed on every mutation.
	canonical []conversation.Message

	// Cached /sessions listing so /switch can take an index.
	sessionList []*session.Session

	// followTicking tracks whether a follow tick is already in flight so
	// streaming events don't stack extra timers.
	followTicking bool

	// pinLine is the viewport line of the just-sent user message, set
	// during rebuild and consumed by the one-shot pin action.
	pinLine int

	// notice is a transient status line (transport errors, save failures).
	notice string

	lastCtrlC time.Time
	width     int
	height    int

	ctx       context.Context
	ctxCancel context.CancelFunc
}

// New creates the chat model. ctx MUST be the same context passed to
// tea.WithContext so cancellation stays consistent.
func New(ctx context.Context, client *transport.Client, engine *conversation.Controller, sched *persist.Scheduler, arbiter *scroll.Arbiter, store *session.Store, ui config.UI, logger *slog.Logger) (*Model, error) {
	if ctx == nil {
		return nil, errors.New("tui.New: ctx is required")
	}
	if client == nil {
		return nil, errors.New("tui.New: transport client is required")
	}
	if engine == nil {
		return nil, errors.New("tui.New: conversation controller is required")
	}
	if sched == nil {
		return nil, errors.New("tui.New: persistence scheduler is required")
	}
	if arbiter == nil {
		return nil, errors.New("tui.New: scroll arbiter is required")
	}
	if store == nil {
		return nil, errors.New("tui.New: session store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(ctx)

	// Disabled markdown leaves the renderer nil; Render then passes text
	// through unchanged.
	var markdown *markdownRenderer
	if ui.Markdown {
		markdown = newMarkdownRenderer(80)
	}

	ta := textarea.New()
	ta.Placeholder = "Ask anything..."
	ta.SetHeight(1)
	ta.SetWidth(120) // updated on WindowSizeMsg
	ta.MaxWidth = 0
	ta.ShowLineNumbers = false

	cleanStyle := textarea.StyleState{
		Base:        lipgloss.NewStyle(),
		Text:        lipgloss.NewStyle(),
		Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Prompt:      lipgloss.NewStyle(),
	}
	ta.SetStyles(textarea.Styles{Focused: cleanStyle, Blurred: cleanStyle})
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	// Built-in viewport key handling is disabled; keys are routed
	// explicitly in handleKey so scroll intent always passes through the
	// arbiter.
	vp := viewport.New(viewport.WithWidth(80), viewport.WithHeight(20))
	vp.MouseWheelEnabled = true
	vp.SoftWrap = true
	vp.KeyMap = viewport.KeyMap{}

	return &Model{
		client:    client,
		engine:    engine,
		canonical: engine.Canonical(),
		sched:     sched,
		scroll:    arbiter,
		store:     store,
		logger:    logger,
		ctx:       ctx,
		ctxCancel: cancel,
		input:     ta,
		spinner:   sp,
		viewport:  vp,
		help:      help.New(),
		keys:      newKeyMap(),
		styles:    DefaultStyles(),
		history:   make([]string, 0, maxHistory),
		markdown:  markdown,
		pinLine:   -1,
		width:     80,
	}, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.input.Focus(),
		listenTransport(m.client.Events()),
	)
}

// refresh re-resolves the canonical sequence after any mutation and feeds
// it to the persistence scheduler. Returns the debounce command when a
// new write window was armed.
func (m *Model) refresh() tea.Cmd {
	m.canonical = m.engine.Canonical()

	gen, armed := m.sched.Observe(m.canonical)
	if !armed {
		return nil
	}
	return debounceTick(gen)
}

// syncStreaming mirrors the transport status into the scroll arbiter and
// returns the follow tick command when one needs starting.
func (m *Model) syncStreaming() tea.Cmd {
	streaming := m.client.Status() == conversation.StatusStreaming
	m.scroll.SetStreaming(streaming)

	if streaming && m.scroll.ShouldTick() && !m.followTicking {
		m.followTicking = true
		return followTick()
	}
	return nil
}

// maybeFollow scrolls to the bottom when arbitration allows it. Never
// fires for a purely historical sequence, so opening a session does not
// jump the view.
func (m *Model) maybeFollow() {
	if m.scroll.ShouldFollow(conversation.AllHistorical(m.canonical)) {
		m.viewport.GotoBottom()
	}
}

// distanceFromBottom reports how far the viewport sits above the bottom,
// in rendered rows.
func (m *Model) distanceFromBottom() int {
	total := m.viewport.TotalLineCount()
	visible := m.viewport.VisibleLineCount()
	span := total - visible
	if span <= 0 {
		return 0
	}
	offset := int(m.viewport.ScrollPercent() * float64(span))
	return span - offset
}
