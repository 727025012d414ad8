package transport

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/marislab/maris/internal/conversation"
)

// eventBufferSize bounds the notification channel. Sized for a burst of
// deltas during UI render delays; the reader goroutine never blocks on a
// slow UI beyond this.
const eventBufferSize = 100

// Event is a discriminated union of transport notifications for the UI.
// Exactly one field is meaningful per event.
type Event struct {
	Changed  bool  // live list mutated
	Finished bool  // stream completed
	Err      error // transport error (logged and surfaced, never retried)
}

// Client is the WebSocket implementation of conversation.Transport.
//
// The read loop runs on its own goroutine; the live list and status are
// guarded by a mutex so the UI event loop can snapshot them at any time.
type Client struct {
	logger *slog.Logger
	conn   *websocket.Conn

	writeMu sync.Mutex // gorilla allows one concurrent writer

	mu     sync.Mutex
	msgs   []conversation.Message
	status conversation.Status

	events    chan Event
	closeOnce sync.Once
}

// Compile-time interface verification.
var _ conversation.Transport = (*Client)(nil)

// Dial connects to the agent backend and starts the read loop.
func Dial(ctx context.Context, url string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", url, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	c := &Client{
		logger: logger,
		conn:   conn,
		status: conversation.StatusIdle,
		events: make(chan Event, eventBufferSize),
	}
	go c.readLoop()
	return c, nil
}

// Events returns the notification channel. Closed when the connection
// ends.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Close tears the connection down. Idempotent.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}

// Send submits a user message: it is appended to the live list first, then
// the frame goes out. The local append is what makes the user's message
// show up immediately instead of waiting for the backend echo.
func (c *Client) Send(text string) error {
	msg := conversation.Message{
		ID:     uuid.NewString(),
		Role:   conversation.RoleUser,
		Parts:  []conversation.Part{conversation.NewTextPart(text)},
		Origin: conversation.OriginLive,
	}

	c.mu.Lock()
	c.msgs = append(c.msgs, msg)
	c.status = conversation.StatusSubmitted
	c.mu.Unlock()

	if err := c.writeJSON(wireEvent{Type: wireSend, Text: text}); err != nil {
		return fmt.Errorf("transport: send: %w", err)
	}
	return nil
}

// Stop aborts the in-flight stream. The live list stays exactly as last
// received; there is no rollback.
func (c *Client) Stop() {
	if err := c.writeJSON(wireEvent{Type: wireStop}); err != nil {
		c.logger.Warn("stop frame failed", "error", err)
	}

	c.mu.Lock()
	c.status = conversation.StatusIdle
	c.mu.Unlock()
}

// ReplaceAll swaps the entire live list. Used for historical seeding at
// session activation. The input is deep-copied so the caller's slice never
// aliases the list the read loop mutates.
func (c *Client) ReplaceAll(msgs []conversation.Message) {
	cloned := conversation.CloneMessages(msgs)
	c.mu.Lock()
	c.msgs = cloned
	c.mu.Unlock()
}

// Messages returns a deep-copied snapshot of the live list. The read loop
// keeps appending deltas to parts in place, so a shallow copy would hand
// the caller a Parts slice that changes under it - and the save path
// marshals snapshots off the event loop entirely.
func (c *Client) Messages() []conversation.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return conversation.CloneMessages(c.msgs)
}

// Status reports the current transport status.
func (c *Client) Status() conversation.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Client) writeJSON(ev wireEvent) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(ev)
}

// readLoop consumes backend frames until the connection dies. Channel
// closure signals completion to the UI; no WaitGroup needed.
func (c *Client) readLoop() {
	defer close(c.events)

	for {
		var ev wireEvent
		if err := c.conn.ReadJSON(&ev); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			c.notify(Event{Err: fmt.Errorf("transport: read: %w", err)})
			return
		}
		c.apply(ev)
	}
}

// apply mutates the live list for one wire event and notifies the UI.
func (c *Client) apply(ev wireEvent) {
	c.mu.Lock()

	switch ev.Type {
	case wireMessageStart:
		role := conversation.RoleAssistant
		if ev.Role == string(conversation.RoleUser) {
			role = conversation.RoleUser
		}
		c.msgs = append(c.msgs, conversation.Message{
			ID:     ev.MessageID,
			Role:   role,
			Origin: conversation.OriginLive,
		})
		c.status = conversation.StatusStreaming

	case wireTextDelta:
		c.appendDelta(ev.MessageID, conversation.PartText, ev.Delta)
		c.status = conversation.StatusStreaming

	case wireReasoningDelta:
		c.appendDelta(ev.MessageID, conversation.PartReasoning, ev.Delta)
		c.status = conversation.StatusStreaming

	case wireToolUpdate:
		c.applyToolUpdate(ev)
		c.status = conversation.StatusStreaming

	case wireFinish:
		c.status = conversation.StatusIdle
		c.mu.Unlock()
		c.notify(Event{Finished: true})
		return

	case wireError:
		c.status = conversation.StatusIdle
		c.mu.Unlock()
		c.logger.Warn("transport error event", "error", ev.ErrorText)
		c.notify(Event{Err: fmt.Errorf("transport: %s", ev.ErrorText)})
		return

	default:
		// Unknown frame types are ignored, not coerced.
		c.mu.Unlock()
		return
	}

	c.mu.Unlock()
	c.notify(Event{Changed: true})
}

// appendDelta extends the trailing part of kind on the addressed message,
// or opens a new part when the message's last part is of another kind.
// A delta for an unknown message ID starts a fresh message rather than
// being dropped - the backend owns identity, we follow.
func (c *Client) appendDelta(messageID string, kind conversation.PartKind, delta string) {
	i := c.findMessage(messageID)
	if i < 0 {
		c.msgs = append(c.msgs, conversation.Message{
			ID:     messageID,
			Role:   conversation.RoleAssistant,
			Origin: conversation.OriginLive,
		})
		i = len(c.msgs) - 1
	}

	msg := &c.msgs[i]
	if n := len(msg.Parts); n > 0 && msg.Parts[n-1].Kind == kind {
		msg.Parts[n-1].Text += delta
		return
	}
	msg.Parts = append(msg.Parts, conversation.Part{Kind: kind, Text: delta})
}

// applyToolUpdate upserts the tool invocation part addressed by call ID.
// Output claiming to be an image is content-sniffed; a payload that does
// not actually decode to an image is treated as absent output, not as an
// error.
func (c *Client) applyToolUpdate(ev wireEvent) {
	i := c.findMessage(ev.MessageID)
	if i < 0 {
		c.msgs = append(c.msgs, conversation.Message{
			ID:     ev.MessageID,
			Role:   conversation.RoleAssistant,
			Origin: conversation.OriginLive,
		})
		i = len(c.msgs) - 1
	}
	msg := &c.msgs[i]

	output := ev.Output
	if ev.Output != "" && strings.HasPrefix(ev.MediaType, "image/") && !looksLikeImage(ev.Output) {
		c.logger.Warn("tool output failed image validation, dropping",
			"tool_call_id", ev.ToolCallID, "media_type", ev.MediaType)
		output = ""
	}

	for j := range msg.Parts {
		p := &msg.Parts[j]
		if p.Kind != conversation.PartToolInvocation || p.ToolCallID != ev.ToolCallID {
			continue
		}
		p.State = mapWireState(ev.State)
		if ev.ToolName != "" {
			p.ToolName = ev.ToolName
		}
		if ev.Input != nil {
			p.Input = ev.Input
		}
		if output != "" {
			p.Output = output
		}
		if ev.ErrorText != "" {
			p.ErrorText = ev.ErrorText
		}
		return
	}

	msg.Parts = append(msg.Parts, conversation.Part{
		Kind:       conversation.PartToolInvocation,
		ToolCallID: ev.ToolCallID,
		ToolName:   ev.ToolName,
		State:      mapWireState(ev.State),
		Input:      ev.Input,
		Output:     output,
		ErrorText:  ev.ErrorText,
	})
}

func (c *Client) findMessage(id string) int {
	for i := range c.msgs {
		if c.msgs[i].ID == id {
			return i
		}
	}
	return -1
}

// notify pushes an event without blocking; a full channel drops the event.
// Dropped Changed events are harmless - the next one redraws everything -
// and errors are logged before the attempt.
func (c *Client) notify(ev Event) {
	select {
	case c.events <- ev:
	default:
	}
}

// looksLikeImage sniffs a base64 payload and checks the detected content
// type is an image.
func looksLikeImage(data string) bool {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil || len(raw) == 0 {
		return false
	}
	return strings.HasPrefix(http.DetectContentType(raw), "image/")
}
