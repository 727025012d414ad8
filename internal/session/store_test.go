package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/marislab/maris/internal/conversation"
	"github.com/marislab/maris/internal/testutil"
)

// mockQuerier is an in-memory Querier for unit tests. The Store runs
// non-transactionally against it (nil pool).
type mockQuerier struct {
	sessions map[uuid.UUID]sessionRow
	messages map[uuid.UUID]map[string]messageRow

	lockCalls  int
	touchCalls int
	lastLimit  int32
	failUpsert error
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{
		sessions: make(map[uuid.UUID]sessionRow),
		messages: make(map[uuid.UUID]map[string]messageRow),
	}
}

func (m *mockQuerier) addSession(title string) uuid.UUID {
	id := uuid.New()
	now := time.Now()
	m.sessions[id] = sessionRow{ID: id, Title: &title, CreatedAt: now, UpdatedAt: now}
	return id
}

func (m *mockQuerier) CreateSession(_ context.Context, title *string) (sessionRow, error) {
	id := uuid.New()
	now := time.Now()
	row := sessionRow{ID: id, Title: title, CreatedAt: now, UpdatedAt: now}
	m.sessions[id] = row
	return row, nil
}

func (m *mockQuerier) GetSession(_ context.Context, id uuid.UUID) (sessionRow, error) {
	row, ok := m.sessions[id]
	if !ok {
		return sessionRow{}, ErrSessionNotFound
	}
	return row, nil
}

func (m *mockQuerier) ListSessions(_ context.Context, limit, _ int32) ([]sessionRow, error) {
	var out []sessionRow
	for _, row := range m.sessions {
		if int32(len(out)) == limit {
			break
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *mockQuerier) DeleteSession(_ context.Context, id uuid.UUID) error {
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	delete(m.messages, id)
	return nil
}

func (m *mockQuerier) LockSession(_ context.Context, id uuid.UUID) error {
	m.lockCalls++
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	return nil
}

func (m *mockQuerier) UpsertMessage(_ context.Context, row messageRow) error {
	if m.failUpsert != nil {
		return m.failUpsert
	}
	byID, ok := m.messages[row.SessionID]
	if !ok {
		byID = make(map[string]messageRow)
		m.messages[row.SessionID] = byID
	}
	byID[row.MessageID] = row
	return nil
}

func (m *mockQuerier) GetMessages(_ context.Context, sessionID uuid.UUID, limit int32) ([]messageRow, error) {
	m.lastLimit = limit
	byID := m.messages[sessionID]
	out := make([]messageRow, 0, len(byID))
	for _, row := range byID {
		out = append(out, row)
	}
	// Sequence order, matching the SQL.
	for i := range out {
		for j := i + 1; j < len(out); j++ {
			if out[j].SequenceNumber < out[i].SequenceNumber {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if int32(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockQuerier) TouchSession(_ context.Context, id uuid.UUID, messageCount int32) error {
	m.touchCalls++
	row, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	row.MessageCount = messageCount
	row.UpdatedAt = time.Now()
	m.sessions[id] = row
	return nil
}

func newTestStore(q Querier) *Store {
	return New(q, nil, testutil.DiscardLogger())
}

func TestCreateAndGetSession(t *testing.T) {
	q := newMockQuerier()
	store := newTestStore(q)
	ctx := context.Background()

	created, err := store.CreateSession(ctx, "hello")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if created.Title != "hello" {
		t.Errorf("Title = %q, want hello", created.Title)
	}

	got, err := store.GetSession(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("ID = %s, want %s", got.ID, created.ID)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	store := newTestStore(newMockQuerier())

	_, err := store.GetSession(context.Background(), uuid.New())
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestDeleteSession_NotFound(t *testing.T) {
	store := newTestStore(newMockQuerier())

	err := store.DeleteSession(context.Background(), uuid.New())
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestSaveMessages_RoundTrip(t *testing.T) {
	q := newMockQuerier()
	store := newTestStore(q)
	ctx := context.Background()
	id := q.addSession("s")

	msgs := []conversation.Message{
		testutil.UserMessage("u1", "hi"),
		testutil.AssistantMessage("a1",
			testutil.ToolPart("c1", "grep", conversation.ToolStateOutputAvailable, map[string]any{"query": "x"}),
			conversation.NewTextPart("found it"),
		),
	}

	if err := store.SaveMessages(ctx, id, msgs); err != nil {
		t.Fatalf("SaveMessages: %v", err)
	}
	if q.lockCalls != 1 {
		t.Errorf("lock calls = %d, want 1", q.lockCalls)
	}
	if q.touchCalls != 1 {
		t.Errorf("touch calls = %d, want 1", q.touchCalls)
	}

	loaded, err := store.LoadMessages(ctx, id)
	if err != nil {
		t.Fatalf("LoadMessages: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d messages, want 2", len(loaded))
	}
	if loaded[0].ID != "u1" || loaded[0].Role != conversation.RoleUser {
		t.Errorf("loaded[0] = %+v, want user u1", loaded[0])
	}
	if loaded[0].Origin != conversation.OriginHistorical {
		t.Errorf("loaded origin = %q, want historical", loaded[0].Origin)
	}
	if got := loaded[1].TextContent(); got != "found it" {
		t.Errorf("assistant text = %q, want 'found it'", got)
	}
	if tools := loaded[1].ToolParts(); len(tools) != 1 || tools[0].ToolCallID != "c1" {
		t.Errorf("tool parts = %+v, want one part c1", tools)
	}
}

func TestSaveMessages_StripsLoadedPrefix(t *testing.T) {
	// A reseeded historical message must land on its original row, so a
	// flush after session switch does not duplicate history.
	q := newMockQuerier()
	store := newTestStore(q)
	ctx := context.Background()
	id := q.addSession("s")

	if err := store.SaveMessages(ctx, id, []conversation.Message{
		testutil.UserMessage("u1", "hi"),
	}); err != nil {
		t.Fatalf("first save: %v", err)
	}

	reseeded := conversation.AsHistorical([]conversation.Message{testutil.UserMessage("u1", "hi")})
	if err := store.SaveMessages(ctx, id, reseeded); err != nil {
		t.Fatalf("second save: %v", err)
	}

	if n := len(q.messages[id]); n != 1 {
		t.Errorf("stored rows = %d, want 1 (upsert under canonical ID)", n)
	}
	if _, ok := q.messages[id]["u1"]; !ok {
		t.Error("row should be keyed by the canonical ID u1")
	}
}

func TestSaveMessages_EmptyIsNoOp(t *testing.T) {
	q := newMockQuerier()
	store := newTestStore(q)

	if err := store.SaveMessages(context.Background(), q.addSession("s"), nil); err != nil {
		t.Fatalf("SaveMessages: %v", err)
	}
	if q.lockCalls != 0 {
		t.Error("empty save must not touch the database")
	}
}

func TestSaveMessages_UnknownSession(t *testing.T) {
	store := newTestStore(newMockQuerier())

	err := store.SaveMessages(context.Background(), uuid.New(), []conversation.Message{
		testutil.UserMessage("u1", "hi"),
	})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestLoadMessages_SkipsMalformedRows(t *testing.T) {
	q := newMockQuerier()
	store := newTestStore(q)
	ctx := context.Background()
	id := q.addSession("s")

	good, _ := json.Marshal([]conversation.Part{conversation.NewTextPart("ok")})
	q.messages[id] = map[string]messageRow{
		"bad":  {SessionID: id, MessageID: "bad", Role: "user", Content: []byte("{not json"), SequenceNumber: 0},
		"good": {SessionID: id, MessageID: "good", Role: "user", Content: good, SequenceNumber: 1},
	}

	loaded, err := store.LoadMessages(ctx, id)
	if err != nil {
		t.Fatalf("LoadMessages: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "good" {
		t.Errorf("loaded = %+v, want only the good row", loaded)
	}
}

func TestLoadMessages_HistoryLimit(t *testing.T) {
	q := newMockQuerier()
	store := newTestStore(q)
	id := q.addSession("limits")
	ctx := context.Background()

	// Unset limit queries with the default.
	if _, err := store.LoadMessages(ctx, id); err != nil {
		t.Fatalf("LoadMessages: %v", err)
	}
	if q.lastLimit != DefaultHistoryLimit {
		t.Errorf("limit = %d, want default %d", q.lastLimit, DefaultHistoryLimit)
	}

	store.SetHistoryLimit(50)
	if _, err := store.LoadMessages(ctx, id); err != nil {
		t.Fatalf("LoadMessages: %v", err)
	}
	if q.lastLimit != 50 {
		t.Errorf("limit = %d, want 50", q.lastLimit)
	}

	// Out-of-range values clamp instead of reaching the query.
	store.SetHistoryLimit(MaxHistoryLimit + 1)
	if _, err := store.LoadMessages(ctx, id); err != nil {
		t.Fatalf("LoadMessages: %v", err)
	}
	if q.lastLimit != MaxHistoryLimit {
		t.Errorf("limit = %d, want clamped to %d", q.lastLimit, MaxHistoryLimit)
	}

	store.SetHistoryLimit(-1)
	if _, err := store.LoadMessages(ctx, id); err != nil {
		t.Fatalf("LoadMessages: %v", err)
	}
	if q.lastLimit != DefaultHistoryLimit {
		t.Errorf("limit = %d, want default after reset", q.lastLimit)
	}
}

func TestNormalizeHistoryLimit(t *testing.T) {
	tests := []struct {
		in   int32
		want int32
	}{
		{0, DefaultHistoryLimit},
		{-5, DefaultHistoryLimit},
		{100, 100},
		{MaxHistoryLimit + 1, MaxHistoryLimit},
	}
	for _, tt := range tests {
		if got := NormalizeHistoryLimit(tt.in); got != tt.want {
			t.Errorf("NormalizeHistoryLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
