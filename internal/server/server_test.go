package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfateev/tradvisor-agent/internal/agent"
	"github.com/mfateev/tradvisor-agent/internal/config"
	"github.com/mfateev/tradvisor-agent/internal/history"
	"github.com/mfateev/tradvisor-agent/internal/llm"
	"github.com/mfateev/tradvisor-agent/internal/models"
)

type fakeTurnClient struct {
	mu       sync.Mutex
	replies  []llm.TurnResponse
	err      error
	requests []llm.TurnRequest
}

func (f *fakeTurnClient) Call(_ context.Context, req llm.TurnRequest) (llm.TurnResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return llm.TurnResponse{}, f.err
	}
	if len(f.replies) == 0 {
		return llm.TurnResponse{}, errors.New("no reply scripted")
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

func answer(text string) llm.TurnResponse {
	return llm.TurnResponse{ResponseID: "resp", Output: []llm.OutputItem{
		llm.Message{Content: []llm.MessageContent{{Type: "output_text", Text: text}}},
	}}
}

type sseEvent struct {
	name string
	data string
}

func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()
	var (
		events []sseEvent
		cur    sseEvent
	)
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if cur.name != "" {
				events = append(events, cur)
			}
			cur = sseEvent{}
		}
	}
	return events
}

func newTestServer(client llm.TurnClient) (*Server, history.Store) {
	store := history.NewInMemoryStore()
	cfg := config.Default().Server
	srv := New(Options{
		Agent:  agent.New(client, agent.Config{Instructions: "sys", Logger: srvLogger()}),
		Store:  store,
		Config: cfg,
		Logger: srvLogger(),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("metrics"))
		}),
	})
	return srv, store
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChat_NewSessionStreamsAndPersists(t *testing.T) {
	client := &fakeTurnClient{replies: []llm.TurnResponse{answer("Fair value: $650")}}
	srv, store := newTestServer(client)

	rec := do(srv.Handler(), http.MethodPost, "/chat", `{"message":"What is AAPL worth? Please give me a full DCF with three scenarios"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := parseSSE(t, rec.Body.String())
	require.Len(t, events, 3)
	assert.Equal(t, "session", events[0].name)
	assert.Equal(t, "text_delta", events[1].name)
	assert.JSONEq(t, `{"content":"Fair value: $650"}`, events[1].data)
	assert.Equal(t, "done", events[2].name)
	assert.JSONEq(t, `{"iterations":1,"plan":null,"fullText":"Fair value: $650"}`, events[2].data)

	var sess struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(events[0].data), &sess))
	require.NotEmpty(t, sess.SessionID)

	stored, err := store.GetSession(context.Background(), sess.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "What is AAPL worth? Please give me a full DCF with three sce...", stored.Title,
		"first saved exchange retitles the session")

	msgs, err := store.RecentMessages(context.Background(), sess.SessionID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "Fair value: $650", msgs[1].Content)
}

func TestChat_ExistingSessionSendsHistory(t *testing.T) {
	client := &fakeTurnClient{replies: []llm.TurnResponse{answer("second answer")}}
	srv, store := newTestServer(client)
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, "t")
	require.NoError(t, err)
	_, _ = store.AppendMessage(ctx, sess.ID, models.RoleUser, "first question")
	_, _ = store.AppendMessage(ctx, sess.ID, models.RoleAssistant, "first answer")

	rec := do(srv.Handler(), http.MethodPost, "/chat", `{"session_id":"`+sess.ID+`","message":"follow up"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, client.requests, 1)
	input := client.requests[0].Input
	require.Len(t, input, 4)
	assert.Equal(t, models.RoleSystem, input[0].Role)
	assert.Equal(t, "first question", input[1].Content)
	assert.Equal(t, "first answer", input[2].Content)
	assert.Equal(t, "follow up", input[3].Content)

	stored, err := store.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "t", stored.Title, "follow-ups keep the title")
}

func TestChat_FailedFirstExchangeKeepsCreationTitle(t *testing.T) {
	client := &fakeTurnClient{err: models.NewFatalError("client error (401): bad key", nil)}
	srv, store := newTestServer(client)

	rec := do(srv.Handler(), http.MethodPost, "/chat", `{"message":"What is AAPL worth? Please give me a full DCF with three scenarios"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	sessions, err := store.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "What is AAPL worth? Please give me a full DCF with...", sessions[0].Title)
}

func TestChat_TurnErrorStreamsErrorThenDone(t *testing.T) {
	client := &fakeTurnClient{err: models.NewFatalError("client error (401): bad key", nil)}
	srv, store := newTestServer(client)

	rec := do(srv.Handler(), http.MethodPost, "/chat", `{"message":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	events := parseSSE(t, rec.Body.String())
	require.Len(t, events, 3)
	assert.Equal(t, "error", events[1].name)
	assert.Contains(t, events[1].data, "API Error: ")
	assert.Equal(t, "done", events[2].name)

	// No assistant message is stored for an empty answer.
	sessions, err := store.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	msgs, err := store.RecentMessages(context.Background(), sessions[0].ID, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestChat_Validation(t *testing.T) {
	srv, _ := newTestServer(&fakeTurnClient{})
	h := srv.Handler()

	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, "/chat", `{"message":"   "}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, "/chat", `not json`).Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodPost, "/chat", `{"session_id":"nope","message":"hi"}`).Code)
}

func TestSessions_ListMessagesDelete(t *testing.T) {
	srv, store := newTestServer(&fakeTurnClient{})
	h := srv.Handler()
	ctx := context.Background()

	rec := do(h, http.MethodGet, "/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sessions":[]}`, rec.Body.String())

	sess, err := store.CreateSession(ctx, "Analyze NVDA")
	require.NoError(t, err)
	_, err = store.AppendMessage(ctx, sess.ID, models.RoleUser, "hello")
	require.NoError(t, err)

	rec = do(h, http.MethodGet, "/sessions", "")
	assert.Contains(t, rec.Body.String(), "Analyze NVDA")

	rec = do(h, http.MethodGet, "/sessions/"+sess.ID+"/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"content":"hello"`)

	assert.Equal(t, http.StatusNoContent, do(h, http.MethodDelete, "/sessions/"+sess.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodDelete, "/sessions/"+sess.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/sessions/"+sess.ID+"/messages", "").Code)
}

func TestHealthMetricsAndCORS(t *testing.T) {
	srv, _ := newTestServer(&fakeTurnClient{})
	h := srv.Handler()

	rec := do(h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	assert.Equal(t, "metrics", do(h, http.MethodGet, "/metrics", "").Body.String())

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "apikey,content-type")
	pre := httptest.NewRecorder()
	h.ServeHTTP(pre, req)

	assert.Equal(t, "*", pre.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, strings.ToLower(pre.Header().Get("Access-Control-Allow-Headers")), "apikey")
}

func TestPersistenceSink_IgnoresNonDone(t *testing.T) {
	store := history.NewInMemoryStore()
	sess, err := store.CreateSession(context.Background(), "t")
	require.NoError(t, err)
	sink := &persistenceSink{store: store, sessionID: sess.ID, logger: srvLogger()}

	require.NoError(t, sink.Emit(context.Background(), agent.NewEvent(agent.TextDeltaPayload{Content: "x"})))
	require.NoError(t, sink.Emit(context.Background(), agent.NewEvent(agent.DonePayload{Iterations: 1})))
	require.NoError(t, sink.Emit(context.Background(), agent.NewEvent(agent.DonePayload{Iterations: 1, FullText: "final"})))

	msgs, err := store.RecentMessages(context.Background(), sess.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "final", msgs[0].Content)
}

func srvLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }
