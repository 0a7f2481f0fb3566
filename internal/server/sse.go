package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mfateev/tradvisor-agent/internal/agent"
	"github.com/mfateev/tradvisor-agent/internal/history"
	"github.com/mfateev/tradvisor-agent/internal/models"
)

// setSSEHeaders configures the response for Server-Sent Events. Must be
// called before the first write.
func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

// sseSink writes each event as "event: <type>\ndata: <json>\n\n" and
// flushes immediately.
type sseSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSESink(w http.ResponseWriter) *sseSink {
	flusher, _ := w.(http.Flusher)
	return &sseSink{w: w, flusher: flusher}
}

func (s *sseSink) Emit(ctx context.Context, event agent.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := event.Data()
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event.Type, err)
	}
	return s.write(string(event.Type), data)
}

// writeJSON sends a non-agent event such as the leading session event.
func (s *sseSink) writeJSON(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.write(name, data)
}

func (s *sseSink) write(name string, data []byte) error {
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

// persistenceSink stores the final answer when the run ends and, after a
// session's first exchange, retitles the session. Failures are logged,
// never returned, so a store outage does not cut the stream.
type persistenceSink struct {
	store     history.Store
	sessionID string
	title     string // empty unless this is the first exchange
	logger    *slog.Logger
}

func (p *persistenceSink) Emit(ctx context.Context, event agent.Event) error {
	if event.Type != agent.EventDone {
		return nil
	}
	done, ok := event.Payload.(agent.DonePayload)
	if !ok || done.FullText == "" {
		return nil
	}
	// The request context may already be canceled when the client left.
	ctx = context.WithoutCancel(ctx)
	if _, err := p.store.AppendMessage(ctx, p.sessionID, models.RoleAssistant, done.FullText); err != nil {
		p.logger.Error("Failed to save assistant message", "session_id", p.sessionID, "error", err)
		return nil
	}
	if p.title != "" {
		if err := p.store.UpdateTitle(ctx, p.sessionID, p.title); err != nil {
			p.logger.Warn("Failed to update session title", "session_id", p.sessionID, "error", err)
		}
	}
	return nil
}
