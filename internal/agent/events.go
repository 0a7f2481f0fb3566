package agent

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mfateev/tradvisor-agent/internal/models"
)

// EventType names an event on the stream. The values double as SSE
// event names.
type EventType string

const (
	EventPlanUpdate   EventType = "plan_update"
	EventToolCall     EventType = "tool_call"
	EventStepActivity EventType = "step_activity"
	EventTextDelta    EventType = "text_delta"
	EventDone         EventType = "done"
	EventError        EventType = "error"
)

// Payload is the data carried by an Event. Implemented by the typed
// payloads below only.
type Payload interface {
	eventType() EventType
}

// PlanUpdatePayload replaces the consumer's plan wholesale.
type PlanUpdatePayload struct {
	models.Plan
}

// ToolCallPayload announces a tool invocation.
type ToolCallPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// StepActivityPayload is one observation of a running tool.
type StepActivityPayload struct {
	models.StepActivity
}

// TextDeltaPayload is a fragment of the final answer.
type TextDeltaPayload struct {
	Content string `json:"content"`
}

// DonePayload terminates the stream. Plan is null when no plan was seen.
type DonePayload struct {
	Iterations int          `json:"iterations"`
	Plan       *models.Plan `json:"plan"`
	FullText   string       `json:"fullText,omitempty"`
}

// ErrorPayload reports a fatal failure; a done event always follows.
type ErrorPayload struct {
	Message string `json:"message"`
}

func (PlanUpdatePayload) eventType() EventType   { return EventPlanUpdate }
func (ToolCallPayload) eventType() EventType     { return EventToolCall }
func (StepActivityPayload) eventType() EventType { return EventStepActivity }
func (TextDeltaPayload) eventType() EventType    { return EventTextDelta }
func (DonePayload) eventType() EventType         { return EventDone }
func (ErrorPayload) eventType() EventType        { return EventError }

// Event is one element of the normalized stream.
type Event struct {
	Type    EventType
	Payload Payload
}

// NewEvent wraps a payload with its type tag.
func NewEvent(p Payload) Event {
	return Event{Type: p.eventType(), Payload: p}
}

// MarshalJSON renders {"type": ..., "data": {...}}.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type EventType `json:"type"`
		Data Payload   `json:"data"`
	}{e.Type, e.Payload})
}

// Data marshals only the payload, as written on an SSE data line.
func (e Event) Data() ([]byte, error) {
	return json.Marshal(e.Payload)
}

// Sink receives events synchronously, in order, on the loop goroutine.
// A non-nil error means the consumer is gone and the run should stop.
type Sink interface {
	Emit(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event Event) error

func (f SinkFunc) Emit(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// ChannelSink forwards events to a channel. Sends block until the
// receiver is ready or ctx is done.
type ChannelSink chan<- Event

func (c ChannelSink) Emit(ctx context.Context, event Event) error {
	select {
	case c <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MultiSink fans each event out to every sink in order. All sinks see
// the event; their errors are joined.
type MultiSink []Sink

func (m MultiSink) Emit(ctx context.Context, event Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder is a Sink that keeps every event in memory.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Emit(_ context.Context, event Event) error {
	r.Events = append(r.Events, event)
	return nil
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []EventType {
	out := make([]EventType, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Type
	}
	return out
}
