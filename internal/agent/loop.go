// Package agent implements the agentic loop: it drives turns against the
// remote model, translates each turn's output into a normalized event
// stream and decides when the conversation is finished.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mfateev/tradvisor-agent/internal/llm"
	"github.com/mfateev/tradvisor-agent/internal/models"
	"github.com/mfateev/tradvisor-agent/internal/tools"
	"github.com/mfateev/tradvisor-agent/internal/tools/handlers"
)

// MaxIterationsNotice is appended to the answer when the loop bound is hit.
const MaxIterationsNotice = "\n\n(Reached maximum iterations.)"

// Config configures an Agent. Zero values select defaults.
type Config struct {
	// Instructions is sent as the leading system message of every run.
	Instructions string

	MaxIterations int
	Classifier    ClassifierConfig

	Catalog  *tools.Catalog
	Router   *tools.ToolRouter
	Observer Observer
	Logger   *slog.Logger
}

// Agent runs the loop. It holds only read-only configuration, so one
// Agent may serve concurrent runs.
type Agent struct {
	client        llm.TurnClient
	instructions  string
	maxIterations int
	catalog       *tools.Catalog
	classifier    *Classifier
	observer      Observer
	logger        *slog.Logger
}

// New creates an Agent on top of a TurnClient.
func New(client llm.TurnClient, cfg Config) *Agent {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = models.DefaultLimitsConfig().MaxIterations
	}
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = tools.DefaultCatalog()
	}
	router := cfg.Router
	if router == nil {
		router = handlers.NewDefaultRouter()
	}
	classifierCfg := cfg.Classifier
	if classifierCfg == (ClassifierConfig{}) {
		classifierCfg = DefaultClassifierConfig()
	}
	observer := cfg.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	return &Agent{
		client:        client,
		instructions:  cfg.Instructions,
		maxIterations: maxIterations,
		catalog:       catalog,
		classifier:    NewClassifier(classifierCfg, router, logger),
		observer:      observer,
		logger:        logger,
	}
}

// MaxIterations returns the effective loop bound.
func (a *Agent) MaxIterations() int { return a.maxIterations }

// Run answers one user query, emitting events to sink as they happen.
//
// The first turn sends the system instructions, the sanitized history and
// the query. Every later turn sends only the function_call_output items of
// the previous turn and relies on the continuation token for context: the
// input is replaced wholesale, never appended to.
//
// Exactly one done event is emitted and it is always last. A turn failure
// is reported as an error event followed by done, and Run returns a nil
// error with Result.Outcome set to OutcomeError. A non-nil error is
// returned only for an empty query (no events are emitted) or when the
// sink fails.
func (a *Agent) Run(ctx context.Context, query string, history []models.HistoryMessage, sink Sink) (Result, error) {
	if strings.TrimSpace(query) == "" {
		return Result{}, tools.NewValidationErrorf("query must not be empty")
	}

	state := newRunState(a.initialInput(query, history))
	specs := a.catalog.Specs()

	for state.iteration = 1; state.iteration <= a.maxIterations; state.iteration++ {
		a.logger.Info("Starting iteration", "iteration", state.iteration, "input_items", len(state.input))

		start := time.Now()
		resp, err := a.client.Call(ctx, llm.TurnRequest{
			Input:              state.input,
			Tools:              specs,
			PreviousResponseID: state.responseID,
		})
		a.observer.TurnFinished(err, resp.Retried, time.Since(start))

		if err != nil {
			a.logger.Error("Turn failed", "iteration", state.iteration, "error", err)
			if emitErr := a.emit(ctx, sink, ErrorPayload{Message: "API Error: " + err.Error()}); emitErr != nil {
				return a.abort(ctx, sink, state, emitErr)
			}
			return a.finish(ctx, sink, state, OutcomeError, state.iteration, err)
		}

		state.responseID = resp.ResponseID
		state.addUsage(resp.TokenUsage)
		a.logger.Info("Turn completed",
			"iteration", state.iteration,
			"response_id", resp.ResponseID,
			"items", len(resp.Output),
			"tokens", resp.TokenUsage.TotalTokens,
			"retried", resp.Retried)

		var pending []llm.InputItem
		for _, item := range resp.Output {
			c := a.classifier.Classify(ctx, item)
			if c.Plan != nil {
				state.plan = c.Plan
			}
			state.fullText.WriteString(c.Text)
			if c.Pending != nil {
				pending = append(pending, *c.Pending)
			}
			for _, ev := range c.Events {
				if err := a.emit(ctx, sink, ev.Payload); err != nil {
					return a.abort(ctx, sink, state, err)
				}
			}
		}

		if len(pending) == 0 {
			return a.finish(ctx, sink, state, OutcomeCompleted, state.iteration, nil)
		}

		a.logger.Info("Continuing with tool results", "count", len(pending))
		state.input = pending
	}

	a.logger.Warn("Max iterations reached", "max_iterations", a.maxIterations)
	state.fullText.WriteString(MaxIterationsNotice)
	if err := a.emit(ctx, sink, TextDeltaPayload{Content: MaxIterationsNotice}); err != nil {
		return a.abort(ctx, sink, state, err)
	}
	return a.finish(ctx, sink, state, OutcomeMaxIterations, a.maxIterations, nil)
}

func (a *Agent) initialInput(query string, history []models.HistoryMessage) []llm.InputItem {
	sanitized := models.SanitizeHistory(history)
	input := make([]llm.InputItem, 0, len(sanitized)+2)
	if a.instructions != "" {
		input = append(input, llm.NewMessageInput(models.RoleSystem, a.instructions))
	}
	for _, msg := range sanitized {
		input = append(input, llm.NewMessageInput(msg.Role, msg.Content))
	}
	return append(input, llm.NewMessageInput(models.RoleUser, query))
}

func (a *Agent) emit(ctx context.Context, sink Sink, p Payload) error {
	ev := NewEvent(p)
	a.observer.EventEmitted(ev.Type)
	if err := sink.Emit(ctx, ev); err != nil {
		return fmt.Errorf("emit %s: %w", ev.Type, err)
	}
	return nil
}

func (a *Agent) finish(ctx context.Context, sink Sink, state *runState, outcome Outcome, iterations int, turnErr error) (Result, error) {
	a.observer.RunFinished(outcome, iterations)
	result := state.result(outcome, iterations, turnErr)
	if err := a.emit(ctx, sink, state.donePayload(iterations)); err != nil {
		result.Outcome = OutcomeAborted
		return result, err
	}
	a.logger.Info("Run finished", "outcome", outcome, "iterations", iterations, "tokens", state.usage.TotalTokens)
	return result, nil
}

// abort ends a run whose sink failed. done is still attempted so that a
// sink that recovers sees a terminated stream.
func (a *Agent) abort(ctx context.Context, sink Sink, state *runState, cause error) (Result, error) {
	iterations := min(state.iteration, a.maxIterations)
	a.logger.Warn("Sink failed, aborting run", "iteration", iterations, "error", cause)
	a.observer.RunFinished(OutcomeAborted, iterations)
	_ = sink.Emit(ctx, NewEvent(state.donePayload(iterations)))
	return state.result(OutcomeAborted, iterations, nil), cause
}
