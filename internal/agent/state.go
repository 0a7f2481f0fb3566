package agent

import (
	"strings"
	"time"

	"github.com/mfateev/tradvisor-agent/internal/llm"
	"github.com/mfateev/tradvisor-agent/internal/models"
)

// Outcome is how a run ended.
type Outcome string

const (
	OutcomeCompleted     Outcome = "completed"
	OutcomeError         Outcome = "error"
	OutcomeMaxIterations Outcome = "max_iterations"
	OutcomeAborted       Outcome = "aborted" // the sink failed
)

// Result summarizes a finished run.
type Result struct {
	Outcome    Outcome
	Iterations int
	Plan       *models.Plan
	FullText   string

	// ResponseID is the last continuation token received.
	ResponseID string
	TokenUsage models.TokenUsage

	// Err is the turn failure when Outcome is OutcomeError.
	Err error
}

// runState is the cross-turn state of one run. It is owned by the loop
// goroutine and discarded when the run ends.
type runState struct {
	iteration  int
	responseID string
	input      []llm.InputItem
	plan       *models.Plan
	fullText   strings.Builder
	usage      models.TokenUsage
}

func newRunState(input []llm.InputItem) *runState {
	return &runState{input: input}
}

func (s *runState) addUsage(u models.TokenUsage) {
	s.usage.PromptTokens += u.PromptTokens
	s.usage.CompletionTokens += u.CompletionTokens
	s.usage.TotalTokens += u.TotalTokens
	s.usage.CachedTokens += u.CachedTokens
}

func (s *runState) donePayload(iterations int) DonePayload {
	return DonePayload{
		Iterations: iterations,
		Plan:       s.plan.Clone(),
		FullText:   s.fullText.String(),
	}
}

func (s *runState) result(outcome Outcome, iterations int, err error) Result {
	return Result{
		Outcome:    outcome,
		Iterations: iterations,
		Plan:       s.plan.Clone(),
		FullText:   s.fullText.String(),
		ResponseID: s.responseID,
		TokenUsage: s.usage,
		Err:        err,
	}
}

// Observer receives loop telemetry. Implementations must be safe for
// concurrent use since runs for different requests share one Observer.
type Observer interface {
	TurnFinished(err error, retried bool, elapsed time.Duration)
	EventEmitted(t EventType)
	RunFinished(outcome Outcome, iterations int)
}

type nopObserver struct{}

func (nopObserver) TurnFinished(error, bool, time.Duration) {}
func (nopObserver) EventEmitted(EventType)                  {}
func (nopObserver) RunFinished(Outcome, int)                {}
