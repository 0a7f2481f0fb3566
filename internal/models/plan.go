package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// StepStatus is the self-reported state of a plan step.
//
// No transition graph is enforced: the model may move a step to any status
// at any time. Typical use is pending → in_progress → completed|skipped.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
	StepSkipped    StepStatus = "skipped"
)

// StepStatuses lists the statuses advertised in the update_plan schema.
var StepStatuses = []StepStatus{StepPending, StepInProgress, StepCompleted, StepSkipped}

// StepID is a plan step identifier assigned by the model.
// Decoding accepts integral floats (3.0) and numeric strings ("3") since
// models are not always strict about integer typing. Anything else decodes
// to 0 so one bad id never discards the rest of the plan.
type StepID int

// UnmarshalJSON implements json.Unmarshaler.
func (id *StepID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		*id = 0
		return nil
	}
	*id = StepID(int(f))
	return nil
}

// Step is one element of a Plan. Order within Plan.Steps is execution order.
type Step struct {
	ID          StepID     `json:"id"`
	Description string     `json:"description"`
	Status      StepStatus `json:"status"`
	Result      string     `json:"result,omitempty"`
}

// Plan is the agent's self-reported execution plan for the current task.
// Every plan update replaces the previous plan wholesale; plans are never
// merged.
type Plan struct {
	TaskSummary string `json:"task_summary"`
	Steps       []Step `json:"steps"`
	IsComplete  bool   `json:"is_complete"`
	Explanation string `json:"explanation,omitempty"`
}

// Progress returns the number of completed steps and the total step count.
func (p *Plan) Progress() (completed, total int) {
	if p == nil {
		return 0, 0
	}
	for _, s := range p.Steps {
		if s.Status == StepCompleted {
			completed++
		}
	}
	return completed, len(p.Steps)
}

// Clone returns a deep copy so that emitted events cannot alias loop state.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	c := *p
	c.Steps = make([]Step, len(p.Steps))
	copy(c.Steps, p.Steps)
	return &c
}

// ParsePlanArguments decodes raw update_plan arguments.
//
// Malformed input is a tolerated degraded condition, not a failure: invalid
// JSON (or JSON that is not an object) yields the zero plan with an empty,
// non-nil step list. Fields are decoded independently, so a field of the
// wrong type keeps its default while the others survive, and a step that is
// not an object is dropped. The returned bool reports whether the payload
// parsed as an object.
func ParsePlanArguments(raw string) (Plan, bool) {
	plan := Plan{Steps: []Step{}}
	if strings.TrimSpace(raw) == "" {
		return plan, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil || fields == nil {
		return plan, false
	}

	decodeField(fields, "task_summary", &plan.TaskSummary)
	decodeField(fields, "is_complete", &plan.IsComplete)
	decodeField(fields, "explanation", &plan.Explanation)

	var steps []json.RawMessage
	decodeField(fields, "steps", &steps)
	for _, rawStep := range steps {
		var step Step
		if err := json.Unmarshal(rawStep, &step); err != nil {
			continue
		}
		plan.Steps = append(plan.Steps, step)
	}
	return plan, true
}

// decodeField decodes fields[name] into dst, leaving dst untouched when the
// field is absent, null or of the wrong type.
func decodeField[T any](fields map[string]json.RawMessage, name string, dst *T) {
	raw, ok := fields[name]
	if !ok || string(raw) == "null" {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return
	}
	*dst = v
}

// ActivityType tags how StepActivity.Content should be interpreted.
type ActivityType string

const (
	ActivityCode   ActivityType = "code"
	ActivitySearch ActivityType = "search"
	ActivityOutput ActivityType = "output"
	ActivityInfo   ActivityType = "info"
)

// Well-known StepActivity metadata keys.
const (
	MetaSearchQuery = "search_query"
	MetaLanguage    = "language"
	MetaURL         = "url"
)

// StepActivity is a discrete observation produced while a tool runs.
// Activities are append-only; once emitted they are never mutated.
type StepActivity struct {
	Type      ActivityType      `json:"activity_type"`
	Content   string            `json:"content"`
	Timestamp int64             `json:"timestamp,omitempty"` // unix millis, advisory only
	Metadata  map[string]string `json:"metadata,omitempty"`
}
