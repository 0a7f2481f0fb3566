package agent

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/mfateev/tradvisor-agent/internal/llm"
	"github.com/mfateev/tradvisor-agent/internal/models"
	"github.com/mfateev/tradvisor-agent/internal/tools"
)

// Fallback labels used when an item carries no usable text.
const (
	searchFallback  = "Searching the web..."
	codeFallback    = "Running analysis..."
	defaultLanguage = "python"
)

// ClassifierConfig bounds the size of human-facing strings.
type ClassifierConfig struct {
	DescriptionLimit int // tool_call description, runes
	OutputLimit      int // code output detail, runes
	URLLimit         int // shortened URL inside a description, runes
}

// DefaultClassifierConfig returns the default truncation bounds.
func DefaultClassifierConfig() ClassifierConfig {
	limits := models.DefaultLimitsConfig()
	return ClassifierConfig{
		DescriptionLimit: limits.DescriptionLimit,
		OutputLimit:      limits.OutputLimit,
		URLLimit:         limits.URLLimit,
	}
}

// ClassifierConfigFromLimits extracts the truncation bounds from limits.
// Non-positive bounds fall back to the defaults.
func ClassifierConfigFromLimits(limits models.LimitsConfig) ClassifierConfig {
	cfg := DefaultClassifierConfig()
	if limits.DescriptionLimit > 0 {
		cfg.DescriptionLimit = limits.DescriptionLimit
	}
	if limits.OutputLimit > 0 {
		cfg.OutputLimit = limits.OutputLimit
	}
	if limits.URLLimit > 0 {
		cfg.URLLimit = limits.URLLimit
	}
	return cfg
}

// Classification is what one output item turned into.
type Classification struct {
	Events []Event

	// Pending is the function_call_output to send on the next turn, if
	// the item was a locally-handled function call.
	Pending *llm.InputItem

	// Text is the assistant text contributed by the item.
	Text string

	// Plan is set when the item was an update_plan call.
	Plan *models.Plan
}

// Classifier translates output items into events and dispatches local
// function calls through the tool router.
type Classifier struct {
	cfg    ClassifierConfig
	router *tools.ToolRouter
	logger *slog.Logger
	now    func() time.Time
}

// NewClassifier creates a Classifier. router answers function calls.
func NewClassifier(cfg ClassifierConfig, router *tools.ToolRouter, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{cfg: cfg, router: router, logger: logger, now: time.Now}
}

// Classify handles one output item. Unknown items produce an empty
// Classification.
func (c *Classifier) Classify(ctx context.Context, item llm.OutputItem) Classification {
	switch it := item.(type) {
	case llm.WebSearchCall:
		return Classification{Events: c.webSearch(it)}
	case llm.CodeInterpreterCall:
		return Classification{Events: c.codeInterpreter(it)}
	case llm.FunctionCall:
		return c.functionCall(ctx, it)
	case llm.Message:
		return c.message(it)
	case llm.UnknownItem:
		if it.Err != nil {
			c.logger.Warn("Dropping undecodable output item", "type", it.Type, "error", it.Err)
		} else {
			c.logger.Debug("Ignoring output item", "type", it.Type)
		}
		return Classification{}
	default:
		c.logger.Debug("Ignoring output item", "type", item.ItemType())
		return Classification{}
	}
}

func (c *Classifier) webSearch(it llm.WebSearchCall) []Event {
	query := strings.TrimSpace(it.SearchQuery())
	pageURL := strings.TrimSpace(it.URL())

	desc := searchFallback
	switch {
	case query != "":
		desc = query
	case pageURL != "":
		desc = "Browsing " + shortenURL(pageURL, c.cfg.URLLimit)
	}

	events := []Event{NewEvent(ToolCallPayload{
		Name:        tools.ToolWebSearch,
		Description: truncate(desc, c.cfg.DescriptionLimit),
	})}

	switch {
	case query != "":
		events = append(events, c.activity(models.ActivitySearch, query, map[string]string{models.MetaSearchQuery: query}))
	case pageURL != "":
		events = append(events, c.activity(models.ActivityInfo, pageURL, map[string]string{models.MetaURL: pageURL}))
	}
	return events
}

func (c *Classifier) codeInterpreter(it llm.CodeInterpreterCall) []Event {
	desc := firstNonBlankLine(it.Code)
	if desc == "" {
		desc = codeFallback
	}

	events := []Event{NewEvent(ToolCallPayload{
		Name:        tools.ToolCodeExecution,
		Description: truncate(desc, c.cfg.DescriptionLimit),
	})}

	if strings.TrimSpace(it.Code) != "" {
		lang := it.Language
		if lang == "" {
			lang = defaultLanguage
		}
		events = append(events, c.activity(models.ActivityCode, it.Code, map[string]string{models.MetaLanguage: lang}))
	}
	if out := it.OutputText(); out != "" {
		events = append(events, c.activity(models.ActivityOutput, truncate(out, c.cfg.OutputLimit), nil))
	}
	if it.Error != "" {
		events = append(events, c.activity(models.ActivityInfo, truncate("Error: "+it.Error, c.cfg.OutputLimit), nil))
	}
	return events
}

func (c *Classifier) functionCall(ctx context.Context, it llm.FunctionCall) Classification {
	// The tool_call description and the plan_update share one decode so they
	// never disagree on task_summary.
	plan, ok := models.ParsePlanArguments(it.Arguments)

	var out Classification
	out.Events = append(out.Events, NewEvent(ToolCallPayload{
		Name:        it.Name,
		Description: plan.TaskSummary,
	}))

	if it.Name == tools.ToolUpdatePlan {
		if !ok {
			c.logger.Warn("Malformed update_plan arguments, using defaults", "call_id", it.CallID)
		}
		out.Plan = &plan
		out.Events = append(out.Events, NewEvent(PlanUpdatePayload{Plan: *plan.Clone()}))
	}

	result := c.router.Execute(ctx, &tools.ToolInvocation{
		CallID:    it.CallID,
		ToolName:  it.Name,
		Arguments: it.Arguments,
	})
	pending := llm.NewFunctionCallOutput(it.CallID, result)
	out.Pending = &pending
	return out
}

func (c *Classifier) message(it llm.Message) Classification {
	var out Classification
	var sb strings.Builder
	for _, part := range it.Content {
		if part.Type != "output_text" || part.Text == "" {
			continue
		}
		sb.WriteString(part.Text)
		out.Events = append(out.Events, NewEvent(TextDeltaPayload{Content: part.Text}))
	}
	out.Text = sb.String()
	return out
}

func (c *Classifier) activity(t models.ActivityType, content string, meta map[string]string) Event {
	return NewEvent(StepActivityPayload{models.StepActivity{
		Type:      t,
		Content:   content,
		Timestamp: c.now().UnixMilli(),
		Metadata:  meta,
	}})
}

// truncate cuts s to at most limit runes. A non-positive limit disables
// truncation.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func firstNonBlankLine(code string) string {
	for _, line := range strings.Split(code, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// shortenURL renders host+path, dropping scheme, query and a leading
// "www.", bounded to limit runes.
func shortenURL(raw string, limit int) string {
	short := raw
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		short = strings.TrimPrefix(u.Host, "www.") + strings.TrimSuffix(u.Path, "/")
	}
	return truncate(short, limit)
}
