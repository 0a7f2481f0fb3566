// Package cli implements the terminal demo for the tradvisor agent.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/mfateev/tradvisor-agent/internal/agent"
	"github.com/mfateev/tradvisor-agent/internal/models"
)

// Renderer is an agent.Sink that draws events on a terminal.
//
// Plan updates redraw the checklist, tool calls become bullets, step
// activities are dimmed details under the last bullet, and the final answer
// is rendered as markdown once the run is done.
type Renderer struct {
	out        io.Writer
	styles     Styles
	mdRenderer *glamour.TermRenderer
	spinner    *Spinner
}

// NewRenderer creates a renderer writing to out. spinner may be nil.
func NewRenderer(out io.Writer, width int, noMarkdown bool, styles Styles, spinner *Spinner) *Renderer {
	r := &Renderer{out: out, styles: styles, spinner: spinner}
	if !noMarkdown {
		w := width
		if w <= 0 {
			w = 80
			if tw, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && tw > 0 {
				w = tw
			}
		}
		md, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(w),
		)
		if err == nil {
			r.mdRenderer = md
		}
	}
	return r
}

// Emit implements agent.Sink.
func (r *Renderer) Emit(_ context.Context, ev agent.Event) error {
	if r.spinner != nil {
		r.spinner.Stop()
	}

	var s string
	switch p := ev.Payload.(type) {
	case agent.PlanUpdatePayload:
		s = r.RenderPlan(&p.Plan)
	case agent.ToolCallPayload:
		s = r.RenderToolCall(p.Name, p.Description)
	case agent.StepActivityPayload:
		s = r.RenderActivity(p.StepActivity)
	case agent.TextDeltaPayload:
		// Rendered as a whole on done so markdown is not split mid-block.
	case agent.ErrorPayload:
		s = r.styles.Error.Render(p.Message) + "\n"
	case agent.DonePayload:
		s = r.RenderAnswer(p.FullText)
	}
	if s != "" {
		if _, err := io.WriteString(r.out, s); err != nil {
			return err
		}
	}

	if r.spinner != nil && ev.Type != agent.EventDone {
		r.spinner.Start(PhaseMessage(ev))
	}
	return nil
}

// RenderPlan renders the plan as a checklist with a progress counter.
//
//	NVDA valuation (1/3)
//	  [x] Fetch financials
//	  [~] Build DCF
//	  [ ] Summarize
func (r *Renderer) RenderPlan(plan *models.Plan) string {
	if plan == nil {
		return ""
	}
	done, total := plan.Progress()

	var b strings.Builder
	b.WriteString("\n")
	header := plan.TaskSummary
	if header == "" {
		header = "Plan"
	}
	b.WriteString(r.styles.PlanHeader.Render(header) + " " +
		r.styles.PlanProgress.Render(fmt.Sprintf("(%d/%d)", done, total)) + "\n")

	for _, step := range plan.Steps {
		marker, style := stepMarker(step.Status, r.styles)
		line := style.Render(marker) + " " + step.Description
		if step.Status == models.StepInProgress || step.Status == models.StepSkipped {
			line = style.Render(marker + " " + step.Description)
		}
		b.WriteString("  " + line + "\n")
		if step.Result != "" && step.Status == models.StepCompleted {
			b.WriteString("      " + r.styles.Detail.Render(truncateString(step.Result, 120)) + "\n")
		}
	}
	if plan.Explanation != "" {
		b.WriteString("  " + r.styles.Detail.Render(plan.Explanation) + "\n")
	}
	return b.String()
}

// RenderToolCall renders "• <name> <description>".
func (r *Renderer) RenderToolCall(name, description string) string {
	bullet := r.styles.ToolBullet.Render("•")
	styledName := r.styles.ToolName.Render(name)
	if description != "" {
		return bullet + " " + styledName + " " + description + "\n"
	}
	return bullet + " " + styledName + "\n"
}

// RenderActivity renders a step activity as dimmed lines under the last
// tool bullet. Uses a 5-line limit with middle truncation.
func (r *Renderer) RenderActivity(act models.StepActivity) string {
	content := strings.TrimRight(act.Content, "\n")
	if content == "" {
		return ""
	}
	if act.Type == models.ActivitySearch {
		content = fmt.Sprintf("%q", content)
	}

	lines := strings.Split(content, "\n")
	displayed, _ := truncateMiddle(lines, 5)

	var b strings.Builder
	for i, line := range displayed {
		prefix := "    "
		if i == 0 {
			prefix = "  └ "
		}
		b.WriteString(r.styles.DetailPrefix.Render(prefix) + r.styles.Detail.Render(line) + "\n")
	}
	return b.String()
}

// RenderAnswer renders the final answer with optional markdown.
func (r *Renderer) RenderAnswer(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	if r.mdRenderer != nil {
		rendered, err := r.mdRenderer.Render(text)
		if err == nil {
			return rendered
		}
	}
	return "\n" + text + "\n\n"
}

// RenderStatusLine renders a summary after a run completes.
func (r *Renderer) RenderStatusLine(model string, res agent.Result) string {
	line := fmt.Sprintf("[%s · %s tokens · %d iterations · %s]",
		model, formatTokens(res.TokenUsage.TotalTokens), res.Iterations, res.Outcome)
	return r.styles.StatusLine.Render(line) + "\n"
}

func stepMarker(status models.StepStatus, s Styles) (string, lipgloss.Style) {
	switch status {
	case models.StepCompleted:
		return "[x]", s.StepDone
	case models.StepInProgress:
		return "[~]", s.StepActive
	case models.StepSkipped:
		return "[-]", s.StepSkipped
	default:
		return "[ ]", s.StepPending
	}
}

// truncateMiddle returns at most limit lines. When the input exceeds the limit,
// it keeps the first 2 and last 2 lines with a "… +N lines" placeholder in between.
func truncateMiddle(lines []string, limit int) (result []string, omitted int) {
	if len(lines) <= limit {
		return lines, 0
	}
	head := 2
	tail := 2
	omitted = len(lines) - head - tail
	result = make([]string, 0, head+1+tail)
	result = append(result, lines[:head]...)
	result = append(result, fmt.Sprintf("… +%d lines", omitted))
	result = append(result, lines[len(lines)-tail:]...)
	return result, omitted
}

// truncateString truncates s to maxLen runes, appending "…" if truncated.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "…"
}

func formatTokens(n int) string {
	if n >= 1000 {
		return fmt.Sprintf("%d,%03d", n/1000, n%1000)
	}
	return fmt.Sprintf("%d", n)
}
