package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mfateev/tradvisor-agent/internal/agent"
	"github.com/mfateev/tradvisor-agent/internal/models"
)

// Prompt is printed before each line of input.
const Prompt = "> "

// Config holds CLI configuration.
type Config struct {
	Message    string // Run this message once and exit
	Model      string // Shown in the status line
	NoMarkdown bool
	NoColor    bool
	Width      int // 0 means detect from the terminal
}

// App is the interactive terminal demo. It keeps conversation history in
// process so follow-up questions carry context.
type App struct {
	config   Config
	agent    *agent.Agent
	in       io.Reader
	out      io.Writer
	renderer *Renderer
	spinner  *Spinner
	styles   Styles
	history  []models.HistoryMessage
}

// NewApp creates a new CLI app. The spinner draws on status, the rest on out.
func NewApp(a *agent.Agent, config Config, in io.Reader, out, status io.Writer) *App {
	styles := DefaultStyles()
	if config.NoColor {
		styles = NoColorStyles()
	}
	spinner := NewSpinner(status, styles)
	return &App{
		config:   config,
		agent:    a,
		in:       in,
		out:      out,
		renderer: NewRenderer(out, config.Width, config.NoMarkdown, styles, spinner),
		spinner:  spinner,
		styles:   styles,
	}
}

// Run is the main entry point. With Config.Message set it answers that one
// message; otherwise it reads lines until EOF, "quit" or "exit".
func (a *App) Run(ctx context.Context) error {
	if msg := strings.TrimSpace(a.config.Message); msg != "" {
		return a.Ask(ctx, msg)
	}

	scanner := bufio.NewScanner(a.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(a.out, a.styles.Prompt.Render(Prompt))
		if !scanner.Scan() {
			fmt.Fprintln(a.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			return nil
		}
		if err := a.Ask(ctx, line); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Ask runs the agent for one message and records the exchange.
func (a *App) Ask(ctx context.Context, message string) error {
	a.spinner.Start("Thinking...")
	res, err := a.agent.Run(ctx, message, a.history, a.renderer)
	a.spinner.Stop()
	if err != nil {
		return fmt.Errorf("agent run failed: %w", err)
	}

	a.history = append(a.history, models.HistoryMessage{Role: models.RoleUser, Content: message})
	if res.FullText != "" {
		a.history = append(a.history, models.HistoryMessage{Role: models.RoleAssistant, Content: res.FullText})
	}

	model := a.config.Model
	if model == "" {
		model = "agent"
	}
	_, err = io.WriteString(a.out, a.renderer.RenderStatusLine(model, res))
	return err
}

// History returns the in-process conversation so far.
func (a *App) History() []models.HistoryMessage {
	out := make([]models.HistoryMessage, len(a.history))
	copy(out, a.history)
	return out
}
