package cli

import "github.com/charmbracelet/lipgloss"

// Styles holds all lipgloss styles for the terminal demo.
type Styles struct {
	// User prompt echo
	Prompt lipgloss.Style
	// Plan header (task summary)
	PlanHeader lipgloss.Style
	// Plan progress counter "(n/m)"
	PlanProgress lipgloss.Style
	// Completed step marker
	StepDone lipgloss.Style
	// In-progress step marker and description
	StepActive lipgloss.Style
	// Pending step marker
	StepPending lipgloss.Style
	// Skipped step marker and description
	StepSkipped lipgloss.Style
	// Tool call bullet (• character)
	ToolBullet lipgloss.Style
	// Tool name
	ToolName lipgloss.Style
	// Dimmed activity detail
	Detail lipgloss.Style
	// Dimmed detail prefix (└)
	DetailPrefix lipgloss.Style
	// Error line
	Error lipgloss.Style
	// Status line after a run
	StatusLine lipgloss.Style
	// Spinner message
	SpinnerMessage lipgloss.Style
}

// DefaultStyles returns styles with colors enabled.
func DefaultStyles() Styles {
	return Styles{
		Prompt:         lipgloss.NewStyle().Bold(true),
		PlanHeader:     lipgloss.NewStyle().Bold(true),
		PlanProgress:   lipgloss.NewStyle().Faint(true),
		StepDone:       lipgloss.NewStyle().Foreground(lipgloss.Color("2")), // green
		StepActive:     lipgloss.NewStyle().Foreground(lipgloss.Color("6")), // cyan
		StepPending:    lipgloss.NewStyle().Faint(true),
		StepSkipped:    lipgloss.NewStyle().Faint(true).Strikethrough(true),
		ToolBullet:     lipgloss.NewStyle().Foreground(lipgloss.Color("2")), // green
		ToolName:       lipgloss.NewStyle().Bold(true),
		Detail:         lipgloss.NewStyle().Faint(true),
		DetailPrefix:   lipgloss.NewStyle().Faint(true),
		Error:          lipgloss.NewStyle().Foreground(lipgloss.Color("1")), // red
		StatusLine:     lipgloss.NewStyle().Faint(true),
		SpinnerMessage: lipgloss.NewStyle().Faint(true),
	}
}

// NoColorStyles returns styles with no colors (plain text).
func NoColorStyles() Styles {
	return Styles{
		Prompt:         lipgloss.NewStyle(),
		PlanHeader:     lipgloss.NewStyle(),
		PlanProgress:   lipgloss.NewStyle(),
		StepDone:       lipgloss.NewStyle(),
		StepActive:     lipgloss.NewStyle(),
		StepPending:    lipgloss.NewStyle(),
		StepSkipped:    lipgloss.NewStyle(),
		ToolBullet:     lipgloss.NewStyle(),
		ToolName:       lipgloss.NewStyle(),
		Detail:         lipgloss.NewStyle(),
		DetailPrefix:   lipgloss.NewStyle(),
		Error:          lipgloss.NewStyle(),
		StatusLine:     lipgloss.NewStyle(),
		SpinnerMessage: lipgloss.NewStyle(),
	}
}
