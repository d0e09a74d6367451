package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles holds the lipgloss styles used by commands.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Muted   lipgloss.Style
	Bold    lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	StatusRunning lipgloss.Style
	StatusStopped lipgloss.Style
	StatusPending lipgloss.Style
	StatusFailed  lipgloss.Style
}

// NewStyles builds styles bound to w. Colors are dropped when w is not a
// terminal or the environment disables them.
func NewStyles(w io.Writer, tty bool) *Styles {
	lr := lipgloss.NewRenderer(w)
	profile := termenv.Ascii
	if tty {
		profile = termenv.NewOutput(w).EnvColorProfile()
	}
	lr.SetColorProfile(profile)

	return &Styles{
		Header1: lr.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2: lr.NewStyle().Bold(true),
		Muted:   lr.NewStyle().Foreground(lipgloss.Color("8")),
		Bold:    lr.NewStyle().Bold(true),
		Success: lr.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: lr.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   lr.NewStyle().Foreground(lipgloss.Color("9")),
		Info:    lr.NewStyle().Foreground(lipgloss.Color("14")),

		StatusRunning: lr.NewStyle().Foreground(lipgloss.Color("10")),
		StatusStopped: lr.NewStyle().Foreground(lipgloss.Color("8")),
		StatusPending: lr.NewStyle().Foreground(lipgloss.Color("11")),
		StatusFailed:  lr.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
}
