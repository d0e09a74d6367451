package output

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type doneMsg struct{ err error }

type spinnerModel struct {
	spinner spinner.Model
	label   string
	styles  *Styles
	err     error
	done    bool
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.styles.Muted.Render(m.label) + "\n"
}

// Spin runs fn while showing an animated label on the diagnostic stream.
// Without a terminal fn simply runs.
func (r *Renderer) Spin(ctx context.Context, label string, fn func(ctx context.Context) error) error {
	if !r.isTTY || !IsTerminal(r.errOut) || r.EffectiveMode() == ModeJSON {
		return fn(ctx)
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(r.styles.Info))
	p := tea.NewProgram(
		spinnerModel{spinner: sp, label: label, styles: r.styles},
		tea.WithOutput(r.errOut),
		tea.WithInput(nil),
		tea.WithContext(ctx),
	)

	go func() {
		p.Send(doneMsg{err: fn(ctx)})
	}()

	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	if m, ok := final.(spinnerModel); ok && m.done {
		return m.err
	}
	return ctx.Err()
}
