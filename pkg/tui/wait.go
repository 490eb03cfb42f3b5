package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// ErrInterrupted is returned by Wait when the user pressed esc or ctrl+c.
var ErrInterrupted = errors.New("interrupted")

const animFPS = 30

// waitModel shows a spinner and a pulsing marker while a call is in flight.
type waitModel struct {
	label   string
	spinner spinner.Model
	start   time.Time
	cancel  context.CancelFunc
	run     tea.Cmd

	// harmonica spring driving the pulse between dim and accent
	spring harmonica.Spring
	pos    float64
	vel    float64
	target float64

	done        bool
	interrupted bool
	err         error
}

type waitDoneMsg struct{ err error }

type animTickMsg time.Time

// newSpinner creates a spinner with the dots animation.
func newSpinner() spinner.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{
			".       ",
			"..      ",
			"...     ",
			"....    ",
			".....   ",
			"......  ",
			"....... ",
			"........",
		},
		FPS: time.Second / 5,
	}
	sp.Style = lipgloss.NewStyle().Foreground(AccentColor)
	return sp
}

func animTick() tea.Cmd {
	return tea.Tick(time.Second/animFPS, func(t time.Time) tea.Msg {
		return animTickMsg(t)
	})
}

func runCmd(ctx context.Context, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return waitDoneMsg{err: fn(ctx)}
	}
}

func (m waitModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, animTick(), m.run)
}

func (m waitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			m.interrupted = true
			m.cancel()
		}
		return m, nil

	case waitDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case animTickMsg:
		m.pos, m.vel = m.spring.Update(m.pos, m.vel, m.target)
		if m.target == 1 && m.pos > 0.95 {
			m.target = 0
		} else if m.target == 0 && m.pos < 0.05 {
			m.target = 1
		}
		return m, animTick()
	}
	return m, nil
}

func (m waitModel) View() string {
	if m.done {
		return ""
	}
	marker := DimStyle.Render("●")
	if m.pos > 0.5 {
		marker = LabelStyle.Render("●")
	}
	elapsed := time.Since(m.start).Truncate(100 * time.Millisecond)
	return fmt.Sprintf("%s %s %s %s  %s\n",
		marker,
		LabelStyle.Render(m.label),
		m.spinner.View(),
		DimStyle.Render(elapsed.String()),
		DimStyle.Render("esc to cancel"),
	)
}

// Wait runs fn while showing a waiting indicator labelled label. The context
// passed to fn is cancelled when the user interrupts. When out is not a
// terminal the indicator is replaced by a single status line.
func Wait(ctx context.Context, out io.Writer, label string, fn func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !IsTerminal(out) {
		fmt.Fprintf(out, "%s...\n", label)
		return fn(ctx)
	}

	m := waitModel{
		label:   label,
		spinner: newSpinner(),
		start:   time.Now(),
		cancel:  cancel,
		run:     runCmd(ctx, fn),
		spring:  harmonica.NewSpring(harmonica.FPS(animFPS), 6.0, 0.5),
		target:  1,
	}

	final, err := tea.NewProgram(m, tea.WithOutput(out)).Run()
	if err != nil {
		return fmt.Errorf("waiting indicator failed: %w", err)
	}
	fm := final.(waitModel)
	if fm.interrupted && fm.err == nil {
		return ErrInterrupted
	}
	return fm.err
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
