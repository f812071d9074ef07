// Package spinner shows a one-line progress indicator while shelf waits on
// the network. The line is updated in place and cleared when work finishes.
package spinner

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Spinner renders a status line next to a spinning indicator.
type Spinner struct {
	output  io.Writer
	width   int
	program *tea.Program

	started chan struct{}
	done    chan struct{}
	once    sync.Once
}

// New creates a spinner writing to output, or os.Stderr when output is nil.
func New(output io.Writer) *Spinner {
	if output == nil {
		output = os.Stderr
	}

	width := 80
	if f, ok := output.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			width = w
		}
	}

	return &Spinner{
		output:  output,
		width:   width,
		started: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Interactive reports whether w is a terminal a spinner can draw on.
func Interactive(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Start runs the spinner until Stop is called. It blocks, so call it in a
// goroutine.
func (s *Spinner) Start(status string) error {
	s.program = tea.NewProgram(newModel(status, s.width),
		tea.WithOutput(s.output),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	close(s.started)

	_, err := s.program.Run()
	close(s.done)
	return err
}

// Status replaces the status line.
func (s *Spinner) Status(line string) {
	<-s.started
	s.program.Send(statusMsg(line))
}

// Stop clears the line and waits for the spinner to exit.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		<-s.started
		s.program.Quit()
		<-s.done
	})
}

// Run calls fn while a spinner shows status on output. fn may update the
// status through its argument. When output is not a terminal fn runs
// without a spinner.
func Run(ctx context.Context, output io.Writer, status string, fn func(ctx context.Context, update func(string)) error) error {
	if output == nil {
		output = os.Stderr
	}
	if !Interactive(output) {
		return fn(ctx, func(string) {})
	}

	s := New(output)
	go func() { _ = s.Start(status) }()
	defer s.Stop()

	return fn(ctx, s.Status)
}

type statusMsg string

type model struct {
	spinner  spinner.Model
	status   string
	width    int
	quitting bool
}

func newModel(status string, width int) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return model{
		spinner: s,
		status:  status,
		width:   width,
	}
}

// Init implements tea.Model.
//
//nolint:gocritic // hugeParam: tea.Model interface requires value receiver
func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
//
//nolint:gocritic // hugeParam: tea.Model interface requires value receiver
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case statusMsg:
		m.status = string(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.QuitMsg:
		m.quitting = true
	}

	return m, nil
}

// View implements tea.Model.
//
//nolint:gocritic // hugeParam: tea.Model interface requires value receiver
func (m model) View() string {
	if m.quitting {
		return ""
	}
	// Spinner glyph plus one space.
	return m.spinner.View() + " " + truncate(m.status, max(m.width-3, 10))
}

// truncate shortens s to at most width runes, ending in "...".
func truncate(s string, width int) string {
	if width <= 3 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}
