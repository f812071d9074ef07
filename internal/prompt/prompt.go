// Package prompt asks the user questions in the terminal using
// charmbracelet/huh.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
)

// ErrCanceled is returned when the user aborts a prompt.
var ErrCanceled = errors.New("canceled by user")

// Prompter abstracts user interaction for testability.
//
//go:generate go run github.com/matryer/moq@latest -pkg mocks -out mocks/prompter.go . Prompter
type Prompter interface {
	// Confirm asks a yes/no question.
	Confirm(title, description string) (bool, error)

	// ConfirmAction asks a yes/no question with a custom affirmative label.
	ConfirmAction(title, description, action string) (bool, error)

	// Input asks for a line of text. validate may be nil.
	Input(title, placeholder string, validate func(string) error) (string, error)

	// Choice asks the user to pick one option and returns its index.
	Choice(title string, options []string, selected int) (int, error)
}

// HuhPrompter implements Prompter with interactive huh forms.
type HuhPrompter struct {
	accessible bool
}

// New creates a HuhPrompter. Accessible mode renders plain line-based
// prompts, which is what non-interactive terminals and tests need.
func New(accessible bool) *HuhPrompter {
	return &HuhPrompter{accessible: accessible}
}

func (p *HuhPrompter) run(field huh.Field) error {
	err := huh.NewForm(huh.NewGroup(field)).
		WithAccessible(p.accessible).
		WithShowHelp(false).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrCanceled
	}
	return err
}

// Confirm asks a yes/no question.
func (p *HuhPrompter) Confirm(title, description string) (bool, error) {
	return p.ConfirmAction(title, description, "Yes")
}

// ConfirmAction asks a yes/no question whose affirmative choice reads action.
func (p *HuhPrompter) ConfirmAction(title, description, action string) (bool, error) {
	var confirmed bool

	err := p.run(huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative(action).
		Negative("Cancel").
		Value(&confirmed))
	if err != nil {
		if errors.Is(err, ErrCanceled) {
			return false, err
		}
		return false, fmt.Errorf("confirm prompt: %w", err)
	}

	return confirmed, nil
}

// Input asks for a line of text. The answer is trimmed.
func (p *HuhPrompter) Input(title, placeholder string, validate func(string) error) (string, error) {
	var value string

	input := huh.NewInput().
		Title(title).
		Placeholder(placeholder).
		Value(&value)
	if validate != nil {
		input = input.Validate(func(s string) error {
			return validate(strings.TrimSpace(s))
		})
	}

	if err := p.run(input); err != nil {
		if errors.Is(err, ErrCanceled) {
			return "", err
		}
		return "", fmt.Errorf("input prompt: %w", err)
	}

	return strings.TrimSpace(value), nil
}

// Choice asks the user to pick one of options. selected is the index that
// is highlighted initially.
func (p *HuhPrompter) Choice(title string, options []string, selected int) (int, error) {
	if len(options) == 0 {
		return 0, errors.New("no options provided")
	}

	opts := make([]huh.Option[int], len(options))
	for i, label := range options {
		opts[i] = huh.NewOption(label, i)
	}
	if selected < 0 || selected >= len(options) {
		selected = 0
	}

	if err := p.run(huh.NewSelect[int]().
		Title(title).
		Options(opts...).
		Value(&selected)); err != nil {
		if errors.Is(err, ErrCanceled) {
			return 0, err
		}
		return 0, fmt.Errorf("choice prompt: %w", err)
	}

	return selected, nil
}
