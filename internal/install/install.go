// Package install coordinates install and uninstall requests per entry
// identity and reports their progress to observers.
package install

import (
	"context"
	"errors"
	"fmt"
)

// ErrDeclined is returned when the user cancels an install warning.
var ErrDeclined = errors.New("install declined")

// Installer performs installs. Identities are normalized install URLs.
//
//go:generate go run github.com/matryer/moq@latest -pkg mocks -out mocks/installer.go . Installer
type Installer interface {
	// Install installs the entry with the given identity.
	Install(ctx context.Context, identity string) error

	// Uninstall removes the entry with the given identity.
	Uninstall(ctx context.Context, identity string) error

	// IsInstalled reports whether identity is currently installed.
	IsInstalled(identity string) bool

	// Installed lists every installed identity.
	Installed() []string
}

// Confirmer asks the user to approve an action.
//
//go:generate go run github.com/matryer/moq@latest -pkg mocks -out mocks/confirmer.go . Confirmer
type Confirmer interface {
	Confirm(title, description string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(title, description string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(title, description string) (bool, error) {
	return f(title, description)
}

// Op is the kind of request being coordinated.
type Op string

const (
	OpInstall   Op = "install"
	OpUninstall Op = "uninstall"
)

// State is the install state of one identity. Installed and Pending are
// independent: an uninstall in flight still reports Installed.
type State struct {
	Installed bool
	Pending   bool
}

// EventKind classifies an Event.
type EventKind int

const (
	// EventStarted is published when a request is marked pending.
	EventStarted EventKind = iota
	// EventInstalled is published after a successful install.
	EventInstalled
	// EventUninstalled is published after a successful uninstall.
	EventUninstalled
	// EventFailed is published when the installer returns an error.
	EventFailed
	// EventSettled is published last for every request, after pending is cleared.
	EventSettled
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventInstalled:
		return "installed"
	case EventUninstalled:
		return "uninstalled"
	case EventFailed:
		return "failed"
	case EventSettled:
		return "settled"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event reports progress of a request.
type Event struct {
	Kind     EventKind
	Op       Op
	Identity string
	Err      error
}

// InstallerError wraps an error returned by the Installer.
type InstallerError struct {
	Op       Op
	Identity string
	Err      error
}

func (e *InstallerError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Identity, e.Err)
}

func (e *InstallerError) Unwrap() error {
	return e.Err
}
