package install

import (
	"strings"

	"github.com/jmgilman/shelf/internal/registry"
)

// Entry statuses with dedicated warning text. Any other non-empty status is
// shown verbatim.
const (
	StatusWorking = "working"
	StatusBroken  = "broken"
	StatusWarning = "warning"
)

// Warning is the confirmation shown before installing a flagged entry.
type Warning struct {
	Title   string
	Summary string
	Lines   []string

	// Action is the label of the affirmative choice.
	Action string

	Broken bool
}

// Description joins the summary and detail lines for a confirm prompt.
func (w Warning) Description() string {
	return w.Summary + "\n\n" + strings.Join(w.Lines, "\n")
}

// NeedsWarning reports whether installing e must be confirmed first: its
// status is set and not "working", or it carries a warning message. An
// empty status is nominal.
func NeedsWarning(e registry.Entry) bool {
	return (e.Status != "" && e.Status != StatusWorking) ||
		strings.TrimSpace(e.WarningMessage) != ""
}

// WarningFor builds the warning for e. ok is false when none is needed.
func WarningFor(e registry.Entry) (w Warning, ok bool) {
	if !NeedsWarning(e) {
		return Warning{}, false
	}

	var lines []string
	if e.Status != "" && e.Status != StatusWorking {
		switch e.Status {
		case StatusBroken:
			lines = append(lines, "This plugin is marked as BROKEN by the repository.")
		case StatusWarning:
			lines = append(lines, "This plugin may have issues on mobile.")
		default:
			lines = append(lines, "Status: "+e.Status)
		}
	}
	if msg := strings.TrimSpace(e.WarningMessage); msg != "" {
		lines = append(lines, msg)
	}

	w = Warning{
		Title:   "Plugin Warning",
		Summary: "This plugin may have issues on mobile devices.",
		Lines:   lines,
		Action:  "Install with Warning",
	}
	if e.Status == StatusBroken {
		w.Summary = "This plugin is marked as broken and may not work properly."
		w.Action = "Install Anyway"
		w.Broken = true
	}
	return w, true
}
