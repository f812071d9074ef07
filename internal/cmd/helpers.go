package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/jmgilman/shelf/internal/browser"
	"github.com/jmgilman/shelf/internal/catalog"
	"github.com/jmgilman/shelf/internal/install"
	"github.com/jmgilman/shelf/internal/prompt"
	"github.com/jmgilman/shelf/internal/registry"
	"github.com/jmgilman/shelf/internal/spinner"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

// Sentinel errors for entry lookup.
var (
	errNoMatch   = errors.New("no plugin matches")
	errAmbiguous = errors.New("more than one plugin matches")
)

// newPrompter creates the prompter used by interactive commands.
var newPrompter = func() prompt.Prompter {
	return prompt.New(false)
}

// interactive reports whether the user can answer prompts.
var interactive = func() bool {
	return spinner.Interactive(os.Stdin) && spinner.Interactive(os.Stdout)
}

// statusText colors an entry status for terminal output.
func statusText(status string) string {
	switch status {
	case install.StatusWorking:
		return green(status)
	case install.StatusBroken:
		return red(status)
	case install.StatusWarning:
		return yellow(status)
	case "":
		return dim("-")
	default:
		return yellow(status)
	}
}

// stateText renders the install state of a row.
func stateText(st install.State) string {
	switch {
	case st.Pending && st.Installed:
		return cyan("removing")
	case st.Pending:
		return cyan("installing")
	case st.Installed:
		return green("installed")
	default:
		return dim("-")
	}
}

// resolveEntry finds the catalog entry named by ref. When several entries
// share one identity the entry carrying a warning wins, so a flag set by any
// registry is never skipped. Entries with different identities are
// ambiguous unless the user picks one.
func resolveEntry(session *browser.Session, ref string, pick func([]catalog.Entry) (int, error)) (catalog.Entry, error) {
	matches := session.Find(ref)
	if len(matches) == 0 {
		return catalog.Entry{}, fmt.Errorf("%w %q", errNoMatch, ref)
	}

	byIdentity := make(map[string]catalog.Entry)
	var order []string
	for _, e := range matches {
		cur, seen := byIdentity[e.Identity]
		if !seen {
			order = append(order, e.Identity)
			byIdentity[e.Identity] = e
			continue
		}
		if !install.NeedsWarning(cur.Entry) && install.NeedsWarning(e.Entry) {
			byIdentity[e.Identity] = e
		}
	}

	if len(order) == 1 {
		return byIdentity[order[0]], nil
	}

	candidates := make([]catalog.Entry, 0, len(order))
	for _, id := range order {
		candidates = append(candidates, byIdentity[id])
	}
	if pick == nil {
		return catalog.Entry{}, fmt.Errorf("%w %q, use the identity instead:\n  %s",
			errAmbiguous, ref, strings.Join(order, "\n  "))
	}
	i, err := pick(candidates)
	if err != nil {
		return catalog.Entry{}, err
	}
	return candidates[i], nil
}

// pickWith asks p to choose among entries.
func pickWith(p prompt.Prompter) func([]catalog.Entry) (int, error) {
	return func(entries []catalog.Entry) (int, error) {
		options := make([]string, len(entries))
		for i, e := range entries {
			options[i] = fmt.Sprintf("%s (%s) %s", e.Name, e.SourceName, e.Identity)
		}
		return p.Choice("Several plugins match, pick one", options, 0)
	}
}

// looksLikeURL reports whether ref can be used as an identity directly.
func looksLikeURL(ref string) bool {
	return strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://")
}

// identityOf normalizes a user supplied identity.
func identityOf(ref string) string {
	return registry.NormalizeIdentity(strings.TrimSpace(ref))
}
