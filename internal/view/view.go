// Package view projects the aggregated catalog into what the user sees:
// filtered by a search query, sorted, and decorated with install state.
package view

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/jmgilman/shelf/internal/catalog"
	"github.com/jmgilman/shelf/internal/install"
	"github.com/jmgilman/shelf/internal/settings"
)

// Row is a catalog entry together with its install state.
type Row struct {
	catalog.Entry
	State install.State
}

// StateFunc reports the install state of an identity.
type StateFunc func(identity string) install.State

// Project filters entries by query and orders them by sort. The input is
// never modified. A query consisting only of whitespace matches everything.
func Project(entries []catalog.Entry, query string, sort settings.SortOrder) []catalog.Entry {
	out := Filter(entries, query)
	Sort(out, sort)
	return out
}

// Filter returns the entries whose name, description or any author contains
// query, compared with Unicode case folding. The query is matched as typed,
// including surrounding whitespace.
func Filter(entries []catalog.Entry, query string) []catalog.Entry {
	if strings.TrimSpace(query) == "" {
		return slices.Clone(entries)
	}

	fold := cases.Fold()
	q := fold.String(query)
	contains := func(s string) bool {
		return strings.Contains(fold.String(s), q)
	}

	out := make([]catalog.Entry, 0, len(entries))
	for _, e := range entries {
		if contains(e.Name) || contains(e.Description) || slices.ContainsFunc(e.Authors, contains) {
			out = append(out, e)
		}
	}
	return out
}

// Sort orders entries in place. All orders are stable: entries that compare
// equal keep their aggregation order. Unknown orders fall back to the
// default.
func Sort(entries []catalog.Entry, sort settings.SortOrder) {
	if !sort.Valid() {
		sort = settings.DefaultSort
	}

	switch sort {
	case settings.SortOldest:
		return
	case settings.SortNewest:
		slices.Reverse(entries)
		return
	}

	col := collate.New(language.English)
	byName := func(a, b catalog.Entry) int {
		return col.CompareString(a.Name, b.Name)
	}

	switch sort {
	case settings.SortNameAsc:
		slices.SortStableFunc(entries, byName)
	case settings.SortNameDesc:
		slices.SortStableFunc(entries, func(a, b catalog.Entry) int {
			return byName(b, a)
		})
	case settings.SortWorkingFirst:
		slices.SortStableFunc(entries, statusFirst(install.StatusWorking, byName))
	case settings.SortBrokenFirst:
		slices.SortStableFunc(entries, statusFirst(install.StatusBroken, byName))
	}
}

// statusFirst puts entries with status ahead of the rest and orders each
// partition with then.
func statusFirst(status string, then func(a, b catalog.Entry) int) func(a, b catalog.Entry) int {
	return func(a, b catalog.Entry) int {
		am, bm := a.Status == status, b.Status == status
		switch {
		case am && !bm:
			return -1
		case !am && bm:
			return 1
		}
		return then(a, b)
	}
}

// Decorate attaches the install state reported by state to every entry.
func Decorate(entries []catalog.Entry, state StateFunc) []Row {
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, Row{Entry: e, State: state(e.Identity)})
	}
	return rows
}
