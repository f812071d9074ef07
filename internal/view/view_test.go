package view

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/shelf/internal/catalog"
	"github.com/jmgilman/shelf/internal/install"
	"github.com/jmgilman/shelf/internal/registry"
	"github.com/jmgilman/shelf/internal/settings"
)

func entry(source, name, status string, authors ...string) catalog.Entry {
	id := "https://plugins.example.com/" + source + "/" + name + "/"
	return catalog.Entry{
		Entry: registry.Entry{
			Identity:    id,
			Name:        name,
			Description: "The " + name + " plugin",
			Authors:     authors,
			Status:      status,
			InstallURL:  id,
		},
		SourceKey: source,
	}
}

func keys(entries []catalog.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Key())
	}
	return out
}

func names(entries []catalog.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func fixture() []catalog.Entry {
	return []catalog.Entry{
		entry("official", "Delta", "working", "Ann"),
		entry("official", "alpha", "broken", "Bob"),
		entry("official", "Charlie", "warning"),
		entry("user", "Bravo", "working", "Ann"),
		entry("user", "alpha", ""),
	}
}

func TestProject_Oldest(t *testing.T) {
	in := fixture()

	got := Project(in, "", settings.SortOldest)

	assert.Equal(t, keys(in), keys(got))
}

func TestProject_NewestIsExactReverse(t *testing.T) {
	in := fixture()
	want := keys(in)
	slices.Reverse(want)

	got := Project(in, "", settings.SortNewest)

	assert.Equal(t, want, keys(got))
	assert.Equal(t, "Delta", in[0].Name, "input is untouched")
}

func TestProject_NameOrders(t *testing.T) {
	in := fixture()

	asc := Project(in, "", settings.SortNameAsc)
	desc := Project(in, "", settings.SortNameDesc)

	assert.Equal(t, []string{"alpha", "alpha", "Bravo", "Charlie", "Delta"}, names(asc))
	assert.Equal(t, []string{"Delta", "Charlie", "Bravo", "alpha", "alpha"}, names(desc))

	// Ties keep aggregation order in both directions.
	assert.Equal(t, "official", asc[0].SourceKey)
	assert.Equal(t, "user", asc[1].SourceKey)
	assert.Equal(t, "official", desc[3].SourceKey)
	assert.Equal(t, "user", desc[4].SourceKey)
}

func TestProject_StatusFirst(t *testing.T) {
	in := fixture()

	working := Project(in, "", settings.SortWorkingFirst)
	broken := Project(in, "", settings.SortBrokenFirst)

	assert.Equal(t, []string{"Bravo", "Delta", "alpha", "alpha", "Charlie"}, names(working))
	assert.Equal(t, "alpha", broken[0].Name)
	assert.Equal(t, "broken", broken[0].Status)
	assert.Equal(t, []string{"alpha", "Bravo", "Charlie", "Delta"}, names(broken[1:]))
}

func TestProject_UnknownSortFallsBackToNewest(t *testing.T) {
	in := fixture()

	got := Project(in, "", settings.SortOrder("popular"))

	assert.Equal(t, keys(Project(in, "", settings.SortNewest)), keys(got))
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "empty query matches all", query: "", want: []string{"Delta", "alpha", "Charlie", "Bravo", "alpha"}},
		{name: "whitespace query matches all", query: "  \t", want: []string{"Delta", "alpha", "Charlie", "Bravo", "alpha"}},
		{name: "name is case insensitive", query: "ALPHA", want: []string{"alpha", "alpha"}},
		{name: "description", query: "the charlie plugin", want: []string{"Charlie"}},
		{name: "author", query: "ann", want: []string{"Delta", "Bravo"}},
		{name: "trailing whitespace is part of the query", query: "plugin ", want: []string{}},
		{name: "leading whitespace is part of the query", query: " delta", want: []string{}},
		{name: "inner whitespace matches", query: "e charlie p", want: []string{"Charlie"}},
		{name: "no match", query: "zulu", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(fixture(), tt.query)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestFilter_UnicodeFolding(t *testing.T) {
	in := []catalog.Entry{entry("official", "Straße Tools", "working")}

	assert.Len(t, Filter(in, "STRASSE"), 1)
	assert.Len(t, Filter(in, "straße"), 1)
}

func TestDecorate(t *testing.T) {
	in := fixture()[:2]
	states := map[string]install.State{
		in[0].Identity: {Installed: true},
		in[1].Identity: {Pending: true},
	}

	rows := Decorate(in, func(id string) install.State { return states[id] })

	require.Len(t, rows, 2)
	assert.Equal(t, in[0].Key(), rows[0].Key())
	assert.True(t, rows[0].State.Installed)
	assert.True(t, rows[1].State.Pending)
	assert.False(t, rows[1].State.Installed)
}
