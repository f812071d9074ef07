// Package catalog merges the resolved registries into one ordered list of
// entries tagged with the source they came from.
package catalog

import (
	"github.com/jmgilman/shelf/internal/registry"
	"github.com/jmgilman/shelf/internal/settings"
)

// Section identifies which part of a registry document an entry came from.
type Section string

const (
	SectionOfficial Section = "official"
	SectionUser     Section = "user"
)

// Entry is a registry entry tagged with its source.
type Entry struct {
	registry.Entry

	SourceKey  string
	SourceName string
	Section    Section
}

// Key returns the row key of the entry. The same identity published by two
// sources yields two distinct keys.
func (e Entry) Key() string {
	return e.SourceKey + "-" + e.Identity
}

// Aggregate walks sources in display order and appends the official then
// user entries of every enabled source that has a resolved payload. Entries
// are never deduplicated.
func Aggregate(sources []settings.Source, enabled map[string]bool, resolved map[string]registry.Resolved) []Entry {
	var entries []Entry
	for _, src := range sources {
		if !enabled[src.Key] {
			continue
		}
		res, ok := resolved[src.Key]
		if !ok {
			continue
		}
		entries = appendTagged(entries, src, SectionOfficial, res.Official)
		entries = appendTagged(entries, src, SectionUser, res.User)
	}
	return entries
}

func appendTagged(dst []Entry, src settings.Source, section Section, items []registry.Entry) []Entry {
	for _, item := range items {
		dst = append(dst, Entry{
			Entry:      item,
			SourceKey:  src.Key,
			SourceName: src.Name,
			Section:    section,
		})
	}
	return dst
}

// FindByIdentity returns the entries whose identity equals identity, in
// catalog order.
func FindByIdentity(entries []Entry, identity string) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Identity == identity {
			out = append(out, e)
		}
	}
	return out
}
