package settings

import (
	"fmt"
	"slices"
	"strings"
)

// SortOrder selects how the catalog view is ordered.
type SortOrder string

// Supported sort orders.
const (
	SortNewest       SortOrder = "newest"
	SortOldest       SortOrder = "oldest"
	SortNameAsc      SortOrder = "name-asc"
	SortNameDesc     SortOrder = "name-desc"
	SortWorkingFirst SortOrder = "working-first"
	SortBrokenFirst  SortOrder = "broken-first"
)

// DefaultSort is used when no valid sort order has been persisted.
const DefaultSort = SortNewest

var sortLabels = map[SortOrder]string{
	SortNewest:       "Newest First",
	SortOldest:       "Oldest First",
	SortNameAsc:      "A to Z",
	SortNameDesc:     "Z to A",
	SortWorkingFirst: "Working First",
	SortBrokenFirst:  "Broken First",
}

// SortOrders returns every sort order in display order.
func SortOrders() []SortOrder {
	return []SortOrder{
		SortNewest,
		SortOldest,
		SortNameAsc,
		SortNameDesc,
		SortWorkingFirst,
		SortBrokenFirst,
	}
}

// Label returns the human readable name of the sort order.
func (o SortOrder) Label() string {
	if label, ok := sortLabels[o]; ok {
		return label
	}
	return string(o)
}

// Valid reports whether o is a known sort order.
func (o SortOrder) Valid() bool {
	_, ok := sortLabels[o]
	return ok
}

// ParseSortOrder accepts either the identifier ("name-asc") or the label
// ("A to Z"), case-insensitively.
func ParseSortOrder(s string) (SortOrder, error) {
	s = strings.TrimSpace(s)
	for _, o := range SortOrders() {
		if strings.EqualFold(s, string(o)) || strings.EqualFold(s, o.Label()) {
			return o, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSort, s)
}

// Source is one remote registry the catalog is assembled from.
type Source struct {
	Key  string `json:"key" yaml:"key" toml:"key" validate:"required"`
	Name string `json:"name" yaml:"name" toml:"name" validate:"required"`
	URL  string `json:"url" yaml:"url" toml:"url" validate:"required,url"`
}

// Settings is the persisted browser configuration.
type Settings struct {
	// Sources are kept in display order. Keys are unique.
	Sources []Source `json:"sources" yaml:"sources" toml:"sources" validate:"dive"`

	// EnabledKeys has set semantics and is kept in source order.
	EnabledKeys []string `json:"enabled_keys" yaml:"enabled_keys" toml:"enabled_keys"`

	// MultiMode allows more than one source to be enabled at once.
	MultiMode bool `json:"multi_mode" yaml:"multi_mode" toml:"multi_mode"`

	Sort SortOrder `json:"sort" yaml:"sort" toml:"sort"`
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Sources     *[]Source
	EnabledKeys *[]string
	MultiMode   *bool
	Sort        *SortOrder
}

// DefaultSources returns the built-in registries.
func DefaultSources() []Source {
	return []Source{
		{
			Key:  "official",
			Name: "Official Plugins",
			URL:  "https://raw.githubusercontent.com/ApexTeamPL/Plugins-List/refs/heads/main/offical-plugins.json",
		},
		{
			Key:  "user",
			Name: "User Plugins",
			URL:  "https://raw.githubusercontent.com/ApexTeamPL/Plugins-List/refs/heads/main/user-plugins.json",
		},
	}
}

// IsDefaultSource reports whether src is one of the built-in registries.
// Both key and URL must match.
func IsDefaultSource(src Source) bool {
	for _, d := range DefaultSources() {
		if d.Key == src.Key && d.URL == src.URL {
			return true
		}
	}
	return false
}

// Defaults returns the settings used when nothing has been persisted.
func Defaults() Settings {
	sources := DefaultSources()
	keys := make([]string, 0, len(sources))
	for _, src := range sources {
		keys = append(keys, src.Key)
	}
	return Settings{
		Sources:     sources,
		EnabledKeys: keys,
		MultiMode:   true,
		Sort:        DefaultSort,
	}
}

// Clone returns a deep copy of s.
func (s Settings) Clone() Settings {
	s.Sources = slices.Clone(s.Sources)
	s.EnabledKeys = slices.Clone(s.EnabledKeys)
	return s
}

// Source looks up a source by key.
func (s Settings) Source(key string) (Source, bool) {
	for _, src := range s.Sources {
		if src.Key == key {
			return src, true
		}
	}
	return Source{}, false
}

// IsEnabled reports whether the source with key is enabled.
func (s Settings) IsEnabled(key string) bool {
	return slices.Contains(s.EnabledKeys, key)
}

// EnabledSources returns the enabled sources in display order.
func (s Settings) EnabledSources() []Source {
	var out []Source
	for _, src := range s.Sources {
		if s.IsEnabled(src.Key) {
			out = append(out, src)
		}
	}
	return out
}

// EnabledSet returns the enabled keys as a set.
func (s Settings) EnabledSet() map[string]bool {
	set := make(map[string]bool, len(s.EnabledKeys))
	for _, k := range s.EnabledKeys {
		set[k] = true
	}
	return set
}

// normalize enforces the invariants of a settings document: enabled keys
// reference existing sources, appear once, follow source order and are
// collapsed to at most one when multi mode is off.
func normalize(s Settings) Settings {
	if s.Sources == nil {
		s.Sources = []Source{}
	}

	want := s.EnabledSet()
	keys := make([]string, 0, len(want))
	seen := make(map[string]bool, len(s.Sources))
	for _, src := range s.Sources {
		if want[src.Key] && !seen[src.Key] {
			keys = append(keys, src.Key)
			seen[src.Key] = true
		}
	}
	if !s.MultiMode && len(keys) > 1 {
		keys = keys[:1]
	}
	s.EnabledKeys = keys

	if !s.Sort.Valid() {
		s.Sort = DefaultSort
	}
	return s
}
