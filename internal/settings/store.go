// Package settings persists the registry list, enabled set, multi-source
// mode and sort order of the catalog browser.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jmgilman/shelf/internal/kvstore"
	"github.com/jmgilman/shelf/internal/slogger"
)

// DocumentKey is the backend key the settings document is stored under.
const DocumentKey = "settings"

// Sentinel errors for settings operations.
var (
	ErrStorageUnavailable = errors.New("settings storage unavailable")
	ErrUnknownSource      = errors.New("unknown registry source")
	ErrDuplicateKey       = errors.New("registry source key already exists")
	ErrDefaultSource      = errors.New("default registry sources cannot be removed")
	ErrInvalidSource      = errors.New("invalid registry source")
	ErrInvalidSort        = errors.New("invalid sort order")
)

var validate = validator.New()

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// document mirrors Settings with optional fields so a partial persisted
// document can be merged over the defaults.
type document struct {
	Sources     []Source   `json:"sources" yaml:"sources" toml:"sources"`
	EnabledKeys []string   `json:"enabled_keys" yaml:"enabled_keys" toml:"enabled_keys"`
	MultiMode   *bool      `json:"multi_mode" yaml:"multi_mode" toml:"multi_mode"`
	Sort        *SortOrder `json:"sort" yaml:"sort" toml:"sort"`
}

// Store holds the in-memory settings and writes them through to a backend
// once the persisted document has been loaded.
type Store struct {
	backend kvstore.Backend
	key     string
	newKey  func(name string) string

	// writeMu serializes mutations so each write carries the latest state.
	writeMu sync.Mutex

	mu       sync.RWMutex
	current  Settings
	loaded   bool
	degraded bool
}

// Option configures a Store.
type Option func(*Store)

// WithDocumentKey overrides the backend key the document is stored under.
func WithDocumentKey(key string) Option {
	return func(s *Store) {
		s.key = key
	}
}

// WithKeyFunc overrides how keys for new sources are generated.
func WithKeyFunc(fn func(name string) string) Option {
	return func(s *Store) {
		s.newKey = fn
	}
}

// New creates a store serving defaults until Load completes.
func New(backend kvstore.Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		key:     DocumentKey,
		newKey:  GenerateKey,
		current: Defaults(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateKey derives a unique source key from a display name.
func GenerateKey(name string) string {
	slug := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if slug == "" {
		slug = "source"
	}
	return slug + "-" + uuid.NewString()[:8]
}

// Load waits for the backend, reads the persisted document and merges it over
// the defaults. When the backend cannot be read the store keeps serving
// defaults in degraded mode and the returned error wraps ErrStorageUnavailable.
// Context cancellation is returned as is and leaves the store unloaded.
func (s *Store) Load(ctx context.Context) (Settings, error) {
	log := slogger.L(ctx)

	if err := s.backend.Ready(ctx); err != nil {
		if ctx.Err() != nil {
			return s.Current(), ctx.Err()
		}
		return s.degrade(ctx, fmt.Errorf("%w: %w", ErrStorageUnavailable, err))
	}

	raw, ok, err := s.backend.Get(ctx, s.key)
	if err != nil {
		if ctx.Err() != nil {
			return s.Current(), ctx.Err()
		}
		return s.degrade(ctx, fmt.Errorf("%w: read %s: %w", ErrStorageUnavailable, s.key, err))
	}

	loaded := Defaults()
	if ok {
		var doc document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return s.degrade(ctx, fmt.Errorf("%w: decode %s: %w", ErrStorageUnavailable, s.key, err))
		}
		loaded = merge(loaded, doc)
	}
	loaded = normalize(loaded)

	s.writeMu.Lock()
	s.mu.Lock()
	s.current = loaded
	s.loaded = true
	s.degraded = false
	s.mu.Unlock()
	s.writeMu.Unlock()

	log.Debug("settings loaded", "sources", len(loaded.Sources), "enabled", len(loaded.EnabledKeys), "persisted", ok)
	return loaded.Clone(), nil
}

func (s *Store) degrade(ctx context.Context, err error) (Settings, error) {
	slogger.L(ctx).Warn("settings storage unavailable, changes will not be saved", "error", err)

	defaults := Defaults()
	s.writeMu.Lock()
	s.mu.Lock()
	s.current = defaults
	s.loaded = true
	s.degraded = true
	s.mu.Unlock()
	s.writeMu.Unlock()

	return defaults.Clone(), err
}

// merge overlays the fields present in doc onto base.
func merge(base Settings, doc document) Settings {
	if doc.Sources != nil {
		base.Sources = doc.Sources
	}
	if doc.EnabledKeys != nil {
		base.EnabledKeys = doc.EnabledKeys
	}
	if doc.MultiMode != nil {
		base.MultiMode = *doc.MultiMode
	}
	if doc.Sort != nil && doc.Sort.Valid() {
		base.Sort = *doc.Sort
	}
	return base
}

// Current returns a copy of the in-memory settings.
func (s *Store) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Loaded reports whether Load has completed, successfully or degraded.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Degraded reports whether the store fell back to in-memory defaults.
func (s *Store) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

// Set applies a partial update and persists the result.
func (s *Store) Set(ctx context.Context, p Patch) (Settings, error) {
	if p.Sort != nil && !p.Sort.Valid() {
		return s.Current(), fmt.Errorf("%w: %q", ErrInvalidSort, *p.Sort)
	}
	if p.Sources != nil {
		if err := validateSources(*p.Sources); err != nil {
			return s.Current(), err
		}
	}

	return s.mutate(ctx, func(next *Settings) error {
		if p.Sources != nil {
			next.Sources = slices.Clone(*p.Sources)
		}
		if p.EnabledKeys != nil {
			next.EnabledKeys = slices.Clone(*p.EnabledKeys)
		}
		if p.MultiMode != nil {
			next.MultiMode = *p.MultiMode
		}
		if p.Sort != nil {
			next.Sort = *p.Sort
		}
		return nil
	})
}

// Replace swaps in a whole settings document, as used by import.
func (s *Store) Replace(ctx context.Context, next Settings) (Settings, error) {
	return s.Set(ctx, Patch{
		Sources:     &next.Sources,
		EnabledKeys: &next.EnabledKeys,
		MultiMode:   &next.MultiMode,
		Sort:        &next.Sort,
	})
}

// AddSource appends a new registry and enables it. In single mode the new
// source becomes the selected one.
func (s *Store) AddSource(ctx context.Context, name, url string) (Source, error) {
	src := Source{
		Name: strings.TrimSpace(name),
		URL:  strings.TrimSpace(url),
	}
	src.Key = s.newKey(src.Name)
	if err := validateSources([]Source{src}); err != nil {
		return Source{}, err
	}

	_, err := s.mutate(ctx, func(next *Settings) error {
		if _, exists := next.Source(src.Key); exists {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, src.Key)
		}
		next.Sources = append(next.Sources, src)
		if next.MultiMode {
			next.EnabledKeys = append(next.EnabledKeys, src.Key)
		} else {
			next.EnabledKeys = []string{src.Key}
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrStorageUnavailable) {
		return Source{}, err
	}
	return src, err
}

// RemoveSource deletes a registry and drops it from the enabled set.
func (s *Store) RemoveSource(ctx context.Context, key string) (Settings, error) {
	return s.mutate(ctx, func(next *Settings) error {
		src, ok := next.Source(key)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSource, key)
		}
		if IsDefaultSource(src) {
			return fmt.Errorf("%w: %s", ErrDefaultSource, key)
		}
		next.Sources = slices.DeleteFunc(next.Sources, func(x Source) bool {
			return x.Key == key
		})
		next.EnabledKeys = slices.DeleteFunc(next.EnabledKeys, func(k string) bool {
			return k == key
		})
		return nil
	})
}

// SetEnabled adds or removes key from the enabled set. Enabling in single
// mode behaves like Select.
func (s *Store) SetEnabled(ctx context.Context, key string, enabled bool) (Settings, error) {
	return s.mutate(ctx, func(next *Settings) error {
		return setEnabled(next, key, enabled)
	})
}

// Toggle flips whether key is enabled.
func (s *Store) Toggle(ctx context.Context, key string) (Settings, error) {
	return s.mutate(ctx, func(next *Settings) error {
		return setEnabled(next, key, !next.IsEnabled(key))
	})
}

func setEnabled(next *Settings, key string, enabled bool) error {
	if _, ok := next.Source(key); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSource, key)
	}
	next.EnabledKeys = slices.DeleteFunc(next.EnabledKeys, func(k string) bool {
		return k == key
	})
	if enabled {
		if next.MultiMode {
			next.EnabledKeys = append(next.EnabledKeys, key)
		} else {
			next.EnabledKeys = []string{key}
		}
	}
	return nil
}

// Select replaces the enabled set with exactly key.
func (s *Store) Select(ctx context.Context, key string) (Settings, error) {
	return s.mutate(ctx, func(next *Settings) error {
		if _, ok := next.Source(key); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSource, key)
		}
		next.EnabledKeys = []string{key}
		return nil
	})
}

// SetMultiMode switches multi-source mode. Turning it off keeps only the
// first enabled source in display order.
func (s *Store) SetMultiMode(ctx context.Context, on bool) (Settings, error) {
	return s.Set(ctx, Patch{MultiMode: &on})
}

// SetSort changes the persisted sort order.
func (s *Store) SetSort(ctx context.Context, order SortOrder) (Settings, error) {
	return s.Set(ctx, Patch{Sort: &order})
}

// mutate applies fn to a copy of the current settings, normalizes the result,
// swaps it in and writes it through when allowed. Before Load and in degraded
// mode the change stays in memory.
func (s *Store) mutate(ctx context.Context, fn func(*Settings) error) (Settings, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	next := s.current.Clone()
	persist := s.loaded && !s.degraded
	s.mu.RUnlock()

	if err := fn(&next); err != nil {
		return s.Current(), err
	}
	next = normalize(next)

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	if !persist {
		slogger.L(ctx).Debug("settings changed in memory only", "loaded", s.Loaded(), "degraded", s.Degraded())
		return next.Clone(), nil
	}

	data, err := json.Marshal(next)
	if err != nil {
		return next.Clone(), fmt.Errorf("encode settings: %w", err)
	}
	if err := s.backend.Set(ctx, s.key, data); err != nil {
		return next.Clone(), fmt.Errorf("%w: write %s: %w", ErrStorageUnavailable, s.key, err)
	}
	return next.Clone(), nil
}

// validateSources checks each source's fields and key uniqueness.
func validateSources(sources []Source) error {
	seen := make(map[string]bool, len(sources))
	for _, src := range sources {
		if err := validate.Struct(src); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSource, err)
		}
		if seen[src.Key] {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, src.Key)
		}
		seen[src.Key] = true
	}
	return nil
}
