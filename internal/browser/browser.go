// Package browser ties settings, registry fetching, aggregation and install
// state together into a browsing session.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jmgilman/shelf/internal/catalog"
	"github.com/jmgilman/shelf/internal/install"
	"github.com/jmgilman/shelf/internal/registry"
	"github.com/jmgilman/shelf/internal/settings"
	"github.com/jmgilman/shelf/internal/slogger"
	"github.com/jmgilman/shelf/internal/view"
)

// ErrLoadFailed is returned when settings could not be established at all.
// An unavailable backend is not a load failure: the session continues on
// defaults.
var ErrLoadFailed = errors.New("failed to load settings")

// CatalogRecorder observes the size of every aggregated catalog.
type CatalogRecorder interface {
	SetCatalogEntries(n int)
}

// SourceStatus describes one enabled source after the latest cycle.
type SourceStatus struct {
	Source  settings.Source
	Loading bool
	Entries int
	Err     error
}

// Session is a catalog browsing session.
type Session struct {
	store       *settings.Store
	client      registry.Client
	coordinator *install.Coordinator
	table       *catalog.Table
	recorder    CatalogRecorder

	mu sync.Mutex
	// loading maps a source key to the newest cycle fetching it.
	loading map[string]uint64
}

// Option configures a Session.
type Option func(*Session)

// WithCatalogRecorder reports catalog sizes to r.
func WithCatalogRecorder(r CatalogRecorder) Option {
	return func(s *Session) {
		s.recorder = r
	}
}

// New creates a session.
func New(store *settings.Store, client registry.Client, coordinator *install.Coordinator, opts ...Option) *Session {
	s := &Session{
		store:       store,
		client:      client,
		coordinator: coordinator,
		table:       catalog.NewTable(),
		loading:     make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Settings returns the settings store of the session.
func (s *Session) Settings() *settings.Store {
	return s.store
}

// Coordinator returns the install coordinator of the session.
func (s *Session) Coordinator() *install.Coordinator {
	return s.coordinator
}

// Open loads the persisted settings. When storage is unavailable the store
// logs it and the session continues on defaults.
func (s *Session) Open(ctx context.Context) error {
	_, err := s.store.Load(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, settings.ErrStorageUnavailable):
		return nil
	default:
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
}

// Refresh runs one fetch cycle over every enabled source and waits for all
// of them to settle. Per-source failures are recorded, never returned.
func (s *Session) Refresh(ctx context.Context) ([]registry.Result, error) {
	if !s.store.Loaded() {
		if err := s.Open(ctx); err != nil {
			return nil, err
		}
	}

	cur := s.store.Current()
	s.forgetRemoved(cur.Sources)

	enabled := cur.EnabledSources()
	if len(enabled) == 0 {
		s.observe(cur)
		return nil, nil
	}

	cycle := s.table.Begin()
	s.startLoading(enabled, cycle)
	defer s.stopLoading(enabled, cycle)

	log := slogger.L(ctx).With("cycle", cycle)
	log.Debug("fetch cycle started", "sources", len(enabled))

	results := s.client.FetchAll(ctx, enabled)
	for _, r := range results {
		if r.Err != nil {
			if s.table.Fail(cycle, r.Source.Key, r.Err) {
				log.Info("registry unavailable", "source", r.Source.Key, "error", r.Err)
			}
			continue
		}
		if !s.table.Apply(cycle, r.Source.Key, r.Resolved) {
			log.Debug("discarded stale result", "source", r.Source.Key)
		}
	}

	s.observe(s.store.Current())
	return results, nil
}

func (s *Session) forgetRemoved(sources []settings.Source) {
	known := make(map[string]bool, len(sources))
	for _, src := range sources {
		known[src.Key] = true
	}
	snap := s.table.Snapshot()
	for key := range snap.Resolved {
		if !known[key] {
			s.table.Forget(key)
		}
	}
	for key := range snap.Errors {
		if !known[key] {
			s.table.Forget(key)
		}
	}
}

func (s *Session) startLoading(sources []settings.Source, cycle uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, src := range sources {
		if cycle > s.loading[src.Key] {
			s.loading[src.Key] = cycle
		}
	}
}

// stopLoading clears the flag only for sources whose newest cycle is this
// one. An older cycle finishing late leaves a newer cycle loading.
func (s *Session) stopLoading(sources []settings.Source, cycle uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, src := range sources {
		if s.loading[src.Key] == cycle {
			delete(s.loading, src.Key)
		}
	}
}

func (s *Session) observe(cur settings.Settings) {
	if s.recorder == nil {
		return
	}
	s.recorder.SetCatalogEntries(len(s.aggregate(cur)))
}

func (s *Session) aggregate(cur settings.Settings) []catalog.Entry {
	snap := s.table.Snapshot()
	return catalog.Aggregate(cur.Sources, cur.EnabledSet(), snap.Resolved)
}

// Catalog aggregates the latest results of the enabled sources.
func (s *Session) Catalog() []catalog.Entry {
	return s.aggregate(s.store.Current())
}

// Sources reports the state of every enabled source in display order.
func (s *Session) Sources() []SourceStatus {
	cur := s.store.Current()
	snap := s.table.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []SourceStatus
	for _, src := range cur.EnabledSources() {
		st := SourceStatus{
			Source:  src,
			Loading: s.loading[src.Key] != 0,
			Err:     snap.Errors[src.Key],
		}
		if res, ok := snap.Resolved[src.Key]; ok {
			st.Entries = res.Len()
		}
		out = append(out, st)
	}
	return out
}

// Errors returns the last fetch error of every enabled source that failed.
func (s *Session) Errors() map[string]error {
	out := make(map[string]error)
	for _, st := range s.Sources() {
		if st.Err != nil {
			out[st.Source.Key] = st.Err
		}
	}
	return out
}

// View filters, sorts and decorates the catalog. An empty sort uses the
// persisted order.
func (s *Session) View(query string, sort settings.SortOrder) []view.Row {
	cur := s.store.Current()
	if sort == "" {
		sort = cur.Sort
	}
	entries := view.Project(s.aggregate(cur), query, sort)
	return view.Decorate(entries, s.coordinator.State)
}

// Find returns the catalog entries matching ref, which is either an
// identity (with or without trailing slash) or an entry name compared
// case-insensitively.
func (s *Session) Find(ref string) []catalog.Entry {
	entries := s.Catalog()
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}

	if byID := catalog.FindByIdentity(entries, registry.NormalizeIdentity(ref)); len(byID) > 0 {
		return byID
	}

	var out []catalog.Entry
	for _, e := range entries {
		if strings.EqualFold(e.Name, ref) {
			out = append(out, e)
		}
	}
	return out
}

// Watch calls fn with a freshly decorated view whenever an install request
// changes state. The catalog is not re-fetched. The returned function stops
// watching.
func (s *Session) Watch(query string, sort settings.SortOrder, fn func(install.Event, []view.Row)) (stop func()) {
	return s.coordinator.Subscribe(func(ev install.Event) {
		switch ev.Kind {
		case install.EventStarted, install.EventSettled:
			fn(ev, s.View(query, sort))
		}
	})
}
