package catalog

import (
	"maps"
	"sync"

	"github.com/jmgilman/shelf/internal/registry"
)

// Table holds the latest resolved payload and error per source. Results are
// tagged with the fetch cycle that produced them; a result from a cycle
// older than the one already recorded for the same source is discarded, so
// overlapping cycles cannot regress a source to stale data.
type Table struct {
	mu       sync.Mutex
	cycle    uint64
	seen     map[string]uint64
	resolved map[string]registry.Resolved
	errs     map[string]error
}

// Snapshot is a point-in-time copy of a Table.
type Snapshot struct {
	Cycle    uint64
	Resolved map[string]registry.Resolved
	Errors   map[string]error
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		seen:     make(map[string]uint64),
		resolved: make(map[string]registry.Resolved),
		errs:     make(map[string]error),
	}
}

// Begin starts a new fetch cycle and returns its number.
func (t *Table) Begin() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cycle++
	return t.cycle
}

// Apply records a successful fetch. It reports whether the result was kept.
func (t *Table) Apply(cycle uint64, key string, res registry.Resolved) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.accept(cycle, key) {
		return false
	}
	t.resolved[key] = res
	delete(t.errs, key)
	return true
}

// Fail records a failed fetch. The source's previous payload is dropped so
// its entries are absent until a later cycle succeeds.
func (t *Table) Fail(cycle uint64, key string, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.accept(cycle, key) {
		return false
	}
	delete(t.resolved, key)
	t.errs[key] = err
	return true
}

// Forget drops everything known about a source.
func (t *Table) Forget(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.resolved, key)
	delete(t.errs, key)
	delete(t.seen, key)
}

func (t *Table) accept(cycle uint64, key string) bool {
	if cycle < t.seen[key] {
		return false
	}
	t.seen[key] = cycle
	return true
}

// Snapshot copies the current state.
func (t *Table) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		Cycle:    t.cycle,
		Resolved: maps.Clone(t.resolved),
		Errors:   maps.Clone(t.errs),
	}
}
