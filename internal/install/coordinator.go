package install

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jmgilman/shelf/internal/catalog"
	"github.com/jmgilman/shelf/internal/prompt"
	"github.com/jmgilman/shelf/internal/slogger"
)

// Install outcomes reported to a Recorder.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Recorder observes completed requests.
type Recorder interface {
	ObserveInstall(op, outcome string)
}

// Coordinator guards install and uninstall requests so at most one request
// per identity is in flight. Installed state is always read through to the
// Installer and never cached.
type Coordinator struct {
	installer Installer
	recorder  Recorder

	// mu guards pending only and is never held across installer calls.
	mu      sync.Mutex
	pending map[string]Op

	subMu   sync.RWMutex
	subs    map[int]func(Event)
	nextSub int
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRecorder reports every completed request to r.
func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) {
		c.recorder = r
	}
}

// NewCoordinator creates a coordinator around installer.
func NewCoordinator(installer Installer, opts ...Option) *Coordinator {
	c := &Coordinator{
		installer: installer,
		pending:   make(map[string]Op),
		subs:      make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Install installs identity. A request for an identity that is already
// pending is a no-op and returns nil.
func (c *Coordinator) Install(ctx context.Context, identity string) error {
	_, err := c.run(ctx, OpInstall, identity)
	return err
}

// Uninstall removes identity, with the same pending guard as Install.
func (c *Coordinator) Uninstall(ctx context.Context, identity string) error {
	_, err := c.run(ctx, OpUninstall, identity)
	return err
}

// run executes op unless a request for identity is already pending. It
// reports whether the installer was called.
func (c *Coordinator) run(ctx context.Context, op Op, identity string) (bool, error) {
	log := slogger.L(ctx).With("op", op, "identity", identity)

	c.mu.Lock()
	if inflight, busy := c.pending[identity]; busy {
		c.mu.Unlock()
		log.Debug("request ignored, already pending", "inflight", inflight)
		return false, nil
	}
	c.pending[identity] = op
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, identity)
		c.mu.Unlock()
		c.publish(Event{Kind: EventSettled, Op: op, Identity: identity})
	}()

	c.publish(Event{Kind: EventStarted, Op: op, Identity: identity})

	var err error
	switch op {
	case OpInstall:
		err = c.installer.Install(ctx, identity)
	case OpUninstall:
		err = c.installer.Uninstall(ctx, identity)
	default:
		err = fmt.Errorf("unknown operation %q", op)
	}

	if err != nil {
		c.observe(op, OutcomeFailed)
		log.Info("request failed", "error", err)
		c.publish(Event{Kind: EventFailed, Op: op, Identity: identity, Err: err})
		return true, &InstallerError{Op: op, Identity: identity, Err: err}
	}

	c.observe(op, OutcomeOK)
	log.Info("request completed")
	if op == OpInstall {
		c.publish(Event{Kind: EventInstalled, Op: op, Identity: identity})
	} else {
		c.publish(Event{Kind: EventUninstalled, Op: op, Identity: identity})
	}
	return true, nil
}

func (c *Coordinator) observe(op Op, outcome string) {
	if c.recorder != nil {
		c.recorder.ObserveInstall(string(op), outcome)
	}
}

// PromptThenInstall installs entry, first asking confirmer when the entry
// carries a warning. Declining returns ErrDeclined without touching the
// installer. The returned bool reports whether this call installed entry.
func (c *Coordinator) PromptThenInstall(ctx context.Context, entry catalog.Entry, confirmer Confirmer) (bool, error) {
	if w, ok := WarningFor(entry.Entry); ok {
		if confirmer == nil {
			return false, ErrDeclined
		}
		approved, err := confirmer.Confirm(w.Title, w.Description())
		if err != nil {
			if errors.Is(err, prompt.ErrCanceled) {
				return false, ErrDeclined
			}
			return false, fmt.Errorf("confirm install: %w", err)
		}
		if !approved {
			return false, ErrDeclined
		}
	}

	ran, err := c.run(ctx, OpInstall, entry.Identity)
	return ran && err == nil, err
}

// State returns the install state of identity.
func (c *Coordinator) State(identity string) State {
	return State{
		Installed: c.Installed(identity),
		Pending:   c.Pending(identity),
	}
}

// Pending reports whether a request for identity is in flight.
func (c *Coordinator) Pending(identity string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[identity]
	return ok
}

// Installed reads installed state from the Installer.
func (c *Coordinator) Installed(identity string) bool {
	return c.installer.IsInstalled(identity)
}

// Subscribe registers fn for every subsequent event and returns a function
// that removes it. fn runs synchronously on the requesting goroutine.
func (c *Coordinator) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
		})
	}
}

func (c *Coordinator) publish(ev Event) {
	c.subMu.RLock()
	fns := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
