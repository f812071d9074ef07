package install_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/shelf/internal/catalog"
	"github.com/jmgilman/shelf/internal/install"
	"github.com/jmgilman/shelf/internal/install/mocks"
	"github.com/jmgilman/shelf/internal/prompt"
	"github.com/jmgilman/shelf/internal/registry"
)

const pluginID = "https://plugins.example.com/cool/"

var errInstall = errors.New("manifest download failed")

type eventLog struct {
	mu     sync.Mutex
	events []install.Event
}

func (l *eventLog) record(ev install.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) kinds() []install.EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]install.EventKind, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev.Kind)
	}
	return out
}

// fakeRecorder counts outcomes per op.
type fakeRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *fakeRecorder) ObserveInstall(op, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[op+"/"+outcome]++
}

func newInstaller() *mocks.InstallerMock {
	return &mocks.InstallerMock{
		InstallFunc:     func(context.Context, string) error { return nil },
		UninstallFunc:   func(context.Context, string) error { return nil },
		IsInstalledFunc: func(string) bool { return false },
		InstalledFunc:   func() []string { return nil },
	}
}

func waitPending(t *testing.T, c *install.Coordinator, id string) {
	t.Helper()
	require.Eventually(t, func() bool { return c.Pending(id) }, time.Second, time.Millisecond)
}

func TestCoordinator_Install(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes started, installed and settled", func(t *testing.T) {
		installer := newInstaller()
		rec := &fakeRecorder{}
		c := install.NewCoordinator(installer, install.WithRecorder(rec))
		log := &eventLog{}
		c.Subscribe(log.record)

		err := c.Install(ctx, pluginID)

		require.NoError(t, err)
		require.Len(t, installer.InstallCalls(), 1)
		assert.Equal(t, pluginID, installer.InstallCalls()[0].Identity)
		assert.Equal(t, []install.EventKind{install.EventStarted, install.EventInstalled, install.EventSettled}, log.kinds())
		assert.False(t, c.Pending(pluginID))
		assert.Equal(t, 1, rec.counts["install/ok"])
	})

	t.Run("second request while pending is a no-op", func(t *testing.T) {
		release := make(chan struct{})
		installer := newInstaller()
		installer.InstallFunc = func(context.Context, string) error {
			<-release
			return nil
		}
		c := install.NewCoordinator(installer)

		done := make(chan error, 1)
		go func() { done <- c.Install(ctx, pluginID) }()
		waitPending(t, c, pluginID)

		assert.NoError(t, c.Install(ctx, pluginID))
		assert.NoError(t, c.Uninstall(ctx, pluginID))

		close(release)
		require.NoError(t, <-done)
		assert.Len(t, installer.InstallCalls(), 1)
		assert.Empty(t, installer.UninstallCalls())
		assert.False(t, c.Pending(pluginID))
	})

	t.Run("different identities run concurrently", func(t *testing.T) {
		release := make(chan struct{})
		installer := newInstaller()
		installer.InstallFunc = func(context.Context, string) error {
			<-release
			return nil
		}
		c := install.NewCoordinator(installer)

		var wg sync.WaitGroup
		for _, id := range []string{"https://x/a/", "https://x/b/"} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, c.Install(ctx, id))
			}()
		}
		waitPending(t, c, "https://x/a/")
		waitPending(t, c, "https://x/b/")

		close(release)
		wg.Wait()
		assert.Len(t, installer.InstallCalls(), 2)
	})

	t.Run("installer failure is wrapped and pending cleared", func(t *testing.T) {
		installer := newInstaller()
		installer.InstallFunc = func(context.Context, string) error { return errInstall }
		rec := &fakeRecorder{}
		c := install.NewCoordinator(installer, install.WithRecorder(rec))
		log := &eventLog{}
		c.Subscribe(log.record)

		err := c.Install(ctx, pluginID)

		var ierr *install.InstallerError
		require.ErrorAs(t, err, &ierr)
		assert.Equal(t, install.OpInstall, ierr.Op)
		assert.Equal(t, pluginID, ierr.Identity)
		assert.ErrorIs(t, err, errInstall)
		assert.False(t, c.Pending(pluginID))
		assert.Equal(t, []install.EventKind{install.EventStarted, install.EventFailed, install.EventSettled}, log.kinds())
		assert.ErrorIs(t, log.events[1].Err, errInstall)
		assert.Equal(t, 1, rec.counts["install/failed"])
	})

	t.Run("a failed request can be retried", func(t *testing.T) {
		installer := newInstaller()
		fail := true
		installer.InstallFunc = func(context.Context, string) error {
			if fail {
				fail = false
				return errInstall
			}
			return nil
		}
		c := install.NewCoordinator(installer)

		require.Error(t, c.Install(ctx, pluginID))
		require.NoError(t, c.Install(ctx, pluginID))
		assert.Len(t, installer.InstallCalls(), 2)
	})
}

func TestCoordinator_Uninstall(t *testing.T) {
	ctx := context.Background()

	t.Run("pending uninstall still reports installed", func(t *testing.T) {
		release := make(chan struct{})
		installed := true
		var mu sync.Mutex
		installer := newInstaller()
		installer.IsInstalledFunc = func(string) bool {
			mu.Lock()
			defer mu.Unlock()
			return installed
		}
		installer.UninstallFunc = func(context.Context, string) error {
			<-release
			mu.Lock()
			installed = false
			mu.Unlock()
			return nil
		}
		c := install.NewCoordinator(installer)
		log := &eventLog{}
		c.Subscribe(log.record)

		done := make(chan error, 1)
		go func() { done <- c.Uninstall(ctx, pluginID) }()
		waitPending(t, c, pluginID)

		assert.Equal(t, install.State{Installed: true, Pending: true}, c.State(pluginID))

		close(release)
		require.NoError(t, <-done)
		assert.Equal(t, install.State{}, c.State(pluginID))
		assert.Contains(t, log.kinds(), install.EventUninstalled)
	})

	t.Run("installed state is read through every time", func(t *testing.T) {
		installer := newInstaller()
		c := install.NewCoordinator(installer)

		c.Installed(pluginID)
		c.Installed(pluginID)

		assert.Len(t, installer.IsInstalledCalls(), 2)
	})
}

func TestCoordinator_Subscribe(t *testing.T) {
	c := install.NewCoordinator(newInstaller())
	log := &eventLog{}
	unsubscribe := c.Subscribe(log.record)

	require.NoError(t, c.Install(context.Background(), pluginID))
	unsubscribe()
	unsubscribe()
	require.NoError(t, c.Install(context.Background(), pluginID))

	assert.Len(t, log.kinds(), 3)
}

func flagged(status, warning string) catalog.Entry {
	return catalog.Entry{
		Entry: registry.Entry{
			Identity:       pluginID,
			Name:           "Cool",
			InstallURL:     pluginID,
			Status:         status,
			WarningMessage: warning,
		},
		SourceKey: "official",
	}
}

func TestCoordinator_PromptThenInstall(t *testing.T) {
	ctx := context.Background()

	t.Run("confirms flagged entries before installing", func(t *testing.T) {
		installer := newInstaller()
		var noInstallYet bool
		confirmer := &mocks.ConfirmerMock{
			ConfirmFunc: func(title, description string) (bool, error) {
				noInstallYet = len(installer.InstallCalls()) == 0
				return true, nil
			},
		}
		c := install.NewCoordinator(installer)

		ok, err := c.PromptThenInstall(ctx, flagged("broken", "Crashes on start"), confirmer)

		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, noInstallYet, "confirm happens before any installer call")
		require.Len(t, confirmer.ConfirmCalls(), 1)
		assert.Contains(t, confirmer.ConfirmCalls()[0].Description, "This plugin is marked as BROKEN by the repository.")
		assert.Contains(t, confirmer.ConfirmCalls()[0].Description, "Crashes on start")
		assert.Len(t, installer.InstallCalls(), 1)
	})

	declines := []struct {
		name    string
		confirm func(string, string) (bool, error)
	}{
		{name: "answer no", confirm: func(string, string) (bool, error) { return false, nil }},
		{name: "prompt canceled", confirm: func(string, string) (bool, error) { return false, prompt.ErrCanceled }},
	}
	for _, tt := range declines {
		t.Run("declined by "+tt.name, func(t *testing.T) {
			installer := newInstaller()
			c := install.NewCoordinator(installer)
			log := &eventLog{}
			c.Subscribe(log.record)

			ok, err := c.PromptThenInstall(ctx, flagged("broken", "Crashes on start"), &mocks.ConfirmerMock{ConfirmFunc: tt.confirm})

			assert.ErrorIs(t, err, install.ErrDeclined)
			assert.False(t, ok)
			assert.Empty(t, installer.InstallCalls())
			assert.Empty(t, log.kinds(), "pending was never set")
			assert.False(t, c.Pending(pluginID))
		})
	}

	t.Run("confirm errors are returned", func(t *testing.T) {
		installer := newInstaller()
		errTTY := errors.New("no tty")
		c := install.NewCoordinator(installer)

		_, err := c.PromptThenInstall(ctx, flagged("warning", ""), install.ConfirmFunc(func(string, string) (bool, error) {
			return false, errTTY
		}))

		assert.ErrorIs(t, err, errTTY)
		assert.NotErrorIs(t, err, install.ErrDeclined)
		assert.Empty(t, installer.InstallCalls())
	})

	t.Run("nil confirmer declines flagged entries", func(t *testing.T) {
		installer := newInstaller()
		c := install.NewCoordinator(installer)

		_, err := c.PromptThenInstall(ctx, flagged("", "heads up"), nil)

		assert.ErrorIs(t, err, install.ErrDeclined)
		assert.Empty(t, installer.InstallCalls())
	})

	t.Run("nominal entries skip the prompt", func(t *testing.T) {
		for _, status := range []string{"working", ""} {
			installer := newInstaller()
			confirmer := &mocks.ConfirmerMock{}
			c := install.NewCoordinator(installer)

			ok, err := c.PromptThenInstall(ctx, flagged(status, "   "), confirmer)

			require.NoError(t, err, status)
			assert.True(t, ok, status)
			assert.Empty(t, confirmer.ConfirmCalls(), status)
		}
	})

	t.Run("reports false when already pending", func(t *testing.T) {
		release := make(chan struct{})
		installer := newInstaller()
		installer.InstallFunc = func(context.Context, string) error {
			<-release
			return nil
		}
		c := install.NewCoordinator(installer)
		go func() { _ = c.Install(ctx, pluginID) }()
		waitPending(t, c, pluginID)

		ok, err := c.PromptThenInstall(ctx, flagged("working", ""), nil)

		close(release)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
