package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jmgilman/shelf/internal/browser"
	"github.com/jmgilman/shelf/internal/config"
	"github.com/jmgilman/shelf/internal/install"
	"github.com/jmgilman/shelf/internal/installer"
	"github.com/jmgilman/shelf/internal/kvstore"
	"github.com/jmgilman/shelf/internal/metrics"
	"github.com/jmgilman/shelf/internal/registry"
	"github.com/jmgilman/shelf/internal/settings"
	"github.com/jmgilman/shelf/internal/slogger"
	"github.com/jmgilman/shelf/internal/spinner"
	"github.com/jmgilman/shelf/internal/version"
)

// errReadOnly is returned by commands that change settings while the
// settings backend is unavailable.
var errReadOnly = errors.New("settings storage is unavailable, changes cannot be saved")

type ctxKey struct{ name string }

var (
	configKey = ctxKey{"config"}
	loaderKey = ctxKey{"loader"}
)

// WithConfig adds the config to the context.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// WithLoader adds the config loader to the context.
func WithLoader(ctx context.Context, loader *config.Loader) context.Context {
	return context.WithValue(ctx, loaderKey, loader)
}

// configFrom returns the config carried by ctx, or the built-in defaults
// when the config file could not be loaded.
func configFrom(ctx context.Context) (*config.Config, error) {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok && cfg != nil {
		return cfg, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home directory: %w", err)
	}
	dataDir := filepath.Join(home, config.DefaultDataDir)
	return &config.Config{
		Storage: config.StorageConfig{
			Backend:   config.BackendFile,
			Settings:  filepath.Join(dataDir, "settings.json"),
			Installed: filepath.Join(dataDir, "installed.db"),
		},
		HTTP: config.HTTPConfig{Timeout: registry.DefaultTimeout},
	}, nil
}

// loaderFrom returns the loader carried by ctx or a fresh one.
func loaderFrom(ctx context.Context) (*config.Loader, error) {
	if loader, ok := ctx.Value(loaderKey).(*config.Loader); ok && loader != nil {
		return loader, nil
	}
	loader, err := config.NewLoader()
	if err != nil {
		return nil, fmt.Errorf("init config loader: %w", err)
	}
	return loader, nil
}

func userAgent(cfg *config.Config) string {
	if cfg.HTTP.UserAgent != "" {
		return cfg.HTTP.UserAgent
	}
	return "shelf/" + version.Version
}

func httpClient(cfg *config.Config) *http.Client {
	timeout := cfg.HTTP.Timeout
	if timeout <= 0 {
		timeout = registry.DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func openBackend(cfg *config.Config) (kvstore.Backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendKeyring:
		return kvstore.OpenKeyring(kvstore.KeyringConfig{
			FileDir: filepath.Dir(cfg.Storage.Settings),
		})
	case config.BackendFile, "":
		return kvstore.NewFileStore(cfg.Storage.Settings), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// openSettings loads the settings store. An unavailable backend leaves the
// store degraded rather than failing.
func openSettings(ctx context.Context) (*settings.Store, error) {
	cfg, err := configFrom(ctx)
	if err != nil {
		return nil, err
	}

	var store *settings.Store
	backend, err := openBackend(cfg)
	if err != nil {
		slogger.L(ctx).Warn("settings backend unavailable", "backend", cfg.Storage.Backend, "error", err)
		store = settings.New(unavailableBackend{err: err})
	} else {
		store = settings.New(backend)
	}

	if _, err := store.Load(ctx); err != nil && !errors.Is(err, settings.ErrStorageUnavailable) {
		return nil, fmt.Errorf("%w: %w", browser.ErrLoadFailed, err)
	}
	return store, nil
}

// writableSettings is openSettings for commands that change settings.
func writableSettings(ctx context.Context) (*settings.Store, error) {
	store, err := openSettings(ctx)
	if err != nil {
		return nil, err
	}
	if store.Degraded() {
		return nil, errReadOnly
	}
	return store, nil
}

// unavailableBackend stands in for a backend that could not be opened.
type unavailableBackend struct{ err error }

func (b unavailableBackend) Ready(context.Context) error { return b.err }

func (b unavailableBackend) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, b.err
}

func (b unavailableBackend) Set(context.Context, string, []byte) error { return b.err }

// app wires every component a catalog command needs.
type app struct {
	cfg         *config.Config
	metrics     *metrics.Metrics
	settings    *settings.Store
	installer   *installer.Store
	coordinator *install.Coordinator
	session     *browser.Session
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := configFrom(ctx)
	if err != nil {
		return nil, err
	}

	store, err := openSettings(ctx)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	client := httpClient(cfg)
	ua := userAgent(cfg)

	opts := []installer.Option{
		installer.WithDoer(client),
		installer.WithUserAgent(ua),
	}
	if spinner.Interactive(os.Stderr) {
		opts = append(opts, installer.WithProgress(os.Stderr))
	}
	inst, err := installer.Open(ctx, cfg.Storage.Installed, opts...)
	if err != nil {
		return nil, fmt.Errorf("open installed plugins: %w", err)
	}

	fetcher := registry.NewFetcher(client,
		registry.WithUserAgent(ua),
		registry.WithRecorder(m),
	)
	coordinator := install.NewCoordinator(inst, install.WithRecorder(m))

	return &app{
		cfg:         cfg,
		metrics:     m,
		settings:    store,
		installer:   inst,
		coordinator: coordinator,
		session:     browser.New(store, fetcher, coordinator, browser.WithCatalogRecorder(m)),
	}, nil
}

// Close exports metrics when configured and releases the installer.
func (a *app) Close(ctx context.Context) {
	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := a.metrics.WriteTextfile(path); err != nil {
			slogger.L(ctx).Warn("metrics export failed", "path", path, "error", err)
		}
	}
	if err := a.installer.Close(); err != nil {
		slogger.L(ctx).Warn("close installer", "error", err)
	}
}

// refresh runs one fetch cycle behind a spinner and reports failing sources
// on stderr.
func (a *app) refresh(ctx context.Context) error {
	start := time.Now()
	err := spinner.Run(ctx, os.Stderr, "Fetching registries...", func(ctx context.Context, update func(string)) error {
		_, err := a.session.Refresh(ctx)
		return err
	})
	if err != nil {
		return err
	}
	slogger.L(ctx).Debug("catalog refreshed", "entries", len(a.session.Catalog()), "elapsed", time.Since(start))

	for _, st := range a.session.Sources() {
		if st.Err != nil {
			fmt.Fprintf(os.Stderr, "%s registry %s (%s) unavailable: %v\n",
				yellow("Warning:"), st.Source.Key, st.Source.Name, st.Err)
		}
	}
	return nil
}
