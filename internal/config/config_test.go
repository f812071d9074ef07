package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Load_CreatesDefaultIfMissing(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	loader, err := NewLoader()
	require.NoError(t, err)

	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(tmpHome, DefaultDataDir, "settings.json"), cfg.Storage.Settings)
	assert.Equal(t, filepath.Join(tmpHome, DefaultDataDir, "installed.db"), cfg.Storage.Installed)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Empty(t, cfg.Metrics.Textfile)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())

	_, err = os.Stat(loader.Path())
	assert.NoError(t, err)
}

func TestLoader_Load_ReadsExistingConfig(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	configDir := filepath.Join(tmpHome, ".config", "shelf")
	require.NoError(t, os.MkdirAll(configDir, 0o755))

	configContent := `
storage:
  backend: keyring
  settings: ~/custom/settings.json
  installed: /var/lib/shelf/installed.db
http:
  timeout: 5s
  user_agent: shelf-ci
metrics:
  textfile: ~/metrics/shelf.prom
log:
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(configContent), 0o644))

	loader, err := NewLoader()
	require.NoError(t, err)

	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, BackendKeyring, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(tmpHome, "custom", "settings.json"), cfg.Storage.Settings)
	assert.Equal(t, "/var/lib/shelf/installed.db", cfg.Storage.Installed)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "shelf-ci", cfg.HTTP.UserAgent)
	assert.Equal(t, filepath.Join(tmpHome, "metrics", "shelf.prom"), cfg.Metrics.Textfile)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoader_Load_EnvVarOverride(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)
	t.Setenv("SHELF_HTTP_TIMEOUT", "2m")
	t.Setenv("SHELF_STORAGE_BACKEND", "keyring")

	loader, err := NewLoader()
	require.NoError(t, err)

	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.HTTP.Timeout)
	assert.Equal(t, BackendKeyring, cfg.Storage.Backend)
}

func TestLoader_Path(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	loader, err := NewLoader()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tmpHome, ".config", "shelf", "config.yaml"), loader.Path())
}

func TestLoader_Get(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	loader, err := NewLoader()
	require.NoError(t, err)
	_, err = loader.Load()
	require.NoError(t, err)

	t.Run("valid key returns value", func(t *testing.T) {
		val, err := loader.Get("storage.backend")
		require.NoError(t, err)
		assert.Equal(t, "file", val)
	})

	t.Run("invalid key returns error", func(t *testing.T) {
		_, err := loader.Get("default.agent")
		assert.ErrorIs(t, err, ErrInvalidKey)
	})
}

func TestLoader_Set(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	loader, err := NewLoader()
	require.NoError(t, err)
	_, err = loader.Load()
	require.NoError(t, err)

	t.Run("sets and persists a valid value", func(t *testing.T) {
		require.NoError(t, loader.Set("http.timeout", "45s"))

		reloaded, err := NewLoader()
		require.NoError(t, err)
		cfg, err := reloaded.Load()
		require.NoError(t, err)
		assert.Equal(t, 45*time.Second, cfg.HTTP.Timeout)
	})

	tests := []struct {
		name    string
		key     string
		value   string
		wantErr error
	}{
		{"rejects unknown key", "invalid.key", "value", ErrInvalidKey},
		{"rejects a section", "storage", "x", ErrInvalidKey},
		{"rejects unknown backend", "storage.backend", "s3", ErrInvalidValue},
		{"rejects bad duration", "http.timeout", "soon", ErrInvalidValue},
		{"rejects negative duration", "http.timeout", "-1s", ErrInvalidValue},
		{"rejects unknown log format", "log.format", "xml", ErrInvalidValue},
		{"rejects empty settings path", "storage.settings", "", ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, loader.Set(tt.key, tt.value), tt.wantErr)
		})
	}

	t.Run("accepts the keyring backend", func(t *testing.T) {
		assert.NoError(t, loader.Set("storage.backend", "keyring"))
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Storage: StorageConfig{Backend: "file", Settings: "/tmp/settings.json", Installed: "/tmp/installed.db"},
			HTTP:    HTTPConfig{Timeout: time.Second},
		}
	}

	t.Run("valid config", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := valid()
		cfg.Storage.Backend = "s3"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Backend")
	})

	t.Run("zero timeout", func(t *testing.T) {
		cfg := valid()
		cfg.HTTP.Timeout = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Timeout")
	})

	t.Run("missing installed path", func(t *testing.T) {
		cfg := valid()
		cfg.Storage.Installed = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Installed")
	})

	t.Run("unknown log format", func(t *testing.T) {
		cfg := valid()
		cfg.Log.Format = "xml"
		assert.Error(t, cfg.Validate())
	})
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{"storage.backend is valid", "storage.backend", nil},
		{"storage.settings is valid", "storage.settings", nil},
		{"storage.installed is valid", "storage.installed", nil},
		{"http.timeout is valid", "http.timeout", nil},
		{"http.user_agent is valid", "http.user_agent", nil},
		{"metrics.textfile is valid", "metrics.textfile", nil},
		{"log.format is valid", "log.format", nil},
		{"sections are valid", "storage", nil},
		{"unknown.key returns error", "unknown.key", ErrInvalidKey},
		{"empty key returns error", "", ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestKeys(t *testing.T) {
	assert.Equal(t, []string{
		"http.timeout",
		"http.user_agent",
		"log.format",
		"metrics.textfile",
		"storage.backend",
		"storage.installed",
		"storage.settings",
	}, Keys())
}

func TestLoader_expandPath(t *testing.T) {
	loader := &Loader{homeDir: "/home/test"}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"expands ~/ prefix", "~/foo", filepath.Join("/home/test", "foo")},
		{"expands ~ alone", "~", "/home/test"},
		{"preserves absolute path", "/absolute/path", "/absolute/path"},
		{"preserves empty path", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, loader.expandPath(tt.input))
		})
	}
}
