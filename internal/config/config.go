// Package config loads the shelf configuration file and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Default locations, relative to the home directory.
const (
	DefaultConfigDir  = ".config/shelf"
	DefaultConfigFile = "config.yaml"
	DefaultDataDir    = ".local/share/shelf"
)

// EnvPrefix prefixes every environment override, e.g. SHELF_HTTP_TIMEOUT.
const EnvPrefix = "SHELF"

// Storage backends for the settings document.
const (
	BackendFile    = "file"
	BackendKeyring = "keyring"
)

// Sentinel errors for configuration operations.
var (
	ErrInvalidKey   = errors.New("invalid configuration key")
	ErrInvalidValue = errors.New("invalid configuration value")
	ErrNoEditor     = errors.New("$EDITOR environment variable not set")
)

var validKeys = buildValidKeys()

var validate = validator.New()

// Config is the full shelf configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage" validate:"required"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`
}

// StorageConfig locates persisted state.
type StorageConfig struct {
	Backend   string `mapstructure:"backend" validate:"required,oneof=file keyring"`
	Settings  string `mapstructure:"settings" validate:"required"`
	Installed string `mapstructure:"installed" validate:"required"`
}

// HTTPConfig tunes registry and manifest requests.
type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout" validate:"gt=0"`
	UserAgent string        `mapstructure:"user_agent"`
}

// MetricsConfig controls metrics export. An empty textfile disables it.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// LogConfig controls log rendering.
type LogConfig struct {
	Format string `mapstructure:"format" validate:"omitempty,oneof=text json"`
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Loader reads and writes the configuration file.
type Loader struct {
	v       *viper.Viper
	path    string
	homeDir string
}

// NewLoader creates a loader for ~/.config/shelf/config.yaml.
func NewLoader() (*Loader, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home directory: %w", err)
	}

	configPath := filepath.Join(home, DefaultConfigDir, DefaultConfigFile)

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	l := &Loader{
		v:       v,
		path:    configPath,
		homeDir: home,
	}
	l.setDefaults()

	return l, nil
}

func (l *Loader) setDefaults() {
	l.v.SetDefault("storage.backend", BackendFile)
	l.v.SetDefault("storage.settings", "~/"+DefaultDataDir+"/settings.json")
	l.v.SetDefault("storage.installed", "~/"+DefaultDataDir+"/installed.db")
	l.v.SetDefault("http.timeout", "30s")
	l.v.SetDefault("http.user_agent", "")
	l.v.SetDefault("metrics.textfile", "")
	l.v.SetDefault("log.format", "text")
}

// Load reads the configuration file, writing one with the defaults first if
// none exists.
func (l *Loader) Load() (*Config, error) {
	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		if err := l.createDefault(); err != nil {
			return nil, fmt.Errorf("create default config: %w", err)
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Storage.Settings = l.expandPath(cfg.Storage.Settings)
	cfg.Storage.Installed = l.expandPath(cfg.Storage.Installed)
	cfg.Metrics.Textfile = l.expandPath(cfg.Metrics.Textfile)

	return &cfg, nil
}

// Path returns the configuration file path.
func (l *Loader) Path() string {
	return l.path
}

// Get returns a value by dot-notation key.
func (l *Loader) Get(key string) (any, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	return l.v.Get(key), nil
}

// AllSettings returns the merged configuration as a nested map.
func (l *Loader) AllSettings() map[string]any {
	return l.v.AllSettings()
}

// Set validates value for key and writes it to the configuration file.
func (l *Loader) Set(key, value string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := validateValue(key, value); err != nil {
		return err
	}

	l.v.Set(key, value)
	return l.v.WriteConfig()
}

func validateValue(key, value string) error {
	switch key {
	case "storage.backend":
		if value != BackendFile && value != BackendKeyring {
			return fmt.Errorf("%w: %s = %q (valid: file, keyring)", ErrInvalidValue, key, value)
		}
	case "storage.settings", "storage.installed":
		if value == "" {
			return fmt.Errorf("%w: %s must not be empty", ErrInvalidValue, key)
		}
	case "http.timeout":
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: %s = %q (want a positive duration such as 30s)", ErrInvalidValue, key, value)
		}
	case "log.format":
		if value != "" && value != "text" && value != "json" {
			return fmt.Errorf("%w: %s = %q (valid: text, json)", ErrInvalidValue, key, value)
		}
	case "storage", "http", "metrics", "log":
		return fmt.Errorf("%w: %s is a section, set one of its keys", ErrInvalidKey, key)
	}
	return nil
}

func (l *Loader) createDefault() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return l.v.SafeWriteConfigAs(l.path)
}

// expandPath replaces a leading ~ with the home directory.
func (l *Loader) expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(l.homeDir, path[2:])
	}
	if path == "~" {
		return l.homeDir
	}
	return path
}

// ValidateKey checks that key names a configuration field or section.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	if validKeys[key] {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidKey, key)
}

// Keys returns every valid leaf key.
func Keys() []string {
	var keys []string
	for k := range validKeys {
		if !strings.Contains(k, ".") {
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func buildValidKeys() map[string]bool {
	keys := make(map[string]bool)
	addKeysFromType(reflect.TypeOf(Config{}), "", keys)
	return keys
}

func addKeysFromType(t reflect.Type, prefix string, keys map[string]bool) {
	for i := range t.NumField() {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		keys[key] = true

		if field.Type.Kind() == reflect.Struct {
			addKeysFromType(field.Type, key, keys)
		}
	}
}
