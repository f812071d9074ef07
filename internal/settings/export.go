package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format is a settings document encoding.
type Format string

// Supported document formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ErrUnknownFormat is returned for unsupported document formats.
var ErrUnknownFormat = errors.New("unknown settings format")

// ParseFormat maps a format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %s (valid: json, yaml, toml)", ErrUnknownFormat, name)
	}
}

// FormatFromPath picks a format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return FormatJSON
	}
	return f
}

// Marshal encodes s in the given format.
func Marshal(s Settings, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(s); err != nil {
			return nil, fmt.Errorf("encode toml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// Unmarshal decodes a settings document, filling missing fields from the
// defaults and validating the sources.
func Unmarshal(data []byte, format Format) (Settings, error) {
	var doc document
	var err error

	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatTOML:
		_, err = toml.Decode(string(data), &doc)
	default:
		return Settings{}, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	if err != nil {
		return Settings{}, fmt.Errorf("decode %s: %w", format, err)
	}

	if doc.Sort != nil && !doc.Sort.Valid() {
		return Settings{}, fmt.Errorf("%w: %q", ErrInvalidSort, *doc.Sort)
	}

	s := normalize(merge(Defaults(), doc))
	if err := validateSources(s.Sources); err != nil {
		return Settings{}, err
	}
	return s, nil
}
