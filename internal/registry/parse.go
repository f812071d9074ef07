package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// officialKeys lists the object keys holding the official section, in order
// of precedence. Theme registries publish under the later names.
var officialKeys = []string{"OFFICIAL_PLUGINS", "OFFICIAL_THEMES", "themes", "THEMES", "items"}

const userKey = "USER_PLUGINS"

var errEmptyPayload = errors.New("empty payload")

// Parse decodes a registry document. A top-level array is the list shape and
// is treated as all official entries. A top-level object is the sectioned
// shape. Any other JSON value yields no entries.
func Parse(data []byte) (Resolved, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Resolved{}, &ParseError{Err: errEmptyPayload}
	}

	var (
		res Resolved
		err error
	)

	switch trimmed[0] {
	case '[':
		res.Official, err = decodeEntries(trimmed)
		if err != nil {
			return Resolved{}, &ParseError{Err: err}
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return Resolved{}, &ParseError{Err: err}
		}
		for _, key := range officialKeys {
			raw, ok := obj[key]
			if !ok || isNull(raw) {
				continue
			}
			if res.Official, err = decodeEntries(raw); err != nil {
				return Resolved{}, &ParseError{Err: fmt.Errorf("%s: %w", key, err)}
			}
			break
		}
		if raw, ok := obj[userKey]; ok && !isNull(raw) {
			if res.User, err = decodeEntries(raw); err != nil {
				return Resolved{}, &ParseError{Err: fmt.Errorf("%s: %w", userKey, err)}
			}
		}
	default:
		if !json.Valid(trimmed) {
			var v any
			return Resolved{}, &ParseError{Err: json.Unmarshal(trimmed, &v)}
		}
	}

	return res, nil
}

// decodeEntries decodes a JSON array of entries, skipping null elements and
// filling in each identity.
func decodeEntries(raw json.RawMessage) ([]Entry, error) {
	var items []*Entry
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		item.Identity = NormalizeIdentity(item.InstallURL)
		entries = append(entries, *item)
	}
	return entries, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
