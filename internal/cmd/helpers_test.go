package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/shelf/internal/browser"
	"github.com/jmgilman/shelf/internal/catalog"
	"github.com/jmgilman/shelf/internal/install"
	instmocks "github.com/jmgilman/shelf/internal/install/mocks"
	kvmocks "github.com/jmgilman/shelf/internal/kvstore/mocks"
	"github.com/jmgilman/shelf/internal/prompt"
	promptmocks "github.com/jmgilman/shelf/internal/prompt/mocks"
	"github.com/jmgilman/shelf/internal/registry"
	regmocks "github.com/jmgilman/shelf/internal/registry/mocks"
	"github.com/jmgilman/shelf/internal/settings"
	"github.com/jmgilman/shelf/internal/view"
)

func entry(name, installURL, status string) registry.Entry {
	return registry.Entry{
		Identity:   registry.NormalizeIdentity(installURL),
		Name:       name,
		Status:     status,
		InstallURL: installURL,
	}
}

// newSession builds a session over two registries serving the given
// entries, and refreshes it once.
func newSession(t *testing.T, a, b []registry.Entry) *browser.Session {
	t.Helper()

	doc, err := json.Marshal(settings.Settings{
		Sources: []settings.Source{
			{Key: "a", Name: "Registry A", URL: "https://a.example.com/plugins.json"},
			{Key: "b", Name: "Registry B", URL: "https://b.example.com/plugins.json"},
		},
		EnabledKeys: []string{"a", "b"},
		MultiMode:   true,
		Sort:        settings.SortOldest,
	})
	require.NoError(t, err)

	backend := &kvmocks.BackendMock{
		ReadyFunc: func(context.Context) error { return nil },
		GetFunc: func(context.Context, string) ([]byte, bool, error) {
			return doc, true, nil
		},
		SetFunc: func(context.Context, string, []byte) error { return nil },
	}
	client := &regmocks.ClientMock{
		FetchAllFunc: func(_ context.Context, sources []settings.Source) []registry.Result {
			out := make([]registry.Result, len(sources))
			for i, src := range sources {
				out[i] = registry.Result{Source: src}
				if src.Key == "a" {
					out[i].Resolved.Official = a
				} else {
					out[i].Resolved.User = b
				}
			}
			return out
		},
	}
	inst := &instmocks.InstallerMock{
		IsInstalledFunc: func(string) bool { return false },
		InstalledFunc:   func() []string { return nil },
	}

	session := browser.New(settings.New(backend), client, install.NewCoordinator(inst))
	_, err = session.Refresh(context.Background())
	require.NoError(t, err)
	return session
}

func TestResolveEntry(t *testing.T) {
	logger := entry("Message Logger", "https://plugins.example.com/logger", "working")
	flagged := entry("Message Logger", "https://plugins.example.com/logger", "broken")
	other := entry("Theme Sync", "https://plugins.example.com/theme-sync/", "working")
	lookalike := entry("Theme Sync", "https://mirror.example.com/theme-sync/", "working")

	t.Run("by name", func(t *testing.T) {
		session := newSession(t, []registry.Entry{logger, other}, nil)

		got, err := resolveEntry(session, "message logger", nil)
		require.NoError(t, err)
		assert.Equal(t, "https://plugins.example.com/logger/", got.Identity)
	})

	t.Run("by identity without trailing slash", func(t *testing.T) {
		session := newSession(t, []registry.Entry{logger, other}, nil)

		got, err := resolveEntry(session, "https://plugins.example.com/theme-sync", nil)
		require.NoError(t, err)
		assert.Equal(t, "Theme Sync", got.Name)
	})

	t.Run("no match", func(t *testing.T) {
		session := newSession(t, []registry.Entry{logger}, nil)

		_, err := resolveEntry(session, "Nope", nil)
		assert.ErrorIs(t, err, errNoMatch)
	})

	t.Run("shared identity prefers the flagged entry", func(t *testing.T) {
		session := newSession(t, []registry.Entry{logger}, []registry.Entry{flagged})

		got, err := resolveEntry(session, "Message Logger", nil)
		require.NoError(t, err)
		assert.Equal(t, "b", got.SourceKey)
		assert.True(t, install.NeedsWarning(got.Entry))
	})

	t.Run("different identities are ambiguous", func(t *testing.T) {
		session := newSession(t, []registry.Entry{other}, []registry.Entry{lookalike})

		_, err := resolveEntry(session, "Theme Sync", nil)
		require.ErrorIs(t, err, errAmbiguous)
		assert.Contains(t, err.Error(), "https://mirror.example.com/theme-sync/")
	})

	t.Run("pick chooses among identities", func(t *testing.T) {
		session := newSession(t, []registry.Entry{other}, []registry.Entry{lookalike})
		p := &promptmocks.PrompterMock{
			ChoiceFunc: func(string, []string, int) (int, error) { return 1, nil },
		}

		got, err := resolveEntry(session, "Theme Sync", pickWith(p))
		require.NoError(t, err)
		assert.Equal(t, "https://mirror.example.com/theme-sync/", got.Identity)

		require.Len(t, p.ChoiceCalls(), 1)
		assert.Len(t, p.ChoiceCalls()[0].Options, 2)
		assert.Contains(t, p.ChoiceCalls()[0].Options[1], "Registry B")
	})

	t.Run("pick canceled", func(t *testing.T) {
		session := newSession(t, []registry.Entry{other}, []registry.Entry{lookalike})
		p := &promptmocks.PrompterMock{
			ChoiceFunc: func(string, []string, int) (int, error) { return 0, prompt.ErrCanceled },
		}

		_, err := resolveEntry(session, "Theme Sync", pickWith(p))
		assert.ErrorIs(t, err, prompt.ErrCanceled)
	})
}

func TestConfirmerFor(t *testing.T) {
	flagged := catalog.Entry{Entry: registry.Entry{
		Name:           "Old Plugin",
		Status:         "broken",
		WarningMessage: "Crashes on startup",
	}}

	t.Run("yes approves without asking", func(t *testing.T) {
		p := &promptmocks.PrompterMock{}

		ok, err := confirmerFor(flagged, true, p).Confirm("title", "description")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("no terminal has no confirmer", func(t *testing.T) {
		assert.Nil(t, confirmerFor(flagged, false, nil))
	})

	t.Run("terminal asks with the warning action", func(t *testing.T) {
		p := &promptmocks.PrompterMock{
			ConfirmActionFunc: func(string, string, string) (bool, error) { return false, nil },
		}

		ok, err := confirmerFor(flagged, false, p).Confirm("Broken plugin", "Crashes on startup")
		require.NoError(t, err)
		assert.False(t, ok)

		require.Len(t, p.ConfirmActionCalls(), 1)
		call := p.ConfirmActionCalls()[0]
		w, _ := install.WarningFor(flagged.Entry)
		assert.Equal(t, w.Action, call.Action)
		assert.Contains(t, call.Description, "Old Plugin")
		assert.Contains(t, call.Description, "Crashes on startup")
	})
}

func TestSourceArgs(t *testing.T) {
	origInteractive, origPrompter := interactive, newPrompter
	t.Cleanup(func() {
		interactive = origInteractive
		newPrompter = origPrompter
	})

	t.Run("both given", func(t *testing.T) {
		name, link, err := sourceArgs([]string{"Mine", "https://example.com/p.json"})
		require.NoError(t, err)
		assert.Equal(t, "Mine", name)
		assert.Equal(t, "https://example.com/p.json", link)
	})

	t.Run("missing without terminal", func(t *testing.T) {
		interactive = func() bool { return false }

		_, _, err := sourceArgs([]string{"Mine"})
		assert.ErrorIs(t, err, errNoArgs)
	})

	t.Run("prompts for the missing url", func(t *testing.T) {
		p := &promptmocks.PrompterMock{
			InputFunc: func(title, _ string, validate func(string) error) (string, error) {
				require.Error(t, validate("not a url"))
				return "https://example.com/p.json", nil
			},
		}
		interactive = func() bool { return true }
		newPrompter = func() prompt.Prompter { return p }

		name, link, err := sourceArgs([]string{"Mine"})
		require.NoError(t, err)
		assert.Equal(t, "Mine", name)
		assert.Equal(t, "https://example.com/p.json", link)
		require.Len(t, p.InputCalls(), 1)
		assert.Equal(t, "Registry URL", p.InputCalls()[0].Title)
	})

	t.Run("prompt canceled", func(t *testing.T) {
		p := &promptmocks.PrompterMock{
			InputFunc: func(string, string, func(string) error) (string, error) {
				return "", prompt.ErrCanceled
			},
		}
		interactive = func() bool { return true }
		newPrompter = func() prompt.Prompter { return p }

		_, _, err := sourceArgs(nil)
		assert.True(t, errors.Is(err, prompt.ErrCanceled))
	})
}

func TestLooksLikeURL(t *testing.T) {
	assert.True(t, looksLikeURL("https://example.com/x"))
	assert.True(t, looksLikeURL("http://localhost:8080/x/"))
	assert.False(t, looksLikeURL("Message Logger"))
	assert.Equal(t, "https://example.com/x/", identityOf("  https://example.com/x "))
}

func TestWriteRowsJSON(t *testing.T) {
	rows := []view.Row{
		{
			Entry: catalog.Entry{
				Entry:      entry("Logger", "https://example.com/logger/", "working"),
				SourceKey:  "a",
				SourceName: "Registry A",
				Section:    catalog.SectionOfficial,
			},
			State: install.State{Installed: true},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeRowsJSON(&buf, rows))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "https://example.com/logger/", got[0]["identity"])
	assert.Equal(t, "official", got[0]["section"])
	assert.Equal(t, []any{}, got[0]["authors"])
	assert.Equal(t, true, got[0]["installed"])
	assert.NotContains(t, got[0], "warningMessage")
}

func TestWriteRowsJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRowsJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}
