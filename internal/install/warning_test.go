package install

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmgilman/shelf/internal/registry"
)

func TestWarningFor(t *testing.T) {
	tests := []struct {
		name      string
		status    string
		message   string
		wantWarn  bool
		wantLines []string
		broken    bool
	}{
		{name: "working without message", status: "working"},
		{name: "empty status is nominal", status: ""},
		{name: "blank message is ignored", status: "working", message: "  \n"},
		{
			name:      "broken",
			status:    "broken",
			wantWarn:  true,
			wantLines: []string{"This plugin is marked as BROKEN by the repository."},
			broken:    true,
		},
		{
			name:      "warning with message",
			status:    "warning",
			message:   "Needs a restart",
			wantWarn:  true,
			wantLines: []string{"This plugin may have issues on mobile.", "Needs a restart"},
		},
		{
			name:      "unknown status is shown verbatim",
			status:    "deprecated",
			wantWarn:  true,
			wantLines: []string{"Status: deprecated"},
		},
		{
			name:      "working with message",
			status:    "working",
			message:   "Experimental",
			wantWarn:  true,
			wantLines: []string{"Experimental"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := registry.Entry{Status: tt.status, WarningMessage: tt.message}

			w, ok := WarningFor(e)

			assert.Equal(t, tt.wantWarn, ok)
			assert.Equal(t, tt.wantWarn, NeedsWarning(e))
			if !tt.wantWarn {
				return
			}
			assert.Equal(t, tt.wantLines, w.Lines)
			assert.Equal(t, tt.broken, w.Broken)
			if tt.broken {
				assert.Equal(t, "Install Anyway", w.Action)
			} else {
				assert.Equal(t, "Install with Warning", w.Action)
			}
		})
	}
}
