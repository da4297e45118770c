package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/canvas/internal/ir"
)

func TestParse_EmptyUsesDefaults(t *testing.T) {
	s, err := Parse("settings.cue", []byte(``))
	require.NoError(t, err)
	assert.Equal(t, ir.DefaultSettings(), s)
}

func TestParse_Formats(t *testing.T) {
	want := ir.Settings{
		GridSize:      8,
		SnapToGrid:    true,
		Background:    ir.BackgroundGrid,
		Collaboration: ir.Collaboration{Enabled: true, Cursors: false},
	}

	tests := []struct {
		name     string
		filename string
		data     string
	}{
		{
			name:     "cue",
			filename: "settings.cue",
			data: `
				grid_size: 8
				snap_to_grid: true
				background: "grid"
				collaboration: { enabled: true, cursors: false }
			`,
		},
		{
			name:     "json",
			filename: "settings.json",
			data:     `{"grid_size": 8, "snap_to_grid": true, "background": "grid", "collaboration": {"enabled": true, "cursors": false}}`,
		},
		{
			name:     "yaml",
			filename: "settings.yaml",
			data: `
grid_size: 8
snap_to_grid: true
background: grid
collaboration:
  enabled: true
  cursors: false
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse(tt.filename, []byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, want, s)
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		field string
	}{
		{"zero grid", `grid_size: 0`, "grid_size"},
		{"negative grid", `grid_size: -4`, "grid_size"},
		{"unknown background", `background: "stripes"`, "background"},
		{"unknown field", `zoom: 2`, "zoom"},
		{"wrong type", `snap_to_grid: "yes"`, "snap_to_grid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("settings.cue", []byte(tt.data))
			require.Error(t, err)

			var se *Error
			require.ErrorAs(t, err, &se)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestParse_SyntaxErrorHasPosition(t *testing.T) {
	_, err := Parse("broken.cue", []byte("grid_size: {"))
	require.Error(t, err)

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.True(t, se.Pos.IsValid())
	assert.Contains(t, err.Error(), "broken.cue")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canvas.yml")
	require.NoError(t, os.WriteFile(path, []byte("snap_to_grid: true\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.True(t, s.SnapToGrid)
	assert.Equal(t, 16.0, s.GridSize)

	_, err = Load(filepath.Join(t.TempDir(), "missing.cue"))
	assert.Error(t, err)
}
