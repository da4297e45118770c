package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/canvas/internal/harness"
	"github.com/roach88/canvas/internal/ir"
)

const (
	scenariosDir = "../harness/testdata/scenarios"
	goldenDir    = "../harness/testdata/golden"
)

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "canvas.db")
}

// decodeData unmarshals the data field of a JSON response into v.
func decodeData(t *testing.T, out string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func TestInitCommand(t *testing.T) {
	db := tempDB(t)

	out, err := execute(t, "init", "--db", db, "-w", "roadmap", "--project", "q3")
	require.NoError(t, err)
	assert.Contains(t, out, "Workspace roadmap (project q3) ready in sqlite:"+db)
	assert.Contains(t, out, "grid 16, snap false, background dots")

	// A second init keeps the stored project.
	out, err = execute(t, "init", "--db", db, "-w", "roadmap", "--project", "other", "--format", "json")
	require.NoError(t, err)
	var res InitResult
	decodeData(t, out, &res)
	assert.Equal(t, "q3", res.Project)
}

func TestInitCommand_Settings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grid_size: 8\nsnap_to_grid: true\n"), 0644))

	out, err := execute(t, "init", "--db", filepath.Join(dir, "c.db"), "--settings", path, "--format", "json")
	require.NoError(t, err)

	var res InitResult
	decodeData(t, out, &res)
	assert.Equal(t, DefaultWorkspace, res.Workspace)
	assert.Equal(t, DefaultWorkspace, res.Project)
	assert.Equal(t, 8.0, res.Settings.GridSize)
	assert.True(t, res.Settings.SnapToGrid)
}

func TestInitCommand_InvalidSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grid_size: -1\n"), 0644))

	_, err := execute(t, "init", "--db", filepath.Join(dir, "c.db"), "--settings", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestLoadCommand_NotFound(t *testing.T) {
	out, err := execute(t, "load", "--db", tempDB(t), "-w", "missing", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestLoadCommand_Empty(t *testing.T) {
	db := tempDB(t)
	_, err := execute(t, "init", "--db", db)
	require.NoError(t, err)

	out, err := execute(t, "load", "--db", db, "--format", "json")
	require.NoError(t, err)

	var res LoadResult
	decodeData(t, out, &res)
	assert.Equal(t, 0, res.Nodes)
	assert.Equal(t, 0, res.Updates)
	assert.Equal(t, []string{}, res.NodeIDs)
	assert.Equal(t, ir.DefaultViewport(), res.Viewport)
}

func TestReplayThenLoadAndExport(t *testing.T) {
	db := tempDB(t)
	scenario := filepath.Join(scenariosDir, "box_select_delete.yaml")

	out, err := execute(t, "replay", scenario, "--db", db, "--format", "json")
	require.NoError(t, err, out)

	var replay ReplayResult
	decodeData(t, out, &replay)
	assert.True(t, replay.Pass)
	assert.Equal(t, "sqlite:"+db, replay.Backend)
	assert.Positive(t, replay.Updates)
	require.NotNil(t, replay.Deterministic)
	assert.True(t, *replay.Deterministic)

	// The scenario ends with the deletion redone: only c is live.
	out, err = execute(t, "load", "--db", db, "-w", harness.ScenarioWorkspace, "--user", harness.ScenarioUser, "--format", "json")
	require.NoError(t, err)
	var load LoadResult
	decodeData(t, out, &load)
	assert.Equal(t, 1, load.Nodes)
	assert.Equal(t, 2, load.Deleted)
	assert.Equal(t, []string{"c"}, load.NodeIDs)
	assert.Equal(t, replay.Updates, load.Updates)

	out, err = execute(t, "export", "--db", db, "-w", harness.ScenarioWorkspace)
	require.NoError(t, err)
	var exported ir.WorkspaceState
	require.NoError(t, json.Unmarshal([]byte(out), &exported))
	require.Len(t, exported.Nodes, 1)
	assert.Equal(t, "c", exported.Nodes[0].ID)
	require.NotNil(t, exported.Viewport)

	out, err = execute(t, "export", "--db", db, "-w", harness.ScenarioWorkspace, "--include-deleted")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &exported))
	assert.Len(t, exported.Nodes, 3)

	// Purge drops the tombstones.
	out, err = execute(t, "purge", "--db", db, "-w", harness.ScenarioWorkspace, "--format", "json")
	require.NoError(t, err)
	var purge PurgeResult
	decodeData(t, out, &purge)
	assert.Equal(t, int64(2), purge.Removed)

	out, err = execute(t, "export", "--db", db, "-w", harness.ScenarioWorkspace, "--include-deleted")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &exported))
	assert.Len(t, exported.Nodes, 1)
}

func TestExportCommand_Stable(t *testing.T) {
	db := tempDB(t)
	_, err := execute(t, "replay", filepath.Join(scenariosDir, "drag_and_undo.yaml"), "--db", db)
	require.NoError(t, err)

	first, err := execute(t, "export", "--db", db, "-w", harness.ScenarioWorkspace)
	require.NoError(t, err)
	second, err := execute(t, "export", "--db", db, "-w", harness.ScenarioWorkspace)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	path := filepath.Join(t.TempDir(), "export.json")
	out, err := execute(t, "export", "--db", db, "-w", harness.ScenarioWorkspace, "-o", path)
	require.NoError(t, err)
	assert.Empty(t, out)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, string(data))
}

func TestReplayCommand_InMemory(t *testing.T) {
	out, err := execute(t, "replay", filepath.Join(scenariosDir, "pan_and_zoom.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ pan_and_zoom")
	assert.Contains(t, out, "viewport: offset (-50, -20) scale 2")
	assert.NotContains(t, out, "persisted to")
}

func TestReplayCommand_Failing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fail.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: fail
description: "wrong count"
steps:
  - command: { kind: add_node, node: { id: a, x: 0, y: 0 } }
assertions:
  - type: node_count
    count: 2
`), 0644))

	out, err := execute(t, "replay", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ fail")
}

func TestReplayCommand_InvalidScenario(t *testing.T) {
	_, err := execute(t, "replay", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_GoldenScenarios(t *testing.T) {
	out, err := execute(t, "test", scenariosDir, "--golden", goldenDir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ drag_and_undo")
	assert.Contains(t, out, "✓ box_select_delete")
	assert.Contains(t, out, "✓ pan_and_zoom")
	assert.Contains(t, out, "3 passed, 0 failed, 3 total")
}

func TestTestCommand_Filter(t *testing.T) {
	out, err := execute(t, "test", scenariosDir, "--golden", goldenDir, "--filter", "drag*", "--format", "json")
	require.NoError(t, err)

	var res TestResult
	decodeData(t, out, &res)
	assert.Equal(t, 1, res.Total)
	require.Len(t, res.Scenarios, 1)
	assert.Equal(t, "drag_and_undo", res.Scenarios[0].Name)
}

func TestTestCommand_UpdateThenCompare(t *testing.T) {
	golden := t.TempDir()

	_, err := execute(t, "test", scenariosDir, "--golden", golden, "--update")
	require.NoError(t, err)

	for _, name := range []string{"drag_and_undo", "box_select_delete", "pan_and_zoom"} {
		written, err := os.ReadFile(filepath.Join(golden, name+".golden"))
		require.NoError(t, err)
		want, err := os.ReadFile(filepath.Join(goldenDir, name+".golden"))
		require.NoError(t, err)
		assert.Equal(t, string(want), string(written), name)
	}

	// A stale golden file fails the run.
	require.NoError(t, os.WriteFile(filepath.Join(golden, "pan_and_zoom.golden"), []byte("{}"), 0644))
	out, err := execute(t, "test", scenariosDir, "--golden", golden)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ pan_and_zoom")
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommand_NoScenarios(t *testing.T) {
	out, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommand_MissingDir(t *testing.T) {
	_, err := execute(t, "test", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yml", "c.txt", "drag.yaml"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Len(t, files, 3)

	files, err = findScenarioFiles(dir, "dr*")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "drag.yaml")}, files)

	_, err = findScenarioFiles(dir, "[")
	assert.Error(t, err)
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("s", "golden", "x.golden"), goldenFilePath("", filepath.Join("s", "x.yaml"), "x"))
	assert.Equal(t, filepath.Join("g", "x.golden"), goldenFilePath("g", filepath.Join("s", "x.yaml"), "x"))
}

func TestSettingsValidate(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "settings.cue")
	require.NoError(t, os.WriteFile(valid, []byte(`background: "grid"`), 0644))

	out, err := execute(t, "settings", "validate", valid, "--format", "json")
	require.NoError(t, err)
	var res SettingsResult
	decodeData(t, out, &res)
	assert.Equal(t, ir.BackgroundGrid, res.Settings.Background)
	assert.Equal(t, 16.0, res.Settings.GridSize)

	invalid := filepath.Join(dir, "bad.cue")
	require.NoError(t, os.WriteFile(invalid, []byte(`background: "stripes"`), 0644))
	_, err = execute(t, "settings", "validate", invalid)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, err = execute(t, "settings", "validate", filepath.Join(dir, "missing.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
