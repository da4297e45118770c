package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGoldenScenarios replays every scenario under testdata/scenarios and
// compares its trace with testdata/golden/<name>.golden.
//
// Regenerate with:
//
//	go test ./internal/harness -run TestGoldenScenarios -update
func TestGoldenScenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			require.Equal(t, name, scenario.Name, "file name and scenario name must match")

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)

			require.NoError(t, AssertGolden(t, scenario.Name, result))
		})
	}
}

func TestRunWithGolden_DragAndUndo(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/drag_and_undo.yaml")
	require.NoError(t, err)
	require.NoError(t, RunWithGolden(t, scenario))
}

func TestMarshalTrace_Canonical(t *testing.T) {
	result := NewResult()
	result.AddTrace(TraceEvent{Seq: 1, Step: "blur", State: "idle", Selection: []string{}})
	result.Final = FinalState{Nodes: []NodeState{}, Scale: 1}

	got, err := MarshalTrace("tiny", result)
	require.NoError(t, err)

	want := `{"final":{"can_redo":false,"can_undo":false,"connections":0,"nodes":[],"offset_x":0,"offset_y":0,"scale":1},` +
		`"scenario_name":"tiny","trace":[{"selection":[],"seq":1,"state":"idle","step":"blur"}]}`
	assert.Equal(t, want, string(got))
}

func TestMarshalTrace_ErrorIncludedOnlyWhenSet(t *testing.T) {
	result := NewResult()
	result.AddTrace(TraceEvent{Seq: 1, Step: "command:undo", State: "idle", Selection: []string{}, Error: "NOTHING_TO_UNDO"})
	result.AddTrace(TraceEvent{Seq: 2, Step: "blur", State: "idle", Selection: []string{}})

	got, err := MarshalTrace("errs", result)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(got), `"error"`))
	assert.Contains(t, string(got), `"error":"NOTHING_TO_UNDO"`)
}
