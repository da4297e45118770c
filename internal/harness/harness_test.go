package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/canvas/internal/config"
	"github.com/roach88/canvas/internal/engine"
	"github.com/roach88/canvas/internal/gesture"
	"github.com/roach88/canvas/internal/store"
)

func addNodeStep(id string, x, y float64) Step {
	return Step{Command: &CommandStep{Kind: engine.CommandAddNode, Node: &NodeStep{ID: id, X: x, Y: y}}}
}

func pointerStep(kind gesture.PointerKind, x, y float64, node string) Step {
	target := gesture.Target{Kind: gesture.TargetCanvas}
	if node != "" {
		target = gesture.Target{Kind: gesture.TargetNode, NodeID: node}
	}
	return Step{Pointer: &PointerStep{Kind: kind, X: x, Y: y, Target: target}}
}

func TestRun_MinimalScenario(t *testing.T) {
	scenario := &Scenario{
		Name:        "minimal",
		Description: "Minimal test scenario",
		Steps:       []Step{addNodeStep("a", 10, 20)},
		Assertions: []Assertion{
			{Type: AssertNodePosition, Node: "a", X: 10, Y: 20},
			{Type: AssertNodeCount, Count: 1},
			{Type: AssertCanUndo, Value: true},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)

	require.Len(t, result.Trace, 1)
	assert.Equal(t, int64(1), result.Trace[0].Seq)
	assert.Equal(t, "command:add_node", result.Trace[0].Step)
	assert.Equal(t, gesture.StateIdle, result.Trace[0].State)
	assert.Equal(t, []string{}, result.Trace[0].Selection)
}

func TestRun_GeneratedIDsAreSequential(t *testing.T) {
	scenario := &Scenario{
		Name:        "ids",
		Description: "Nodes without ids get sequential ones",
		Steps: []Step{
			{Command: &CommandStep{Kind: engine.CommandAddNode, Node: &NodeStep{X: 0, Y: 0}}},
			{Command: &CommandStep{Kind: engine.CommandAddNode, Node: &NodeStep{X: 0, Y: 0}}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.Len(t, result.Final.Nodes, 2)
	assert.Equal(t, "n-1", result.Final.Nodes[0].ID)
	assert.Equal(t, "n-2", result.Final.Nodes[1].ID)
}

func TestRun_StepExpectations(t *testing.T) {
	scenario := &Scenario{
		Name:        "expect",
		Description: "Per-step expectations are checked",
		Steps: []Step{
			addNodeStep("a", 0, 0),
			{
				Pointer: pointerStep(gesture.PointerDown, 10, 10, "a").Pointer,
				Expect:  &StepExpect{State: gesture.StateDragging},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected state dragging-node, got pending-drag")
}

func TestRun_WithErrorExpect(t *testing.T) {
	scenario := &Scenario{
		Name:        "undo_empty",
		Description: "Undo on a fresh session is rejected",
		Steps: []Step{
			{
				Command: &CommandStep{Kind: engine.CommandUndo},
				Expect:  &StepExpect{Error: "NOTHING_TO_UNDO"},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "NOTHING_TO_UNDO", result.Trace[0].Error)
}

func TestRun_UnexpectedErrorFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_size",
		Description: "A rejected command fails the result but later steps still run",
		Steps: []Step{
			{Command: &CommandStep{Kind: engine.CommandAddNode, Node: &NodeStep{ID: "a", Width: -1, Height: 10}}},
			addNodeStep("b", 0, 0),
		},
		Assertions: []Assertion{{Type: AssertNodeCount, Count: 1}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unexpected error INVALID_SIZE")
	require.Len(t, result.Trace, 2)
	assert.Empty(t, result.Trace[1].Error)
}

func TestRun_AdvanceDrivesDoubleClick(t *testing.T) {
	steps := []Step{
		addNodeStep("a", 0, 0),
		pointerStep(gesture.PointerDown, 10, 10, "a"),
		pointerStep(gesture.PointerUp, 10, 10, "a"),
	}
	second := pointerStep(gesture.PointerDown, 10, 10, "a")
	up := pointerStep(gesture.PointerUp, 10, 10, "a")

	quick := &Scenario{Name: "quick", Description: "d", Steps: append(append([]Step{}, steps...), withAdvance(second, "100ms"), up)}
	slow := &Scenario{Name: "slow", Description: "d", Steps: append(append([]Step{}, steps...), withAdvance(second, "2s"), up)}

	// A second press inside the window enters edit mode and so never
	// starts a gesture.
	result, err := Run(quick)
	require.NoError(t, err)
	assert.Equal(t, gesture.StateIdle, result.Trace[3].State)

	result, err = Run(slow)
	require.NoError(t, err)
	assert.Equal(t, gesture.StatePendingDrag, result.Trace[3].State)
}

func withAdvance(s Step, d string) Step {
	s.Advance = d
	return s
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/box_select_delete.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := MarshalTrace(scenario.Name, first)
	require.NoError(t, err)
	b, err := MarshalTrace(scenario.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_FreshSessionPerRun(t *testing.T) {
	scenario := &Scenario{
		Name:        "fresh",
		Description: "Each run starts from an empty canvas",
		Steps:       []Step{addNodeStep("a", 0, 0)},
		Assertions:  []Assertion{{Type: AssertNodeCount, Count: 1}},
	}

	for range 2 {
		result, err := Run(scenario)
		require.NoError(t, err)
		assert.True(t, result.Pass, "errors: %v", result.Errors)
	}
}

func TestRun_WithStoragePersists(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "canvas.db"))
	require.NoError(t, err)
	defer st.Close()

	scenario, err := LoadScenario("testdata/scenarios/drag_and_undo.yaml")
	require.NoError(t, err)

	result, err := Run(scenario, WithStorage(st))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	state, err := st.LoadWorkspace(context.Background(), ScenarioWorkspace, ScenarioUser)
	require.NoError(t, err)
	require.Len(t, state.Nodes, 1)
	assert.Equal(t, "a", state.Nodes[0].ID)
	assert.Equal(t, 0.0, state.Nodes[0].Position.X)
}

func TestRun_VisibleNodes(t *testing.T) {
	scenario := &Scenario{
		Name:        "visible",
		Description: "Only nodes near the screen are visible",
		Config:      &ScenarioConfig{Screen: &Screen{Width: 800, Height: 600}},
		Steps:       []Step{addNodeStep("a", 0, 0), addNodeStep("b", 1100, 0)},
		Assertions: []Assertion{
			{Type: AssertVisibleNodes, IDs: []string{"a"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []string{"a"}, result.Final.Visible)

	scenario.Config = nil
	result, err = Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "needs config.screen")
}

func TestRun_WithConfig(t *testing.T) {
	cfg := config.Default()
	cfg.DragThreshold = 100
	cfg.OverscanPx = 1000

	scenario := &Scenario{
		Name:        "config",
		Description: "Config tunables reach the session",
		Config:      &ScenarioConfig{Screen: &Screen{Width: 800, Height: 600}},
		Steps: []Step{
			addNodeStep("a", 0, 0),
			addNodeStep("b", 1100, 0),
			pointerStep(gesture.PointerDown, 10, 10, "a"),
			pointerStep(gesture.PointerMove, 40, 30, "a"),
		},
	}

	result, err := Run(scenario, WithConfig(cfg))
	require.NoError(t, err)
	assert.Equal(t, gesture.StatePendingDrag, result.Trace[3].State)
	assert.Equal(t, []string{"a", "b"}, result.Final.Visible)

	// Scenario config wins over the base config.
	scenario.Config.DragThreshold = 4
	result, err = Run(scenario, WithConfig(cfg))
	require.NoError(t, err)
	assert.Equal(t, gesture.StateDragging, result.Trace[3].State)
}
