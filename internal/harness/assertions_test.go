package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/canvas/internal/gesture"
)

func sampleResult() *Result {
	r := NewResult()
	r.AddTrace(TraceEvent{Seq: 1, Step: "command:add_node", State: gesture.StateIdle, Selection: []string{}})
	r.AddTrace(TraceEvent{Seq: 2, Step: "pointer:up", State: gesture.StateIdle, Selection: []string{"a", "b"}})
	r.Final = FinalState{
		Nodes: []NodeState{
			{ID: "a", X: 10, Y: 20},
			{ID: "b", X: 0, Y: 0, Deleted: true},
			{ID: "c", X: 5, Y: 5},
		},
		Connections: 2,
		OffsetX:     -5,
		OffsetY:     3,
		Scale:       1.5,
		CanUndo:     true,
	}
	return r
}

func TestEvaluateAssertions_AllPass(t *testing.T) {
	assertions := []Assertion{
		{Type: AssertNodePosition, Node: "a", X: 10, Y: 20},
		{Type: AssertNodeDeleted, Node: "b", Deleted: true},
		{Type: AssertNodeDeleted, Node: "c", Deleted: false},
		{Type: AssertNodeCount, Count: 2},
		{Type: AssertConnectionCount, Count: 2},
		{Type: AssertSelection, IDs: []string{"b", "a"}},
		{Type: AssertGestureState, State: gesture.StateIdle},
		{Type: AssertViewport, X: -5, Y: 3, Scale: 1.5},
		{Type: AssertCanUndo, Value: true},
		{Type: AssertCanRedo, Value: false},
	}

	assert.Empty(t, EvaluateAssertions(sampleResult(), assertions))
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		contains  string
	}{
		{"wrong position", Assertion{Type: AssertNodePosition, Node: "a", X: 0, Y: 0}, "Actual: (10, 20)"},
		{"missing node", Assertion{Type: AssertNodePosition, Node: "zzz"}, "node not found"},
		{"not deleted", Assertion{Type: AssertNodeDeleted, Node: "a", Deleted: true}, "Expected: true"},
		{"node count", Assertion{Type: AssertNodeCount, Count: 3}, "Actual: 2"},
		{"connection count", Assertion{Type: AssertConnectionCount, Count: 0}, "Actual: 2"},
		{"selection", Assertion{Type: AssertSelection, IDs: []string{"a"}}, "Actual: [a b]"},
		{"empty selection", Assertion{Type: AssertSelection}, "Expected: []"},
		{"gesture state", Assertion{Type: AssertGestureState, State: gesture.StatePanning}, "Actual: idle"},
		{"viewport", Assertion{Type: AssertViewport, Scale: 1}, "offset (-5, 3) scale 1.5"},
		{"can redo", Assertion{Type: AssertCanRedo, Value: true}, "Actual: false"},
		{"unknown type", Assertion{Type: "final_state"}, `unknown assertion type "final_state"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(sampleResult(), []Assertion{tt.assertion})
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], "assertions[0]")
			assert.Contains(t, errs[0], tt.contains)
		})
	}
}

func TestAssertionError_ErrorFormat(t *testing.T) {
	err := &AssertionError{
		Type:     AssertNodePosition,
		Expected: "node a at (1, 2)",
		Actual:   "(3, 4)",
		Trace: []TraceEvent{
			{Seq: 1, Step: "command:add_node", State: gesture.StateIdle, Selection: []string{}},
			{Seq: 2, Step: "command:undo", State: gesture.StateIdle, Error: "NOTHING_TO_UNDO"},
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: node_position")
	assert.Contains(t, msg, "Expected: node a at (1, 2)")
	assert.Contains(t, msg, "Actual: (3, 4)")
	assert.Contains(t, msg, "[1] command:add_node -> idle []")
	assert.Contains(t, msg, "[2] command:undo -> idle (NOTHING_TO_UNDO)")
}

func TestResult_AddErrorFails(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)
	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
