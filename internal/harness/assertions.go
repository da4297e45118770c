package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/canvas/internal/gesture"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		if event.Error != "" {
			fmt.Fprintf(&buf, "  [%d] %s -> %s (%s)\n", event.Seq, event.Step, event.State, event.Error)
			continue
		}
		fmt.Fprintf(&buf, "  [%d] %s -> %s %v\n", event.Seq, event.Step, event.State, event.Selection)
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against result and returns
// the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %s", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertNodePosition:
		return assertNodePosition(result, a)
	case AssertNodeDeleted:
		return assertNodeDeleted(result, a)
	case AssertNodeCount:
		live := 0
		for _, n := range result.Final.Nodes {
			if !n.Deleted {
				live++
			}
		}
		return expectEqual(result, a.Type, a.Count, live)
	case AssertConnectionCount:
		return expectEqual(result, a.Type, a.Count, result.Final.Connections)
	case AssertSelection:
		return assertSelection(result, a)
	case AssertGestureState:
		return expectEqual(result, a.Type, a.State, lastState(result))
	case AssertViewport:
		want := fmt.Sprintf("offset (%g, %g) scale %g", a.X, a.Y, a.Scale)
		got := fmt.Sprintf("offset (%g, %g) scale %g", result.Final.OffsetX, result.Final.OffsetY, result.Final.Scale)
		return expectEqual(result, a.Type, want, got)
	case AssertVisibleNodes:
		return assertVisible(result, a)
	case AssertCanUndo:
		return expectEqual(result, a.Type, a.Value, result.Final.CanUndo)
	case AssertCanRedo:
		return expectEqual(result, a.Type, a.Value, result.Final.CanRedo)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertNodePosition checks a node sits at (a.X, a.Y).
func assertNodePosition(result *Result, a Assertion) error {
	n, ok := findNode(result, a.Node)
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("node %s at (%g, %g)", a.Node, a.X, a.Y),
			Actual:   "node not found",
			Trace:    result.Trace,
		}
	}
	if n.X != a.X || n.Y != a.Y {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("node %s at (%g, %g)", a.Node, a.X, a.Y),
			Actual:   fmt.Sprintf("(%g, %g)", n.X, n.Y),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertNodeDeleted(result *Result, a Assertion) error {
	n, ok := findNode(result, a.Node)
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("node %s deleted=%t", a.Node, a.Deleted),
			Actual:   "node not found",
			Trace:    result.Trace,
		}
	}
	return expectEqual(result, a.Type, a.Deleted, n.Deleted)
}

// assertSelection compares the selection after the last step. The
// selection is not part of the document, so it is read from the trace.
func assertSelection(result *Result, a Assertion) error {
	got := []string{}
	if len(result.Trace) > 0 {
		got = result.Trace[len(result.Trace)-1].Selection
	}
	want := a.IDs
	if want == nil {
		want = []string{}
	}
	sorted := slices.Clone(want)
	slices.Sort(sorted)
	if !slices.Equal(sorted, got) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%v", sorted),
			Actual:   fmt.Sprintf("%v", got),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertVisible compares the culled node list, order included.
func assertVisible(result *Result, a Assertion) error {
	if result.Final.Visible == nil {
		return fmt.Errorf("visible_nodes needs config.screen")
	}
	want := a.IDs
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(want, result.Final.Visible) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%v", want),
			Actual:   fmt.Sprintf("%v", result.Final.Visible),
			Trace:    result.Trace,
		}
	}
	return nil
}

func expectEqual[T comparable](result *Result, typ string, want, got T) error {
	if want == got {
		return nil
	}
	return &AssertionError{
		Type:     typ,
		Expected: fmt.Sprintf("%v", want),
		Actual:   fmt.Sprintf("%v", got),
		Trace:    result.Trace,
	}
}

func findNode(result *Result, id string) (NodeState, bool) {
	for _, n := range result.Final.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeState{}, false
}

func lastState(result *Result) gesture.State {
	if len(result.Trace) == 0 {
		return gesture.StateIdle
	}
	return result.Trace[len(result.Trace)-1].State
}
