package harness

import "github.com/roach88/canvas/internal/gesture"

// TraceEvent records the state right after one step drained.
type TraceEvent struct {
	Seq       int64         `json:"seq"`
	Step      string        `json:"step"`
	State     gesture.State `json:"state"`
	Selection []string      `json:"selection"`
	Error     string        `json:"error,omitempty"`
}

// NodeState is a node's final position.
type NodeState struct {
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Deleted bool    `json:"deleted,omitempty"`
}

// FinalState is the state left after the last step.
type FinalState struct {
	// Nodes holds every node, deleted ones included, in paint order.
	Nodes       []NodeState `json:"nodes"`
	Connections int         `json:"connections"`
	OffsetX     float64     `json:"offset_x"`
	OffsetY     float64     `json:"offset_y"`
	Scale       float64     `json:"scale"`
	CanUndo     bool        `json:"can_undo"`
	CanRedo     bool        `json:"can_redo"`

	// Visible is set when the scenario configures a screen.
	Visible []string `json:"visible,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step expectation and assertion matched.
	Pass bool `json:"pass"`

	// Trace has one entry per step in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the state after the last step.
	Final FinalState `json:"final"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step's trace entry.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
