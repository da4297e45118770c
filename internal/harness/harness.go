package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/canvas/internal/config"
	"github.com/roach88/canvas/internal/engine"
	"github.com/roach88/canvas/internal/geom"
	"github.com/roach88/canvas/internal/gesture"
	"github.com/roach88/canvas/internal/ir"
	"github.com/roach88/canvas/internal/testutil"
)

// Workspace and user every scenario session edits.
const (
	ScenarioWorkspace = "scenario"
	ScenarioUser      = "scenario-user"
)

// Harness is the test execution engine.
// It runs scenarios with a fake clock and sequential node IDs.
type Harness struct {
	session *engine.Session
	clock   *testutil.FakeClock
	logger  *slog.Logger
}

// RunOption configures Run.
type RunOption func(*runConfig)

type runConfig struct {
	storage engine.Storage
	logger  *slog.Logger
	gesture gesture.Config
	session []engine.Option
}

// WithStorage persists the scenario session to st instead of keeping it
// in memory.
func WithStorage(st engine.Storage) RunOption {
	return func(c *runConfig) { c.storage = st }
}

// WithConfig runs the session with cfg's gesture, history and overscan
// tunables. Scenario config still overrides the gesture tunables. Saves
// are never debounced so runs stay deterministic.
func WithConfig(cfg *config.Config) RunOption {
	return func(c *runConfig) {
		c.gesture = cfg.Gesture()
		c.session = cfg.SessionOptions()
	}
}

// WithLogger sets the logger for step-level messages.
func WithLogger(l *slog.Logger) RunOption {
	return func(c *runConfig) { c.logger = l }
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs on a fresh session. Without WithStorage the session
// is in-memory.
//
// Execution flow:
// 1. Create and mount a session
// 2. Enqueue and drain each step, checking its expectation
// 3. Capture the final state
// 4. Evaluate assertions
func Run(scenario *Scenario, opts ...RunOption) (*Result, error) {
	cfg := runConfig{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
		gesture: gesture.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	clock := testutil.NewFakeClock(testutil.Epoch)
	sessionOpts := append(cfg.session,
		engine.WithNow(clock.Now),
		engine.WithIDGenerator(testutil.NewSequenceIDs("n")),
		engine.WithSaveDelay(0),
		engine.WithReplicaID(ScenarioUser),
		engine.WithGestureConfig(scenario.gestureConfig(cfg.gesture)),
	)
	if cfg.storage != nil {
		sessionOpts = append(sessionOpts, engine.WithStorage(cfg.storage))
	}

	h := &Harness{
		session: engine.New(ScenarioWorkspace, ScenarioUser, sessionOpts...),
		clock:   clock,
		logger:  cfg.logger,
	}

	ctx := context.Background()
	if err := h.session.Mount(ctx); err != nil {
		return nil, fmt.Errorf("failed to mount session: %w", err)
	}
	defer h.session.Unmount(ctx)

	result := NewResult()
	if err := h.executeSteps(ctx, scenario.Steps, result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}
	if err := h.session.Flush(ctx); err != nil {
		return nil, fmt.Errorf("failed to flush session: %w", err)
	}

	result.Final = h.finalState(scenario.Config)
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

// executeSteps runs every step in order.
//
// A step that fails without an expected error fails the result but does
// not stop the scenario.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) error {
	for i, step := range steps {
		if step.Advance != "" {
			d, err := time.ParseDuration(step.Advance)
			if err != nil {
				return fmt.Errorf("steps[%d].advance: %w", i, err)
			}
			h.clock.Advance(d)
		}

		ev, name := h.event(step)
		h.session.Enqueue(ev)
		stepErr := h.session.Drain(ctx)

		store := h.session.Store()
		entry := TraceEvent{
			Seq:       h.session.Clock().Current(),
			Step:      name,
			State:     h.session.Controller().State(),
			Selection: nonNil(store.Selection()),
		}
		if stepErr != nil {
			entry.Error = errorCode(stepErr)
		}
		result.AddTrace(entry)

		h.logger.Debug("step", "index", i, "step", name, "state", entry.State, "error", entry.Error)
		checkStep(i, step.Expect, entry, result)
	}
	return nil
}

// event converts a step to a session event and names it for the trace.
func (h *Harness) event(step Step) (engine.Event, string) {
	now := h.clock.Now()
	switch {
	case step.Pointer != nil:
		p := step.Pointer
		button := p.Button
		if button == "" {
			button = gesture.ButtonLeft
		}
		return engine.InputEvent(gesture.PointerEvent{
			Kind:      p.Kind,
			Button:    button,
			Screen:    geom.Point{X: p.X, Y: p.Y},
			Modifiers: p.Modifiers,
			Target:    p.Target,
			Time:      now,
		}), "pointer:" + string(p.Kind)

	case step.Key != "":
		return engine.InputEvent(gesture.KeyEvent{Key: step.Key}), "key:" + step.Key

	case step.Wheel != nil:
		w := step.Wheel
		return engine.InputEvent(gesture.WheelEvent{
			Screen: geom.Point{X: w.X, Y: w.Y},
			Factor: w.Factor,
		}), "wheel"

	case step.Blur:
		return engine.InputEvent(gesture.BlurEvent{}), "blur"

	default:
		cmd := step.Command.toCommand()
		return engine.CommandEvent(cmd), "command:" + string(cmd.Kind)
	}
}

func (c *CommandStep) toCommand() engine.Command {
	cmd := engine.Command{
		Kind:   c.Kind,
		NodeID: c.NodeID,
		IDs:    c.IDs,
	}
	if n := c.Node; n != nil {
		in := ir.NodeInput{
			ID:       n.ID,
			Kind:     n.Kind,
			Position: &ir.Position{X: n.X, Y: n.Y},
		}
		if n.Width > 0 || n.Height > 0 {
			in.Size = &ir.Size{Width: n.Width, Height: n.Height}
		}
		if n.Title != "" || n.Text != "" {
			in.Content = &ir.Content{Title: n.Title, Text: n.Text, TextScale: 1}
		}
		cmd.Node = &in
	}
	if c.Title != nil || c.Text != nil {
		cmd.Content = &ir.ContentPatch{Title: c.Title, Text: c.Text}
	}
	if v := c.Viewport; v != nil {
		cmd.Viewport = &ir.ViewportPatch{OffsetX: v.OffsetX, OffsetY: v.OffsetY, Scale: v.Scale}
	}
	return cmd
}

func checkStep(index int, expect *StepExpect, got TraceEvent, result *Result) {
	var want StepExpect
	if expect != nil {
		want = *expect
	}

	if got.Error != want.Error {
		switch {
		case want.Error == "":
			result.AddError(fmt.Sprintf("steps[%d] %s: unexpected error %s", index, got.Step, got.Error))
		default:
			result.AddError(fmt.Sprintf("steps[%d] %s: expected error %s, got %q", index, got.Step, want.Error, got.Error))
		}
	}
	if want.State != "" && got.State != want.State {
		result.AddError(fmt.Sprintf("steps[%d] %s: expected state %s, got %s", index, got.Step, want.State, got.State))
	}
	if want.Selection != nil && !slices.Equal(*want.Selection, got.Selection) {
		result.AddError(fmt.Sprintf("steps[%d] %s: expected selection %v, got %v", index, got.Step, *want.Selection, got.Selection))
	}
}

func (h *Harness) finalState(sc *ScenarioConfig) FinalState {
	store := h.session.Store()
	snap := store.Snapshot()
	past, future := h.session.History().Len()

	fs := FinalState{
		Nodes:       []NodeState{},
		Connections: len(store.Connections()),
		OffsetX:     snap.Viewport.OffsetX,
		OffsetY:     snap.Viewport.OffsetY,
		Scale:       snap.Viewport.Scale,
		CanUndo:     past > 0,
		CanRedo:     future > 0,
	}
	if sc != nil && sc.Screen != nil {
		fs.Visible = nonNil(h.session.Visible(sc.Screen.Width, sc.Screen.Height))
	}
	for _, n := range store.AllNodes() {
		fs.Nodes = append(fs.Nodes, NodeState{
			ID:      n.ID,
			X:       n.Position.X,
			Y:       n.Position.Y,
			Deleted: n.Deleted,
		})
	}
	return fs
}

// errorCode reduces err to a stable code for traces.
func errorCode(err error) string {
	if code := engine.ErrorCode(err); code != "" {
		return string(code)
	}
	if code := ir.ValidationCode(err); code != "" {
		return string(code)
	}
	return "ERROR"
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
