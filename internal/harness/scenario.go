package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/canvas/internal/engine"
	"github.com/roach88/canvas/internal/gesture"
	"github.com/roach88/canvas/internal/ir"
)

// Scenario is a recorded interaction to replay against a session.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config overrides gesture tunables for this scenario.
	Config *ScenarioConfig `yaml:"config,omitempty"`

	// Steps run in order, one drain per step.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// ScenarioConfig overrides gesture.DefaultConfig. Zero fields keep the
// default.
type ScenarioConfig struct {
	DragThreshold float64 `yaml:"drag_threshold,omitempty"`
	DoubleClick   string  `yaml:"double_click,omitempty"`
	GridSize      float64 `yaml:"grid_size,omitempty"`
	SnapToGrid    bool    `yaml:"snap_to_grid,omitempty"`

	// Screen enables the visible node list in the final state.
	Screen *Screen `yaml:"screen,omitempty"`
}

// Screen is the pixel size of the simulated canvas element.
type Screen struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Step is one input event or command.
type Step struct {
	Pointer *PointerStep `yaml:"pointer,omitempty"`
	Key     string       `yaml:"key,omitempty"`
	Wheel   *WheelStep   `yaml:"wheel,omitempty"`
	Blur    bool         `yaml:"blur,omitempty"`
	Command *CommandStep `yaml:"command,omitempty"`

	// Advance moves the scenario clock before the step, e.g. "500ms".
	Advance string `yaml:"advance,omitempty"`

	// Expect checks the state right after the step.
	Expect *StepExpect `yaml:"expect,omitempty"`
}

// PointerStep is a pointer event in screen coordinates.
type PointerStep struct {
	Kind      gesture.PointerKind `yaml:"kind"`
	Button    gesture.Button      `yaml:"button,omitempty"`
	X         float64             `yaml:"x"`
	Y         float64             `yaml:"y"`
	Modifiers gesture.Modifiers   `yaml:"modifiers,omitempty"`
	Target    gesture.Target      `yaml:"target,omitempty"`
}

// WheelStep zooms by Factor around (X, Y).
type WheelStep struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Factor float64 `yaml:"factor"`
}

// CommandStep is a session command.
type CommandStep struct {
	Kind     engine.CommandKind `yaml:"kind"`
	Node     *NodeStep          `yaml:"node,omitempty"`
	NodeID   string             `yaml:"node_id,omitempty"`
	Title    *string            `yaml:"title,omitempty"`
	Text     *string            `yaml:"text,omitempty"`
	IDs      []string           `yaml:"ids,omitempty"`
	Viewport *ViewportStep      `yaml:"viewport,omitempty"`
}

// NodeStep describes a node to add. Width and height default per kind.
type NodeStep struct {
	ID     string      `yaml:"id,omitempty"`
	Kind   ir.NodeKind `yaml:"kind,omitempty"`
	X      float64     `yaml:"x"`
	Y      float64     `yaml:"y"`
	Width  float64     `yaml:"width,omitempty"`
	Height float64     `yaml:"height,omitempty"`
	Title  string      `yaml:"title,omitempty"`
	Text   string      `yaml:"text,omitempty"`
}

// ViewportStep sets any of the viewport fields.
type ViewportStep struct {
	OffsetX *float64 `yaml:"offset_x,omitempty"`
	OffsetY *float64 `yaml:"offset_y,omitempty"`
	Scale   *float64 `yaml:"scale,omitempty"`
}

// StepExpect is checked right after a step drains.
type StepExpect struct {
	// State is the expected gesture state.
	State gesture.State `yaml:"state,omitempty"`

	// Selection, when set, must equal the selection exactly.
	Selection *[]string `yaml:"selection,omitempty"`

	// Error is the expected error code. A step without one must succeed.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Node names the node for node_position and node_deleted.
	Node string `yaml:"node,omitempty"`

	X       float64 `yaml:"x,omitempty"`
	Y       float64 `yaml:"y,omitempty"`
	Scale   float64 `yaml:"scale,omitempty"`
	Deleted bool    `yaml:"deleted,omitempty"`

	// Count is used by node_count and connection_count.
	Count int `yaml:"count,omitempty"`

	// IDs is the expected selection, or the visible nodes in paint order.
	IDs []string `yaml:"ids,omitempty"`

	// State is the expected gesture state.
	State gesture.State `yaml:"state,omitempty"`

	// Value is used by can_undo and can_redo.
	Value bool `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertNodePosition    = "node_position"
	AssertNodeDeleted     = "node_deleted"
	AssertNodeCount       = "node_count"
	AssertConnectionCount = "connection_count"
	AssertSelection       = "selection"
	AssertGestureState    = "gesture_state"
	AssertVisibleNodes    = "visible_nodes"
	AssertViewport        = "viewport"
	AssertCanUndo         = "can_undo"
	AssertCanRedo         = "can_redo"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if s.Config != nil && s.Config.DoubleClick != "" {
		if _, err := time.ParseDuration(s.Config.DoubleClick); err != nil {
			return fmt.Errorf("config.double_click: %w", err)
		}
	}
	if s.Config != nil && s.Config.Screen != nil {
		if s.Config.Screen.Width <= 0 || s.Config.Screen.Height <= 0 {
			return fmt.Errorf("config.screen: width and height must be positive")
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, st *Step) error {
	set := 0
	if st.Pointer != nil {
		set++
	}
	if st.Key != "" {
		set++
	}
	if st.Wheel != nil {
		set++
	}
	if st.Blur {
		set++
	}
	if st.Command != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of pointer, key, wheel, blur or command is required", index)
	}

	if st.Advance != "" {
		d, err := time.ParseDuration(st.Advance)
		if err != nil {
			return fmt.Errorf("steps[%d].advance: %w", index, err)
		}
		if d < 0 {
			return fmt.Errorf("steps[%d].advance: must not be negative", index)
		}
	}

	if p := st.Pointer; p != nil {
		switch p.Kind {
		case gesture.PointerDown, gesture.PointerMove, gesture.PointerUp:
		default:
			return fmt.Errorf("steps[%d].pointer: unknown kind %q", index, p.Kind)
		}
	}
	if w := st.Wheel; w != nil && w.Factor <= 0 {
		return fmt.Errorf("steps[%d].wheel: factor must be positive", index)
	}
	if c := st.Command; c != nil && c.Kind == "" {
		return fmt.Errorf("steps[%d].command: kind is required", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertNodePosition, AssertNodeDeleted:
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for %s", index, a.Type)
		}
	case AssertNodeCount, AssertConnectionCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertGestureState:
		if a.State == "" {
			return fmt.Errorf("assertions[%d]: state is required for gesture_state", index)
		}
	case AssertSelection, AssertViewport, AssertCanUndo, AssertCanRedo, AssertVisibleNodes:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// gestureConfig applies the scenario's overrides to base.
func (s *Scenario) gestureConfig(base gesture.Config) gesture.Config {
	c := s.Config
	if c == nil {
		return base
	}
	if c.DragThreshold > 0 {
		base.DragThreshold = c.DragThreshold
	}
	if c.DoubleClick != "" {
		// Validated on load.
		d, _ := time.ParseDuration(c.DoubleClick)
		base.DoubleClickWindow = d
	}
	if c.GridSize > 0 {
		base.GridSize = c.GridSize
	}
	base.SnapToGrid = c.SnapToGrid
	return base
}
