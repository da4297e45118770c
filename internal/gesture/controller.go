package gesture

import (
	"log/slog"
	"time"

	"github.com/roach88/canvas/internal/geom"
	"github.com/roach88/canvas/internal/ir"
	"github.com/roach88/canvas/internal/model"
)

// State is the controller's current gesture.
type State string

const (
	StateIdle         State = "idle"
	StatePendingDrag  State = "pending-drag"
	StateDragging     State = "dragging-node"
	StateResizing     State = "resizing"
	StateConnecting   State = "connecting"
	StateBoxSelecting State = "box-selecting"
	StatePanning      State = "panning"
)

// Canvas is the action surface the controller drives. *model.Store
// implements it.
type Canvas interface {
	Node(id string) (ir.Node, bool)
	Nodes() []ir.Node
	Viewport() ir.Viewport
	Snapshot() ir.Snapshot

	Selection() []string
	IsSelected(id string) bool
	IsEditing(id string) bool
	SetSelection(ids []string, additive bool)
	ToggleSelection(id string)
	EnterEditMode(id string) error
	ExitAllEditModes()

	MoveSelection(dx, dy float64) error
	UpdateNode(id string, p ir.NodePatch) error
	DeleteSelection() error
	CreateConnection(src, dst ir.Endpoint, opts model.ConnectionOptions) (string, error)
	SetViewport(p ir.ViewportPatch)
}

// Recorder receives a checkpoint when a gesture completes. *history.History
// implements it.
type Recorder interface {
	Checkpoint(label string, before ir.Snapshot) bool
	CheckpointCoalesced(label string, before ir.Snapshot) bool
}

// Config holds the controller's tunables.
type Config struct {
	// DragThreshold is the screen distance a pointer must travel before a
	// press on a node becomes a drag.
	DragThreshold float64

	// DoubleClickWindow is the longest gap between the first click's
	// release and the second press that still counts as a double click.
	DoubleClickWindow time.Duration

	// MinSize is the smallest size a resize can produce.
	MinSize ir.Size

	// GridSize snaps dragged nodes when SnapToGrid is set.
	GridSize   float64
	SnapToGrid bool
}

// DefaultConfig returns the standard tunables.
func DefaultConfig() Config {
	return Config{
		DragThreshold:     4,
		DoubleClickWindow: 300 * time.Millisecond,
		MinSize:           ir.Size{Width: 40, Height: 24},
		GridSize:          20,
	}
}

// Controller is the gesture state machine. It is not safe for concurrent
// use; the session loop owns it.
type Controller struct {
	canvas  Canvas
	history Recorder
	cfg     Config

	state State
	g     gestureState

	lastClick click
}

// gestureState is the state of the gesture in progress. It is reset on
// every return to idle.
type gestureState struct {
	nodeID string
	handle Handle

	downScreen geom.Point
	lastScreen geom.Point
	downWorld  geom.Point
	downAt     time.Time
	additive   bool

	drag      geom.Point
	startRect geom.Rect
	startText float64
	resize    geom.Rect

	source  ir.Endpoint
	pointer geom.Point
	hover   *ir.Endpoint

	box geom.Rect

	// pan only
	startViewport ir.Viewport
	before        ir.Snapshot
}

type click struct {
	nodeID string
	at     time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithConfig replaces the default tunables.
func WithConfig(cfg Config) Option {
	return func(c *Controller) { c.cfg = cfg }
}

// WithRecorder sets the history that receives checkpoints.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.history = r }
}

// New returns an idle controller over canvas.
func New(canvas Canvas, opts ...Option) *Controller {
	c := &Controller{
		canvas: canvas,
		cfg:    DefaultConfig(),
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current gesture state.
func (c *Controller) State() State {
	return c.state
}

// Config returns the controller's tunables.
func (c *Controller) Config() Config {
	return c.cfg
}

// SetConfig replaces the tunables. It takes effect on the next gesture.
func (c *Controller) SetConfig(cfg Config) {
	c.cfg = cfg
}

// Handle processes one input event.
func (c *Controller) Handle(ev Event) {
	switch e := ev.(type) {
	case PointerEvent:
		c.pointer(e)
	case KeyEvent:
		c.key(e)
	case BlurEvent:
		c.Cancel()
	case WheelEvent:
		c.wheel(e)
	}
}

func (c *Controller) pointer(e PointerEvent) {
	switch e.Kind {
	case PointerDown:
		c.down(e)
	case PointerMove:
		c.move(e)
	case PointerUp:
		c.up(e)
	}
}

func (c *Controller) key(e KeyEvent) {
	switch e.Key {
	case KeyEscape:
		if c.state != StateIdle {
			c.Cancel()
			return
		}
		c.canvas.ExitAllEditModes()
	case KeyDelete, KeyBackspace:
		c.deleteSelection()
	}
}

// Cancel abandons the gesture in progress and returns to idle. Previews are
// discarded; a pan is rolled back to where it started.
func (c *Controller) Cancel() {
	if c.state == StateIdle {
		return
	}
	if c.state == StatePanning {
		v := c.g.startViewport
		c.canvas.SetViewport(ir.ViewportPatch{OffsetX: &v.OffsetX, OffsetY: &v.OffsetY, Scale: &v.Scale})
	}
	slog.Debug("gesture canceled", "state", c.state)
	c.reset()
}

func (c *Controller) transform() geom.Transform {
	return geom.FromViewport(c.canvas.Viewport())
}

func (c *Controller) enter(s State) {
	slog.Debug("gesture state", "from", c.state, "to", s, "node", c.g.nodeID)
	c.state = s
}

func (c *Controller) reset() {
	if c.state != StateIdle {
		c.enter(StateIdle)
	}
	c.g = gestureState{}
}

// checkpoint reports a completed gesture to history.
func (c *Controller) checkpoint(label string, before ir.Snapshot) {
	if c.history != nil {
		c.history.Checkpoint(label, before)
	}
}

func logAction(action string, err error) {
	if err != nil {
		slog.Debug("gesture action rejected", "action", action, "error", err)
	}
}
