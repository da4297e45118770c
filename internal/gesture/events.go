package gesture

import (
	"time"

	"github.com/roach88/canvas/internal/geom"
	"github.com/roach88/canvas/internal/ir"
)

// Event is any input the Controller handles.
type Event interface {
	isEvent()
}

// PointerKind is the phase of a pointer event.
type PointerKind string

const (
	PointerDown PointerKind = "down"
	PointerMove PointerKind = "move"
	PointerUp   PointerKind = "up"
)

// Button identifies the pointer button.
type Button string

const (
	ButtonLeft   Button = "left"
	ButtonMiddle Button = "middle"
	ButtonRight  Button = "right"
)

// Modifiers are the keys held during a pointer event.
type Modifiers struct {
	Shift bool `yaml:"shift,omitempty" json:"shift,omitempty"`
	Ctrl  bool `yaml:"ctrl,omitempty" json:"ctrl,omitempty"`
	Space bool `yaml:"space,omitempty" json:"space,omitempty"`
}

// TargetKind is what the pointer went down on.
type TargetKind string

const (
	TargetCanvas       TargetKind = "canvas"
	TargetNode         TargetKind = "node"
	TargetResizeHandle TargetKind = "resize-handle"
	TargetAnchor       TargetKind = "anchor"
)

// Handle names a resize handle by compass direction.
type Handle string

const (
	HandleN  Handle = "n"
	HandleS  Handle = "s"
	HandleE  Handle = "e"
	HandleW  Handle = "w"
	HandleNE Handle = "ne"
	HandleNW Handle = "nw"
	HandleSE Handle = "se"
	HandleSW Handle = "sw"
)

// Valid reports whether h is one of the eight handles.
func (h Handle) Valid() bool {
	switch h {
	case HandleN, HandleS, HandleE, HandleW, HandleNE, HandleNW, HandleSE, HandleSW:
		return true
	}
	return false
}

func (h Handle) has(dir byte) bool {
	for i := 0; i < len(h); i++ {
		if h[i] == dir {
			return true
		}
	}
	return false
}

// Target is the hit-test result for a pointer event. The host's renderer
// performs hit testing.
type Target struct {
	Kind   TargetKind `yaml:"kind" json:"kind"`
	NodeID string     `yaml:"node,omitempty" json:"node,omitempty"`
	Handle Handle     `yaml:"handle,omitempty" json:"handle,omitempty"`
	Anchor ir.Anchor  `yaml:"anchor,omitempty" json:"anchor,omitempty"`
}

// PointerEvent is a pointer down, move or up in screen coordinates.
type PointerEvent struct {
	Kind      PointerKind
	Button    Button
	Screen    geom.Point
	Modifiers Modifiers
	Target    Target
	Time      time.Time
}

// KeyEvent is a key press.
type KeyEvent struct {
	Key string
}

// Key names the controller reacts to.
const (
	KeyEscape    = "Escape"
	KeyDelete    = "Delete"
	KeyBackspace = "Backspace"
)

// BlurEvent reports that pointer capture or window focus was lost.
type BlurEvent struct{}

// WheelEvent zooms by Factor around the pointer. Factors above 1 zoom in.
type WheelEvent struct {
	Screen geom.Point
	Factor float64
}

func (PointerEvent) isEvent() {}
func (KeyEvent) isEvent()     {}
func (BlurEvent) isEvent()    {}
func (WheelEvent) isEvent()   {}
