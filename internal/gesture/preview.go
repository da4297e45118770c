package gesture

import (
	"github.com/roach88/canvas/internal/geom"
	"github.com/roach88/canvas/internal/ir"
)

// Preview is the uncommitted part of the gesture in progress, in world
// coordinates. Renderers draw it on top of the canvas state.
type Preview struct {
	State State

	// Drag is the pending offset of every selected node.
	Drag geom.Point

	Resize     *ResizePreview
	Connection *ConnectionPreview
	Box        *geom.Rect
}

// ResizePreview is the pending bounds of a node being resized.
type ResizePreview struct {
	NodeID    string
	Rect      geom.Rect
	TextScale float64
}

// ConnectionPreview is the edge being drawn. Target is set while the
// pointer is over an anchor the edge could attach to.
type ConnectionPreview struct {
	Source ir.Endpoint
	From   geom.Point
	To     geom.Point
	Target *ir.Endpoint
}

// Preview returns the current gesture preview.
func (c *Controller) Preview() Preview {
	p := Preview{State: c.state}
	switch c.state {
	case StateDragging:
		p.Drag = c.g.drag
	case StateResizing:
		p.Resize = &ResizePreview{
			NodeID:    c.g.nodeID,
			Rect:      c.g.resize,
			TextScale: scaledText(c.g.startText, c.g.startRect.H, c.g.resize.H),
		}
	case StateConnecting:
		cp := &ConnectionPreview{Source: c.g.source, To: c.g.pointer}
		if n, ok := c.liveNode(c.g.source.NodeID); ok {
			cp.From = geom.EndpointPoint(n, c.g.source.Anchor)
		}
		if h := c.g.hover; h != nil {
			target := *h
			cp.Target = &target
			if n, ok := c.liveNode(h.NodeID); ok {
				cp.To = geom.EndpointPoint(n, h.Anchor)
			}
		}
		p.Connection = cp
	case StateBoxSelecting:
		box := c.g.box
		p.Box = &box
	}
	return p
}
