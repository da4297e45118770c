package gesture

import (
	"github.com/roach88/canvas/internal/cull"
	"github.com/roach88/canvas/internal/geom"
	"github.com/roach88/canvas/internal/ir"
	"github.com/roach88/canvas/internal/model"
)

func (c *Controller) down(e PointerEvent) {
	if c.state != StateIdle {
		return
	}
	world := c.transform().ScreenToWorld(e.Screen)
	c.g = gestureState{
		downScreen: e.Screen,
		lastScreen: e.Screen,
		downWorld:  world,
		pointer:    world,
		downAt:     e.Time,
		additive:   e.Modifiers.Shift || e.Modifiers.Ctrl,
	}

	if e.Button == ButtonMiddle || (e.Button == ButtonLeft && e.Modifiers.Space) {
		c.g.startViewport = c.canvas.Viewport()
		c.g.before = c.canvas.Snapshot()
		c.enter(StatePanning)
		return
	}
	if e.Button != ButtonLeft {
		c.reset()
		return
	}

	var next State
	switch e.Target.Kind {
	case TargetNode:
		next = c.downOnNode(e)
	case TargetResizeHandle:
		next = c.downOnHandle(e)
	case TargetAnchor:
		next = c.downOnAnchor(e)
	case TargetCanvas, "":
		c.g.box = geom.Rect{X: world.X, Y: world.Y}
		next = StateBoxSelecting
	}
	if next == "" || next == StateIdle {
		c.reset()
		return
	}
	c.enter(next)
}

// liveNode returns the node id names if it exists and is not deleted.
func (c *Controller) liveNode(id string) (ir.Node, bool) {
	n, ok := c.canvas.Node(id)
	if !ok || n.Deleted {
		return ir.Node{}, false
	}
	return n, true
}

func (c *Controller) downOnNode(e PointerEvent) State {
	id := e.Target.NodeID
	if _, ok := c.liveNode(id); !ok || c.canvas.IsEditing(id) {
		return StateIdle
	}
	if c.isDoubleClick(id, e) {
		c.lastClick = click{}
		logAction("enter_edit_mode", c.canvas.EnterEditMode(id))
		return StateIdle
	}
	c.g.nodeID = id
	return StatePendingDrag
}

func (c *Controller) downOnHandle(e PointerEvent) State {
	id := e.Target.NodeID
	n, ok := c.liveNode(id)
	if !ok || !e.Target.Handle.Valid() || c.canvas.IsEditing(id) {
		return StateIdle
	}
	c.g.nodeID = id
	c.g.handle = e.Target.Handle
	c.g.startRect = geom.NodeRect(n)
	c.g.resize = c.g.startRect
	c.g.startText = n.Content.TextScale
	return StateResizing
}

func (c *Controller) downOnAnchor(e PointerEvent) State {
	id := e.Target.NodeID
	if _, ok := c.liveNode(id); !ok {
		return StateIdle
	}
	if ir.ValidateAnchor(e.Target.Anchor) != nil {
		return StateIdle
	}
	c.g.nodeID = id
	c.g.source = ir.Endpoint{NodeID: id, Anchor: e.Target.Anchor}
	return StateConnecting
}

func (c *Controller) isDoubleClick(id string, e PointerEvent) bool {
	last := c.lastClick
	if last.nodeID != id || last.at.IsZero() {
		return false
	}
	gap := e.Time.Sub(last.at)
	return gap >= 0 && gap <= c.cfg.DoubleClickWindow
}

func (c *Controller) move(e PointerEvent) {
	if c.state == StateIdle {
		return
	}
	c.track(e)
}

// track folds a pointer position into the gesture's preview. Only panning
// writes through.
func (c *Controller) track(e PointerEvent) {
	t := c.transform()
	world := t.ScreenToWorld(e.Screen)
	c.g.pointer = world

	switch c.state {
	case StatePendingDrag:
		if e.Screen.Sub(c.g.downScreen).Len() < c.cfg.DragThreshold {
			return
		}
		if !c.canvas.IsSelected(c.g.nodeID) {
			c.canvas.SetSelection([]string{c.g.nodeID}, c.g.additive)
		}
		c.lastClick = click{}
		c.enter(StateDragging)
		c.g.drag = t.ScreenDeltaToWorld(e.Screen.Sub(c.g.downScreen))

	case StateDragging:
		c.g.drag = t.ScreenDeltaToWorld(e.Screen.Sub(c.g.downScreen))

	case StateResizing:
		d := t.ScreenDeltaToWorld(e.Screen.Sub(c.g.downScreen))
		c.g.resize = resizeRect(c.g.startRect, c.g.handle, d, c.cfg.MinSize)

	case StateConnecting:
		c.g.hover = c.anchorTarget(e.Target)

	case StateBoxSelecting:
		c.g.box = geom.RectFromCorners(c.g.downWorld, world)

	case StatePanning:
		v := t.PanBy(e.Screen.Sub(c.g.lastScreen)).Viewport()
		c.canvas.SetViewport(ir.ViewportPatch{OffsetX: &v.OffsetX, OffsetY: &v.OffsetY})
	}
	c.g.lastScreen = e.Screen
}

// anchorTarget returns the endpoint a connection would attach to if the
// pointer were released over t, or nil.
func (c *Controller) anchorTarget(t Target) *ir.Endpoint {
	if t.Kind != TargetAnchor || t.NodeID == c.g.source.NodeID {
		return nil
	}
	if _, ok := c.liveNode(t.NodeID); !ok {
		return nil
	}
	if ir.ValidateAnchor(t.Anchor) != nil {
		return nil
	}
	return &ir.Endpoint{NodeID: t.NodeID, Anchor: t.Anchor}
}

func (c *Controller) up(e PointerEvent) {
	if c.state == StateIdle {
		return
	}
	c.track(e)

	switch c.state {
	case StatePendingDrag:
		c.click(e)
	case StateDragging:
		c.commitDrag()
	case StateResizing:
		c.commitResize()
	case StateConnecting:
		c.commitConnection()
	case StateBoxSelecting:
		c.canvas.SetSelection(cull.Contained(c.canvas.Nodes(), c.g.box), c.g.additive)
	case StatePanning:
		c.checkpoint("pan", c.g.before)
	}
	c.reset()
}

func (c *Controller) click(e PointerEvent) {
	id := c.g.nodeID
	if c.g.additive {
		c.canvas.ToggleSelection(id)
	} else {
		c.canvas.SetSelection([]string{id}, false)
	}
	if e.Time.Sub(c.g.downAt) <= c.cfg.DoubleClickWindow {
		c.lastClick = click{nodeID: id, at: e.Time}
	} else {
		c.lastClick = click{}
	}
}

func (c *Controller) commitDrag() {
	d := c.snapDelta(c.g.drag)
	if d.X == 0 && d.Y == 0 {
		return
	}
	before := c.canvas.Snapshot()
	if err := c.canvas.MoveSelection(d.X, d.Y); err != nil {
		logAction("move_selection", err)
		return
	}
	c.checkpoint("move", before)
}

// snapDelta adjusts d so the dragged node lands on the grid.
func (c *Controller) snapDelta(d geom.Point) geom.Point {
	if !c.cfg.SnapToGrid || c.cfg.GridSize <= 0 {
		return d
	}
	n, ok := c.liveNode(c.g.nodeID)
	if !ok {
		return d
	}
	return geom.Point{
		X: geom.Snap(n.Position.X+d.X, c.cfg.GridSize) - n.Position.X,
		Y: geom.Snap(n.Position.Y+d.Y, c.cfg.GridSize) - n.Position.Y,
	}
}

func (c *Controller) commitResize() {
	r, start := c.g.resize, c.g.startRect
	if r == start {
		return
	}
	p := ir.NodePatch{
		Position: &ir.PositionPatch{X: ir.Ptr(r.X), Y: ir.Ptr(r.Y)},
		Size:     &ir.SizePatch{Width: ir.Ptr(r.W), Height: ir.Ptr(r.H)},
	}
	if ts := scaledText(c.g.startText, start.H, r.H); ts != c.g.startText {
		p.Content = &ir.ContentPatch{TextScale: ir.Ptr(ts)}
	}

	before := c.canvas.Snapshot()
	if err := c.canvas.UpdateNode(c.g.nodeID, p); err != nil {
		logAction("resize_node", err)
		return
	}
	c.checkpoint("resize", before)
}

func (c *Controller) commitConnection() {
	if c.g.hover == nil {
		return
	}
	before := c.canvas.Snapshot()
	if _, err := c.canvas.CreateConnection(c.g.source, *c.g.hover, model.ConnectionOptions{}); err != nil {
		logAction("create_connection", err)
		return
	}
	c.checkpoint("connect", before)
}

func (c *Controller) wheel(e WheelEvent) {
	if c.state != StateIdle || e.Factor <= 0 {
		return
	}
	before := c.canvas.Snapshot()
	v := c.transform().ZoomAt(e.Screen, e.Factor, ir.MinScale, ir.MaxScale).Viewport()
	c.canvas.SetViewport(ir.ViewportPatch{OffsetX: &v.OffsetX, OffsetY: &v.OffsetY, Scale: &v.Scale})
	if c.history != nil {
		c.history.CheckpointCoalesced("zoom", before)
	}
}

func (c *Controller) deleteSelection() {
	if c.state != StateIdle {
		return
	}
	sel := c.canvas.Selection()
	if len(sel) == 0 {
		return
	}
	for _, id := range sel {
		if c.canvas.IsEditing(id) {
			// Keystrokes belong to the content editor.
			return
		}
	}
	before := c.canvas.Snapshot()
	if err := c.canvas.DeleteSelection(); err != nil {
		logAction("delete_selection", err)
		return
	}
	c.checkpoint("delete", before)
}
