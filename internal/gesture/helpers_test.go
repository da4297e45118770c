package gesture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/canvas/internal/doc"
	"github.com/roach88/canvas/internal/geom"
	"github.com/roach88/canvas/internal/history"
	"github.com/roach88/canvas/internal/ir"
	"github.com/roach88/canvas/internal/model"
	"github.com/roach88/canvas/internal/testutil"
)

var (
	_ Canvas   = (*model.Store)(nil)
	_ Recorder = (*history.History)(nil)
)

// countingCanvas records the moves that reach the store.
type countingCanvas struct {
	*model.Store
	moves []geom.Point
}

func (c *countingCanvas) MoveSelection(dx, dy float64) error {
	c.moves = append(c.moves, geom.Point{X: dx, Y: dy})
	return c.Store.MoveSelection(dx, dy)
}

type fixture struct {
	store   *model.Store
	doc     *doc.Doc
	history *history.History
	canvas  *countingCanvas
	ctl     *Controller
}

func setup(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	clock := testutil.NewFakeClock(testutil.Epoch)
	s := model.NewStore(
		model.WithIdentity(model.StaticIdentity("user-1")),
		model.WithIDGenerator(testutil.NewSequenceIDs("c")),
		model.WithClock(clock.Now),
	)
	d := model.NewDoc(doc.WithReplicaID("replica-1"))
	s.Bind(d)
	t.Cleanup(func() {
		s.Unbind()
		d.Destroy()
	})

	h := history.New(s, history.WithClock(clock.Now))
	canvas := &countingCanvas{Store: s}
	opts = append([]Option{WithRecorder(h)}, opts...)
	return &fixture{store: s, doc: d, history: h, canvas: canvas, ctl: New(canvas, opts...)}
}

// addNode creates a 240x160 note at (x, y).
func (f *fixture) addNode(t *testing.T, id string, x, y float64) {
	t.Helper()
	_, err := f.store.AddNode(ir.NodeInput{ID: id, Position: &ir.Position{X: x, Y: y}})
	require.NoError(t, err)
}

func (f *fixture) node(t *testing.T, id string) ir.Node {
	t.Helper()
	n, ok := f.store.Node(id)
	require.True(t, ok)
	return n
}

func (f *fixture) undoDepth() int {
	past, _ := f.history.Len()
	return past
}

func at(ms int) time.Time {
	return testutil.Epoch.Add(time.Duration(ms) * time.Millisecond)
}

func onNode(id string) Target {
	return Target{Kind: TargetNode, NodeID: id}
}

func onHandle(id string, h Handle) Target {
	return Target{Kind: TargetResizeHandle, NodeID: id, Handle: h}
}

func onAnchor(id string, side ir.Side) Target {
	return Target{Kind: TargetAnchor, NodeID: id, Anchor: ir.Anchor{Side: side, Offset: 0.5}}
}

var onCanvas = Target{Kind: TargetCanvas}

func (f *fixture) down(x, y float64, target Target, ms int) {
	f.ctl.Handle(PointerEvent{Kind: PointerDown, Button: ButtonLeft, Screen: geom.Point{X: x, Y: y}, Target: target, Time: at(ms)})
}

func (f *fixture) move(x, y float64, target Target, ms int) {
	f.ctl.Handle(PointerEvent{Kind: PointerMove, Button: ButtonLeft, Screen: geom.Point{X: x, Y: y}, Target: target, Time: at(ms)})
}

func (f *fixture) up(x, y float64, target Target, ms int) {
	f.ctl.Handle(PointerEvent{Kind: PointerUp, Button: ButtonLeft, Screen: geom.Point{X: x, Y: y}, Target: target, Time: at(ms)})
}
