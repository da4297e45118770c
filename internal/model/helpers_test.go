package model

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/canvas/internal/doc"
	"github.com/roach88/canvas/internal/ir"
	"github.com/roach88/canvas/internal/testutil"
)

type fixture struct {
	store *Store
	doc   *doc.Doc
	clock *testutil.FakeClock
}

// setupStore creates a store bound to a fresh document.
func setupStore(t *testing.T) fixture {
	t.Helper()
	clock := testutil.NewFakeClock(testutil.Epoch)
	s := NewStore(
		WithIdentity(StaticIdentity("user-1")),
		WithIDGenerator(testutil.NewSequenceIDs("n")),
		WithClock(clock.Now),
	)
	d := NewDoc(doc.WithReplicaID("replica-1"))
	s.Bind(d)
	t.Cleanup(func() {
		s.Unbind()
		d.Destroy()
	})
	return fixture{store: s, doc: d, clock: clock}
}

func addNode(t *testing.T, s *Store, id string, x, y float64) string {
	t.Helper()
	got, err := s.AddNode(ir.NodeInput{ID: id, Position: &ir.Position{X: x, Y: y}})
	require.NoError(t, err)
	return got
}

func docNode(t *testing.T, d *doc.Doc, id string) (ir.Node, bool) {
	t.Helper()
	v, ok, err := d.Map(MapNodes).Get(id)
	require.NoError(t, err)
	if !ok {
		return ir.Node{}, false
	}
	return v.(ir.Node), true
}
