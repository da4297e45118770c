package persist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/canvas/internal/doc"
	"github.com/roach88/canvas/internal/ir"
	"github.com/roach88/canvas/internal/model"
	"github.com/roach88/canvas/internal/testutil"
)

type fixture struct {
	store  *model.Store
	doc    *doc.Doc
	saver  *memSaver
	bridge *Bridge
}

func setup(t *testing.T, opts ...BridgeOption) fixture {
	t.Helper()
	s := model.NewStore(
		model.WithIdentity(model.StaticIdentity("user-1")),
		model.WithIDGenerator(testutil.NewSequenceIDs("n")),
		model.WithClock(testutil.NewFakeClock(testutil.Epoch).Now),
	)
	d := model.NewDoc(doc.WithReplicaID("replica-1"))
	s.Bind(d)

	saver := &memSaver{}
	opts = append([]BridgeOption{WithDelay(0)}, opts...)
	b := NewBridge(d, saver, "ws-1", "user-1", opts...)
	t.Cleanup(func() {
		_ = b.Close(context.Background())
		s.Unbind()
		d.Destroy()
	})
	return fixture{store: s, doc: d, saver: saver, bridge: b}
}

func (f fixture) add(t *testing.T, id string) {
	t.Helper()
	_, err := f.store.AddNode(ir.NodeInput{ID: id})
	require.NoError(t, err)
}

func TestBridge_CoalescesRepeatedEdits(t *testing.T) {
	f := setup(t)
	f.add(t, "a")
	for range 5 {
		require.NoError(t, f.store.MoveNodes([]string{"a"}, 10, 0))
	}
	assert.Equal(t, 1, f.bridge.Status().Pending)

	require.NoError(t, f.bridge.Flush(context.Background()))

	saved := f.saver.savedNodes()
	require.Len(t, saved, 1)
	assert.Equal(t, 50.0, saved[0].Position.X)
	assert.Equal(t, StateSaved, f.bridge.Status().State)
	assert.Zero(t, f.bridge.Status().Pending)
}

func TestBridge_FlushWithNothingPending(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.bridge.Flush(context.Background()))
	assert.Equal(t, StateIdle, f.bridge.Status().State)
}

func TestBridge_SkipsLoadOrigin(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.doc.Transact(doc.OriginLoad, func(tx *doc.Txn) error {
		snap := ir.NewSnapshot()
		snap.Nodes["a"] = ir.Node{ID: "a", Size: ir.Size{Width: 1, Height: 1}, Metadata: ir.Metadata{Kind: ir.KindNote}}
		return model.WriteState(tx, snap)
	}))
	assert.Zero(t, f.bridge.Status().Pending)
}

func TestBridge_FailureKeepsStateAndRetries(t *testing.T) {
	f := setup(t)
	f.add(t, "a")
	f.saver.setFail(true)

	err := f.bridge.Flush(context.Background())
	require.ErrorIs(t, err, errUnavailable)

	st := f.bridge.Status()
	assert.Equal(t, StateFailed, st.State)
	assert.ErrorIs(t, st.LastError, errUnavailable)
	assert.Equal(t, 1, st.Failures)
	assert.Equal(t, 1, st.Pending, "failed entity is queued again")
	assert.True(t, f.store.Alive("a"), "in-memory state is not rolled back")

	f.saver.setFail(false)
	require.NoError(t, f.bridge.Flush(context.Background()))
	assert.Equal(t, StateSaved, f.bridge.Status().State)
	assert.Len(t, f.saver.savedNodes(), 1)
}

func TestBridge_RequeueKeepsNewerVersion(t *testing.T) {
	f := setup(t)
	f.add(t, "a")
	f.saver.setFail(true)

	newer := ir.Node{ID: "a", Position: ir.Position{X: 99}, Size: ir.Size{Width: 1, Height: 1}, Metadata: ir.Metadata{Kind: ir.KindNote}}
	f.saver.onSave = func(ir.Node) {
		f.saver.onSave = nil
		f.bridge.MarkNodes(newer)
	}
	require.Error(t, f.bridge.Flush(context.Background()))

	f.saver.setFail(false)
	require.NoError(t, f.bridge.Flush(context.Background()))
	saved := f.saver.savedNodes()
	require.Len(t, saved, 1)
	assert.Equal(t, 99.0, saved[0].Position.X)
}

func TestBridge_RemovedKeySavedAsSoftDelete(t *testing.T) {
	f := setup(t)
	empty := f.store.Snapshot()
	f.add(t, "a")
	require.NoError(t, f.bridge.Flush(context.Background()))

	f.store.ReplaceState(empty)
	require.NoError(t, f.bridge.Flush(context.Background()))

	saved := f.saver.savedNodes()
	require.Len(t, saved, 2)
	assert.False(t, saved[0].Deleted)
	assert.True(t, saved[1].Deleted)
	assert.Equal(t, "a", saved[1].ID)
}

func TestBridge_SavesConnectionsAndViewport(t *testing.T) {
	f := setup(t)
	f.add(t, "a")
	f.add(t, "b")
	_, err := f.store.CreateConnection(
		ir.Endpoint{NodeID: "a", Anchor: ir.Anchor{Side: ir.SideRight, Offset: 0.5}},
		ir.Endpoint{NodeID: "b", Anchor: ir.Anchor{Side: ir.SideLeft, Offset: 0.5}},
		model.ConnectionOptions{ID: "c1"},
	)
	require.NoError(t, err)
	f.store.SetViewport(ir.ViewportPatch{Scale: ir.Ptr(2.0)})

	require.NoError(t, f.bridge.Flush(context.Background()))

	f.saver.mu.Lock()
	defer f.saver.mu.Unlock()
	require.Len(t, f.saver.conns, 1)
	assert.Equal(t, "c1", f.saver.conns[0].ID)
	require.Len(t, f.saver.viewports, 1)
	assert.Equal(t, "user-1", f.saver.viewports[0].userID)
	assert.Equal(t, 2.0, f.saver.viewports[0].v.Scale)
}

func TestBridge_DebouncedFlush(t *testing.T) {
	f := setup(t, WithDelay(20*time.Millisecond))
	f.add(t, "a")
	require.NoError(t, f.store.MoveNodes([]string{"a"}, 1, 1))

	require.Eventually(t, func() bool {
		return len(f.saver.savedNodes()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, ir.Position{X: 1, Y: 1}, f.saver.savedNodes()[0].Position)
}

func TestBridge_CloseFlushesAndStops(t *testing.T) {
	f := setup(t)
	f.add(t, "a")

	require.NoError(t, f.bridge.Close(context.Background()))
	assert.Len(t, f.saver.savedNodes(), 1)

	f.add(t, "b")
	assert.Zero(t, f.bridge.Status().Pending)
	require.NoError(t, f.bridge.Close(context.Background()))
}

func TestBridge_UpdateLogReplays(t *testing.T) {
	log := &memLog{}
	f := setup(t, WithUpdateLog(log))
	f.add(t, "a")
	f.add(t, "b")
	require.NoError(t, f.store.DeleteNode("b"))
	require.NoError(t, f.bridge.Flush(context.Background()))
	require.Len(t, log.updates, 3)

	fresh := model.NewDoc(doc.WithReplicaID("replica-2"))
	defer fresh.Destroy()
	n, err := Replay(context.Background(), log, fresh, "ws-1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	s := model.NewStore()
	s.Bind(fresh)
	defer s.Unbind()
	assert.True(t, s.Alive("a"))
	b, ok := s.Node("b")
	require.True(t, ok)
	assert.True(t, b.Deleted)
	assert.GreaterOrEqual(t, fresh.Clock(), f.doc.Clock())
}
