package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/canvas/internal/doc"
	"github.com/roach88/canvas/internal/ir"
)

func TestAddNode_FillsDefaults(t *testing.T) {
	f := setupStore(t)

	id, err := f.store.AddNode(ir.NodeInput{})
	require.NoError(t, err)
	assert.Equal(t, "n-1", id)

	n, ok := f.store.Node(id)
	require.True(t, ok)
	assert.Equal(t, ir.KindNote, n.Kind())
	assert.Equal(t, ir.DefaultNodeDefaults().NoteSize, n.Size)
	assert.Equal(t, ir.Position{}, n.Position)
	assert.Equal(t, "user-1", n.Audit.CreatedBy)
	assert.Equal(t, f.clock.Now(), n.Audit.CreatedAt)

	mirrored, ok := docNode(t, f.doc, id)
	require.True(t, ok)
	assert.Equal(t, n, mirrored)
}

func TestAddNode_StacksOnTop(t *testing.T) {
	f := setupStore(t)
	a := addNode(t, f.store, "a", 0, 0)
	b := addNode(t, f.store, "b", 0, 0)

	na, _ := f.store.Node(a)
	nb, _ := f.store.Node(b)
	assert.Equal(t, 0, na.ZIndex)
	assert.Equal(t, 1, nb.ZIndex)
}

func TestAddNode_RejectsDuplicateAndInvalid(t *testing.T) {
	f := setupStore(t)
	addNode(t, f.store, "a", 0, 0)

	_, err := f.store.AddNode(ir.NodeInput{ID: "a"})
	assert.Equal(t, ir.ErrCodeDuplicateID, ir.ValidationCode(err))

	_, err = f.store.AddNode(ir.NodeInput{ID: "bad", Size: &ir.Size{Width: -1, Height: 1}})
	assert.Equal(t, ir.ErrCodeInvalidSize, ir.ValidationCode(err))
	_, ok := f.store.Node("bad")
	assert.False(t, ok)
	_, ok = docNode(t, f.doc, "bad")
	assert.False(t, ok)
}

func TestUpdateNode_PartialPosition(t *testing.T) {
	f := setupStore(t)
	id := addNode(t, f.store, "a", 50, 50)

	require.NoError(t, f.store.UpdateNode(id, ir.NodePatch{Position: &ir.PositionPatch{X: ir.Ptr(100.0)}}))

	n, _ := f.store.Node(id)
	assert.Equal(t, ir.Position{X: 100, Y: 50}, n.Position)
	mirrored, _ := docNode(t, f.doc, id)
	assert.Equal(t, ir.Position{X: 100, Y: 50}, mirrored.Position)
}

func TestUpdateNode_Errors(t *testing.T) {
	f := setupStore(t)
	assert.Equal(t, ir.ErrCodeUnknownNode, ir.ValidationCode(f.store.UpdateNode("nope", ir.NodePatch{ZIndex: ir.Ptr(1)})))

	id := addNode(t, f.store, "a", 0, 0)
	err := f.store.UpdateNode(id, ir.NodePatch{Size: &ir.SizePatch{Height: ir.Ptr(0.0)}})
	assert.Equal(t, ir.ErrCodeInvalidSize, ir.ValidationCode(err))

	n, _ := f.store.Node(id)
	assert.Equal(t, ir.DefaultNodeDefaults().NoteSize, n.Size)
}

func TestUpdateNode_StampsAudit(t *testing.T) {
	f := setupStore(t)
	id := addNode(t, f.store, "a", 0, 0)
	created := f.clock.Now()
	later := f.clock.Advance(5 * time.Second)

	require.NoError(t, f.store.UpdateNode(id, ir.NodePatch{ZIndex: ir.Ptr(4)}))
	n, _ := f.store.Node(id)
	assert.Equal(t, created, n.Audit.CreatedAt)
	assert.Equal(t, later, n.Audit.UpdatedAt)
}

func TestDeleteNode_SoftDeletesAndClearsTransientState(t *testing.T) {
	f := setupStore(t)
	id := addNode(t, f.store, "a", 0, 0)
	f.store.SetSelection([]string{id}, false)
	require.NoError(t, f.store.EnterEditMode(id))

	require.NoError(t, f.store.DeleteNode(id))

	n, ok := f.store.Node(id)
	require.True(t, ok, "soft delete keeps the record")
	assert.True(t, n.Deleted)
	assert.Empty(t, f.store.Nodes())
	assert.Len(t, f.store.AllNodes(), 1)
	assert.False(t, f.store.IsSelected(id))
	assert.False(t, f.store.IsEditing(id))

	mirrored, _ := docNode(t, f.doc, id)
	assert.True(t, mirrored.Deleted)

	require.NoError(t, f.store.DeleteNode(id), "second delete is a no-op")
	require.NoError(t, f.store.RestoreNode(id))
	assert.Len(t, f.store.Nodes(), 1)
}

func TestMoveSelection_MovesEverySelectedNode(t *testing.T) {
	f := setupStore(t)
	a := addNode(t, f.store, "a", 0, 0)
	b := addNode(t, f.store, "b", 100, 50)
	c := addNode(t, f.store, "c", -20, 300)
	other := addNode(t, f.store, "other", 7, 7)

	f.store.SetSelection([]string{a, b, c}, false)

	commits := 0
	f.doc.Observe(MapNodes, func(doc.Changeset) { commits++ })
	require.NoError(t, f.store.MoveSelection(10, 10))

	want := map[string]ir.Position{
		a:     {X: 10, Y: 10},
		b:     {X: 110, Y: 60},
		c:     {X: -10, Y: 310},
		other: {X: 7, Y: 7},
	}
	for id, pos := range want {
		n, _ := f.store.Node(id)
		assert.Equal(t, pos, n.Position, id)
		mirrored, _ := docNode(t, f.doc, id)
		assert.Equal(t, pos, mirrored.Position, id)
	}
	assert.Equal(t, 1, commits, "one transaction for the whole selection")
}

func TestMoveNodes_RejectsNonFinite(t *testing.T) {
	f := setupStore(t)
	id := addNode(t, f.store, "a", 0, 0)
	err := f.store.MoveNodes([]string{id}, 1, math.Inf(1))
	assert.Equal(t, ir.ErrCodeInvalidPosition, ir.ValidationCode(err))
}

func TestResizeNode(t *testing.T) {
	f := setupStore(t)
	id := addNode(t, f.store, "a", 0, 0)

	require.NoError(t, f.store.ResizeNode(id, ir.Size{Width: 300, Height: 320}, 2))
	n, _ := f.store.Node(id)
	assert.Equal(t, ir.Size{Width: 300, Height: 320}, n.Size)
	assert.Equal(t, 2.0, n.Content.TextScale)
}

func TestCommitContent_Normalizes(t *testing.T) {
	f := setupStore(t)
	note := addNode(t, f.store, "note", 0, 0)
	text, err := f.store.AddNode(ir.NodeInput{ID: "text", Kind: ir.KindText})
	require.NoError(t, err)

	require.NoError(t, f.store.CommitContent(note, ir.ContentPatch{
		Title: ir.Ptr("Café"),
		Text:  ir.Ptr("body"),
	}))
	n, _ := f.store.Node(note)
	assert.Equal(t, "Café", n.Content.Title)
	assert.Equal(t, "body", n.Content.Text)

	require.NoError(t, f.store.CommitContent(text, ir.ContentPatch{Title: ir.Ptr("nope"), Text: ir.Ptr("plain")}))
	tn, _ := f.store.Node(text)
	assert.Empty(t, tn.Content.Title)
	assert.Equal(t, "plain", tn.Content.Text)
}

func TestActions_SurviveDestroyedDoc(t *testing.T) {
	f := setupStore(t)
	id := addNode(t, f.store, "a", 0, 0)

	f.doc.Destroy()

	require.NoError(t, f.store.UpdateNode(id, ir.NodePatch{Position: &ir.PositionPatch{Y: ir.Ptr(42.0)}}))
	n, _ := f.store.Node(id)
	assert.Equal(t, 42.0, n.Position.Y, "local snapshot is authoritative")

	added, err := f.store.AddNode(ir.NodeInput{})
	require.NoError(t, err)
	_, ok := f.store.Node(added)
	assert.True(t, ok)
	f.store.SetViewport(ir.ViewportPatch{Scale: ir.Ptr(2.0)})
	assert.Equal(t, 2.0, f.store.Viewport().Scale)
}

func TestSubscribe_ReceivesEvents(t *testing.T) {
	f := setupStore(t)
	var kinds []EventKind
	unsub := f.store.Subscribe(func(e Event) { kinds = append(kinds, e.Kind) })

	addNode(t, f.store, "a", 0, 0)
	f.store.SetSelection([]string{"a"}, false)
	unsub()
	f.store.ClearSelection()

	require.NotEmpty(t, kinds)
	assert.Equal(t, EventNodes, kinds[0])
	assert.Contains(t, kinds, EventSelection)
	assert.NotContains(t, kinds, EventViewport)
}
