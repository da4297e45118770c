package model

import (
	"github.com/roach88/canvas/internal/doc"
	"github.com/roach88/canvas/internal/ir"
)

// SetViewport merges a partial viewport and clamps the scale.
func (s *Store) SetViewport(p ir.ViewportPatch) {
	next := ir.MergeViewport(s.viewport, p)
	if next == s.viewport {
		return
	}
	s.viewport = next
	s.emit(EventViewport, doc.OriginLocal)

	s.mirror("set_viewport", doc.OriginLocal, func(tx *doc.Txn) error {
		return writeViewport(tx, next)
	})
}

// ReplaceState swaps in a snapshot wholesale. Undo and redo use it; the
// mirrored write carries OriginHistory. Nodes and connections absent from
// the snapshot are removed outright, and selection and edit mode are pruned
// to what is still live.
func (s *Store) ReplaceState(snap ir.Snapshot) {
	snap = snap.Clone()
	s.nodes = snap.Nodes
	s.connections = snap.Connections
	s.viewport = snap.Viewport.Clamp()
	s.pruneTransient()

	s.emit(EventNodes, doc.OriginHistory, sortedNodeIDs(s.nodes)...)
	s.emit(EventConnections, doc.OriginHistory)
	s.emit(EventViewport, doc.OriginHistory)
	s.emit(EventSelection, doc.OriginHistory, s.Selection()...)

	mirrored := s.Snapshot()
	s.mirror("replace_state", doc.OriginHistory, func(tx *doc.Txn) error {
		return WriteState(tx, mirrored)
	})
}
