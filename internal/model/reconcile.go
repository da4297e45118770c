package model

import (
	"fmt"
	"log/slog"

	"github.com/roach88/canvas/internal/doc"
	"github.com/roach88/canvas/internal/ir"
)

// Reconciliation runs at three guard scopes. The callback scope catches a
// document that disappeared before the observer ran. Each change is applied
// in its own item scope so a released ref on one key never blocks the keys
// after it. Legacy records that needed migration are written back in a
// separate transaction scope.

func (s *Store) onNodes(cs doc.Changeset) {
	err := doc.Guard("reconcile.nodes", func() error {
		var fixups []ir.Node
		itemErr := doc.GuardEach("reconcile.nodes.item", cs.Changes, func(ch doc.Change) error {
			migrated, err := s.applyNodeChange(cs.Origin, ch)
			if err != nil {
				return err
			}
			if migrated != nil {
				fixups = append(fixups, *migrated)
			}
			return nil
		})
		if itemErr != nil {
			slog.Warn("node reconcile skipped items", "origin", cs.Origin, "error", itemErr)
		}
		if len(fixups) == 0 {
			return nil
		}
		return doc.Guard("reconcile.nodes.txn", func() error {
			return s.writeBack(fixups)
		})
	})
	if err != nil {
		slog.Error("node reconcile failed", "error", err)
	}
}

// applyNodeChange folds one change into the snapshot. It returns the
// migrated node when the stored record needs to be rewritten.
func (s *Store) applyNodeChange(origin doc.Origin, ch doc.Change) (*ir.Node, error) {
	if ch.Action == doc.ActionDelete {
		s.dropNode(ch.Key)
		s.emit(EventNodes, origin, ch.Key)
		return nil, nil
	}

	v, ok, err := ch.Ref.Load()
	if err != nil {
		return nil, err
	}
	if !ok {
		s.dropNode(ch.Key)
		s.emit(EventNodes, origin, ch.Key)
		return nil, nil
	}
	n, isNode := v.(ir.Node)
	if !isNode {
		return nil, fmt.Errorf("node %s: unexpected value type %T", ch.Key, v)
	}

	n, changed := ir.MigrateNode(n, s.defaults)
	if err := ir.ValidateNode(n); err != nil {
		return nil, fmt.Errorf("node %s: %w", ch.Key, err)
	}
	s.nodes[ch.Key] = n
	if n.Deleted {
		delete(s.selection, n.ID)
		delete(s.editing, n.ID)
	}
	s.emit(EventNodes, origin, ch.Key)

	if changed {
		return &n, nil
	}
	return nil, nil
}

func (s *Store) writeBack(nodes []ir.Node) error {
	if s.doc == nil {
		return nil
	}
	return s.doc.Transact(doc.OriginLocal, func(tx *doc.Txn) error {
		m := tx.Map(MapNodes)
		return doc.GuardEach("reconcile.nodes.writeback", nodes, func(n ir.Node) error {
			return m.Set(n.ID, n)
		})
	})
}

func (s *Store) dropNode(id string) {
	delete(s.nodes, id)
	delete(s.selection, id)
	delete(s.editing, id)
}

func (s *Store) onConnections(cs doc.Changeset) {
	err := doc.Guard("reconcile.connections", func() error {
		return doc.GuardEach("reconcile.connections.item", cs.Changes, func(ch doc.Change) error {
			return s.applyConnectionChange(cs.Origin, ch)
		})
	})
	if err != nil {
		slog.Warn("connection reconcile skipped items", "origin", cs.Origin, "error", err)
	}
}

func (s *Store) applyConnectionChange(origin doc.Origin, ch doc.Change) error {
	if ch.Action == doc.ActionDelete {
		delete(s.connections, ch.Key)
		delete(s.selection, ch.Key)
		s.emit(EventConnections, origin, ch.Key)
		return nil
	}

	v, ok, err := ch.Ref.Load()
	if err != nil {
		return err
	}
	if !ok {
		delete(s.connections, ch.Key)
		delete(s.selection, ch.Key)
		s.emit(EventConnections, origin, ch.Key)
		return nil
	}
	c, isConn := v.(ir.Connection)
	if !isConn {
		return fmt.Errorf("connection %s: unexpected value type %T", ch.Key, v)
	}
	// Endpoints may be missing locally while a batch is still arriving, so
	// liveness is not checked here.
	if err := ir.ValidateConnection(c, nil); err != nil {
		return fmt.Errorf("connection %s: %w", ch.Key, err)
	}
	s.connections[ch.Key] = c
	if c.Deleted {
		delete(s.selection, c.ID)
	}
	s.emit(EventConnections, origin, ch.Key)
	return nil
}

func (s *Store) onViewport(cs doc.Changeset) {
	err := doc.Guard("reconcile.viewport", func() error {
		v := s.viewport
		itemErr := doc.GuardEach("reconcile.viewport.item", cs.Changes, func(ch doc.Change) error {
			if ch.Action == doc.ActionDelete {
				return nil
			}
			val, ok, err := ch.Ref.Load()
			if err != nil || !ok {
				return err
			}
			f, isFloat := val.(float64)
			if !isFloat {
				return fmt.Errorf("viewport %s: unexpected value type %T", ch.Key, val)
			}
			switch ch.Key {
			case KeyOffsetX:
				v.OffsetX = f
			case KeyOffsetY:
				v.OffsetY = f
			case KeyScale:
				v.Scale = f
			}
			return nil
		})
		s.viewport = v.Clamp()
		s.emit(EventViewport, cs.Origin)
		return itemErr
	})
	if err != nil {
		slog.Warn("viewport reconcile skipped items", "origin", cs.Origin, "error", err)
	}
}
