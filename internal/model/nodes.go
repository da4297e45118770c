package model

import (
	"math"

	"github.com/roach88/canvas/internal/doc"
	"github.com/roach88/canvas/internal/ir"
)

// AddNode creates a node from a possibly partial input. Omitted fields are
// filled from the store defaults, a missing id is generated and a missing
// z-index puts the node on top. Returns the new node's id.
func (s *Store) AddNode(in ir.NodeInput) (string, error) {
	if in.ID == "" {
		in.ID = s.ids.NewID()
	}
	if _, exists := s.nodes[in.ID]; exists {
		return "", ir.NewValidationError(ir.ErrCodeDuplicateID, "id", "node %s already exists", in.ID)
	}
	if in.ZIndex == nil {
		in.ZIndex = ir.Ptr(s.maxNodeZ() + 1)
	}

	n, err := ir.NewNode(in, s.defaults, s.user(), s.now())
	if err != nil {
		return "", err
	}
	s.putNodes(doc.OriginLocal, "add_node", n)
	return n.ID, nil
}

// UpdateNode applies a partial update. Nested fields are merged field by
// field, so a patch that sets only Position.X keeps Position.Y.
func (s *Store) UpdateNode(id string, p ir.NodePatch) error {
	n, ok := s.nodes[id]
	if !ok {
		return unknownNode(id)
	}
	if p.Empty() {
		return nil
	}
	merged, err := ir.MergeNode(n, p)
	if err != nil {
		return err
	}
	s.stamp(&merged.Audit)
	s.putNodes(doc.OriginLocal, "update_node", merged)
	return nil
}

// DeleteNode soft-deletes a node and drops it from the selection and edit
// mode. Deleting an already deleted node is a no-op.
func (s *Store) DeleteNode(id string) error {
	return s.DeleteNodes([]string{id})
}

// DeleteNodes soft-deletes several nodes in one transaction.
func (s *Store) DeleteNodes(ids []string) error {
	var changed []ir.Node
	for _, id := range ids {
		n, ok := s.nodes[id]
		if !ok {
			return unknownNode(id)
		}
		if n.Deleted {
			continue
		}
		n = n.Clone()
		n.Deleted = true
		s.stamp(&n.Audit)
		changed = append(changed, n)
	}
	if len(changed) == 0 {
		return nil
	}
	for _, n := range changed {
		delete(s.selection, n.ID)
		delete(s.editing, n.ID)
	}
	s.putNodes(doc.OriginLocal, "delete_node", changed...)
	s.emit(EventSelection, doc.OriginLocal)
	return nil
}

// RestoreNode clears the soft-delete flag.
func (s *Store) RestoreNode(id string) error {
	n, ok := s.nodes[id]
	if !ok {
		return unknownNode(id)
	}
	if !n.Deleted {
		return nil
	}
	n = n.Clone()
	n.Deleted = false
	s.stamp(&n.Audit)
	s.putNodes(doc.OriginLocal, "restore_node", n)
	return nil
}

// ResizeNode sets a node's size and, when textScale is positive, its text
// scale.
func (s *Store) ResizeNode(id string, size ir.Size, textScale float64) error {
	p := ir.NodePatch{Size: &ir.SizePatch{Width: ir.Ptr(size.Width), Height: ir.Ptr(size.Height)}}
	if textScale > 0 {
		p.Content = &ir.ContentPatch{TextScale: ir.Ptr(textScale)}
	}
	return s.UpdateNode(id, p)
}

// CommitContent stores the text produced by the content editor. Strings
// are normalized to NFC. Titles are dropped for text nodes.
func (s *Store) CommitContent(id string, c ir.ContentPatch) error {
	n, ok := s.nodes[id]
	if !ok {
		return unknownNode(id)
	}
	if c.Title != nil {
		if n.Kind() == ir.KindText {
			c.Title = nil
		} else {
			c.Title = ir.Ptr(ir.NormalizeText(*c.Title))
		}
	}
	if c.Text != nil {
		c.Text = ir.Ptr(ir.NormalizeText(*c.Text))
	}
	return s.UpdateNode(id, ir.NodePatch{Content: &c})
}

// MoveNodes translates the given live nodes by (dx, dy) world units in one
// transaction. Unknown and deleted ids are skipped.
func (s *Store) MoveNodes(ids []string, dx, dy float64) error {
	if math.IsNaN(dx) || math.IsNaN(dy) || math.IsInf(dx, 0) || math.IsInf(dy, 0) {
		return ir.NewValidationError(ir.ErrCodeInvalidPosition, "delta", "move delta must be finite")
	}
	if dx == 0 && dy == 0 {
		return nil
	}
	moved := make([]ir.Node, 0, len(ids))
	for _, id := range ids {
		n, ok := s.nodes[id]
		if !ok || n.Deleted {
			continue
		}
		n = n.Clone()
		n.Position.X += dx
		n.Position.Y += dy
		s.stamp(&n.Audit)
		moved = append(moved, n)
	}
	if len(moved) == 0 {
		return nil
	}
	s.putNodes(doc.OriginLocal, "move_nodes", moved...)
	return nil
}

// MoveSelection moves every selected live node by the same delta.
func (s *Store) MoveSelection(dx, dy float64) error {
	return s.MoveNodes(s.Selection(), dx, dy)
}

// putNodes writes nodes locally, notifies listeners, then mirrors them into
// the document in a single transaction.
func (s *Store) putNodes(origin doc.Origin, scope string, nodes ...ir.Node) {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		s.nodes[n.ID] = n
		ids[i] = n.ID
	}
	s.emit(EventNodes, origin, ids...)

	s.mirror(scope, origin, func(tx *doc.Txn) error {
		m := tx.Map(MapNodes)
		for _, n := range nodes {
			if err := m.Set(n.ID, n); err != nil {
				return err
			}
		}
		return nil
	})
}

func unknownNode(id string) error {
	return ir.NewValidationError(ir.ErrCodeUnknownNode, "id", "node %s not found", id)
}
