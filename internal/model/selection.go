package model

import "github.com/roach88/canvas/internal/doc"

// SetSelection replaces the selection with ids, or adds them when additive
// is set. Ids that name no live node or connection are ignored.
func (s *Store) SetSelection(ids []string, additive bool) {
	if !additive {
		clear(s.selection)
	}
	for _, id := range ids {
		if s.Alive(id) || s.connectionAlive(id) {
			s.selection[id] = struct{}{}
		}
	}
	s.emit(EventSelection, doc.OriginLocal, s.Selection()...)
}

// ToggleSelection adds id to the selection or removes it.
func (s *Store) ToggleSelection(id string) {
	if _, ok := s.selection[id]; ok {
		delete(s.selection, id)
	} else if s.Alive(id) || s.connectionAlive(id) {
		s.selection[id] = struct{}{}
	}
	s.emit(EventSelection, doc.OriginLocal, s.Selection()...)
}

// ClearSelection empties the selection.
func (s *Store) ClearSelection() {
	if len(s.selection) == 0 {
		return
	}
	clear(s.selection)
	s.emit(EventSelection, doc.OriginLocal)
}

// EnterEditMode puts a live node into content-edit mode. While editing, the
// gesture controller ignores drags and resizes on it.
func (s *Store) EnterEditMode(id string) error {
	if !s.Alive(id) {
		return unknownNode(id)
	}
	if _, ok := s.editing[id]; ok {
		return nil
	}
	s.editing[id] = struct{}{}
	s.emit(EventEditMode, doc.OriginLocal, id)
	return nil
}

// ExitEditMode leaves content-edit mode. Unknown ids are ignored.
func (s *Store) ExitEditMode(id string) {
	if _, ok := s.editing[id]; !ok {
		return
	}
	delete(s.editing, id)
	s.emit(EventEditMode, doc.OriginLocal, id)
}

// ExitAllEditModes leaves edit mode on every node.
func (s *Store) ExitAllEditModes() {
	for _, id := range s.Editing() {
		s.ExitEditMode(id)
	}
}

// DeleteSelection soft-deletes every selected node and connection.
func (s *Store) DeleteSelection() error {
	var nodes, conns []string
	for _, id := range s.Selection() {
		if _, ok := s.nodes[id]; ok {
			nodes = append(nodes, id)
		} else {
			conns = append(conns, id)
		}
	}
	if err := s.DeleteNodes(nodes); err != nil {
		return err
	}
	for _, id := range conns {
		if err := s.DeleteConnection(id); err != nil {
			return err
		}
	}
	return nil
}
