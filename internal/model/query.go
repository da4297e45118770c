package model

import (
	"slices"

	"github.com/roach88/canvas/internal/ir"
)

// Node returns a copy of the node with the given id, soft-deleted or not.
func (s *Store) Node(id string) (ir.Node, bool) {
	n, ok := s.nodes[id]
	if !ok {
		return ir.Node{}, false
	}
	return n.Clone(), true
}

// Alive reports whether id names an existing, non-deleted node.
func (s *Store) Alive(id string) bool {
	n, ok := s.nodes[id]
	return ok && !n.Deleted
}

// Nodes returns the live nodes in paint order.
func (s *Store) Nodes() []ir.Node {
	out := make([]ir.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		if !n.Deleted {
			out = append(out, n.Clone())
		}
	}
	ir.SortNodes(out)
	return out
}

// AllNodes returns every node including soft-deleted ones, in paint order.
func (s *Store) AllNodes() []ir.Node {
	out := make([]ir.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n.Clone())
	}
	ir.SortNodes(out)
	return out
}

// Connection returns the connection with the given id.
func (s *Store) Connection(id string) (ir.Connection, bool) {
	c, ok := s.connections[id]
	return c, ok
}

// Connections returns the non-deleted connections in paint order.
func (s *Store) Connections() []ir.Connection {
	out := make([]ir.Connection, 0, len(s.connections))
	for _, c := range s.connections {
		if !c.Deleted {
			out = append(out, c)
		}
	}
	ir.SortConnections(out)
	return out
}

// VisibleConnections returns the non-deleted connections whose endpoints
// are both live nodes. Dangling connections are kept but not rendered.
func (s *Store) VisibleConnections() []ir.Connection {
	out := make([]ir.Connection, 0, len(s.connections))
	for _, c := range s.connections {
		if !c.Deleted && s.Alive(c.Source.NodeID) && s.Alive(c.Target.NodeID) {
			out = append(out, c)
		}
	}
	ir.SortConnections(out)
	return out
}

// Viewport returns the current viewport.
func (s *Store) Viewport() ir.Viewport {
	return s.viewport
}

// Selection returns the selected ids, sorted.
func (s *Store) Selection() []string {
	return sortedKeys(s.selection)
}

// IsSelected reports whether id is selected.
func (s *Store) IsSelected(id string) bool {
	_, ok := s.selection[id]
	return ok
}

// Editing returns the ids of nodes in content-edit mode, sorted.
func (s *Store) Editing() []string {
	return sortedKeys(s.editing)
}

// IsEditing reports whether a node is in content-edit mode.
func (s *Store) IsEditing(id string) bool {
	_, ok := s.editing[id]
	return ok
}

// Snapshot returns a deep copy of the state undo/redo is allowed to
// restore.
func (s *Store) Snapshot() ir.Snapshot {
	snap := ir.Snapshot{
		Nodes:       make(map[string]ir.Node, len(s.nodes)),
		Connections: make(map[string]ir.Connection, len(s.connections)),
		Viewport:    s.viewport,
	}
	for id, n := range s.nodes {
		snap.Nodes[id] = n.Clone()
	}
	for id, c := range s.connections {
		snap.Connections[id] = c.Clone()
	}
	return snap
}

func (s *Store) maxNodeZ() int {
	z, first := 0, true
	for _, n := range s.nodes {
		if n.Deleted {
			continue
		}
		if first || n.ZIndex > z {
			z, first = n.ZIndex, false
		}
	}
	if first {
		return -1
	}
	return z
}

func (s *Store) maxConnectionZ() int {
	z, first := 0, true
	for _, c := range s.connections {
		if c.Deleted {
			continue
		}
		if first || c.ZIndex > z {
			z, first = c.ZIndex, false
		}
	}
	if first {
		return -1
	}
	return z
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
