package model

import (
	"github.com/roach88/canvas/internal/doc"
	"github.com/roach88/canvas/internal/ir"
)

// ConnectionOptions are the optional attributes of a new connection.
type ConnectionOptions struct {
	ID     string
	Label  string
	Style  *ir.ConnectionStyle
	ZIndex *int
}

// CreateConnection creates a directed edge between two distinct live
// nodes. Self-connections, unknown nodes and bad anchors are rejected
// without creating anything.
func (s *Store) CreateConnection(src, dst ir.Endpoint, opts ConnectionOptions) (string, error) {
	id := opts.ID
	if id == "" {
		id = s.ids.NewID()
	}
	if _, exists := s.connections[id]; exists {
		return "", ir.NewValidationError(ir.ErrCodeDuplicateID, "id", "connection %s already exists", id)
	}

	now := s.now()
	c := ir.Connection{
		ID:     id,
		Source: src,
		Target: dst,
		Label:  ir.NormalizeText(opts.Label),
		Style:  ir.DefaultConnectionStyle(),
		ZIndex: s.maxConnectionZ() + 1,
		Audit: ir.Audit{
			CreatedBy: s.user(),
			CreatedAt: now,
			UpdatedBy: s.user(),
			UpdatedAt: now,
		},
	}
	if opts.Style != nil {
		c.Style = *opts.Style
	}
	if opts.ZIndex != nil {
		c.ZIndex = *opts.ZIndex
	}
	if err := ir.ValidateConnection(c, s.Alive); err != nil {
		return "", err
	}

	s.putConnection(doc.OriginLocal, "create_connection", c)
	return id, nil
}

// DeleteConnection soft-deletes a connection.
func (s *Store) DeleteConnection(id string) error {
	return s.setConnectionDeleted(id, true)
}

// RestoreConnection clears a connection's soft-delete flag.
func (s *Store) RestoreConnection(id string) error {
	return s.setConnectionDeleted(id, false)
}

func (s *Store) setConnectionDeleted(id string, deleted bool) error {
	c, ok := s.connections[id]
	if !ok {
		return unknownConnection(id)
	}
	if c.Deleted == deleted {
		return nil
	}
	c.Deleted = deleted
	s.stamp(&c.Audit)
	if deleted {
		delete(s.selection, id)
	}

	scope := "restore_connection"
	if deleted {
		scope = "delete_connection"
	}
	s.putConnection(doc.OriginLocal, scope, c)
	return nil
}

// UpdateConnectionStyle merges a style patch into a connection.
func (s *Store) UpdateConnectionStyle(id string, p ir.ConnectionStylePatch) error {
	c, ok := s.connections[id]
	if !ok {
		return unknownConnection(id)
	}
	c.Style = ir.MergeConnectionStyle(c.Style, p)
	s.stamp(&c.Audit)
	s.putConnection(doc.OriginLocal, "update_connection_style", c)
	return nil
}

func (s *Store) putConnection(origin doc.Origin, scope string, c ir.Connection) {
	s.connections[c.ID] = c
	s.emit(EventConnections, origin, c.ID)

	s.mirror(scope, origin, func(tx *doc.Txn) error {
		return tx.Map(MapConnections).Set(c.ID, c)
	})
}

func unknownConnection(id string) error {
	return ir.NewValidationError(ir.ErrCodeUnknownConnection, "id", "connection %s not found", id)
}
