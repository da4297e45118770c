package store

import (
	"context"
	"fmt"

	"github.com/roach88/canvas/internal/ir"
)

// SaveNode upserts a node. Saving the same node twice is a no-op; saving a
// newer version overwrites the older one.
func (s *Store) SaveNode(ctx context.Context, workspaceID string, n ir.Node) error {
	record, err := marshalRecord(n)
	if err != nil {
		return fmt.Errorf("save node %s: %w", n.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO nodes (workspace_id, id, kind, z_index, deleted, record)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(workspace_id, id) DO UPDATE SET
			kind = excluded.kind,
			z_index = excluded.z_index,
			deleted = excluded.deleted,
			record = excluded.record
	`,
		workspaceID,
		n.ID,
		string(n.Kind()),
		n.ZIndex,
		boolToInt(n.Deleted),
		record,
	)
	if err != nil {
		return fmt.Errorf("save node %s: %w", n.ID, err)
	}
	return nil
}

// SaveConnection upserts a connection.
func (s *Store) SaveConnection(ctx context.Context, workspaceID string, c ir.Connection) error {
	record, err := marshalRecord(c)
	if err != nil {
		return fmt.Errorf("save connection %s: %w", c.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO connections (workspace_id, id, source_node, target_node, z_index, deleted, record)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(workspace_id, id) DO UPDATE SET
			source_node = excluded.source_node,
			target_node = excluded.target_node,
			z_index = excluded.z_index,
			deleted = excluded.deleted,
			record = excluded.record
	`,
		workspaceID,
		c.ID,
		c.Source.NodeID,
		c.Target.NodeID,
		c.ZIndex,
		boolToInt(c.Deleted),
		record,
	)
	if err != nil {
		return fmt.Errorf("save connection %s: %w", c.ID, err)
	}
	return nil
}

// SaveViewport upserts a user's viewport for a workspace.
func (s *Store) SaveViewport(ctx context.Context, workspaceID, userID string, v ir.Viewport) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO viewports (workspace_id, user_id, offset_x, offset_y, scale)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(workspace_id, user_id) DO UPDATE SET
			offset_x = excluded.offset_x,
			offset_y = excluded.offset_y,
			scale = excluded.scale
	`, workspaceID, userID, v.OffsetX, v.OffsetY, v.Scale)
	if err != nil {
		return fmt.Errorf("save viewport: %w", err)
	}
	return nil
}

// SaveSnapshot writes every node and connection of snap and the user's
// viewport in one transaction.
func (s *Store) SaveSnapshot(ctx context.Context, workspaceID, userID string, snap ir.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save snapshot: begin: %w", err)
	}
	defer tx.Rollback()

	for _, n := range snap.SortedNodes() {
		record, err := marshalRecord(n)
		if err != nil {
			return fmt.Errorf("save snapshot: node %s: %w", n.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO nodes (workspace_id, id, kind, z_index, deleted, record)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(workspace_id, id) DO UPDATE SET
				kind = excluded.kind, z_index = excluded.z_index,
				deleted = excluded.deleted, record = excluded.record
		`, workspaceID, n.ID, string(n.Kind()), n.ZIndex, boolToInt(n.Deleted), record); err != nil {
			return fmt.Errorf("save snapshot: node %s: %w", n.ID, err)
		}
	}
	for _, c := range snap.Connections {
		record, err := marshalRecord(c)
		if err != nil {
			return fmt.Errorf("save snapshot: connection %s: %w", c.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO connections (workspace_id, id, source_node, target_node, z_index, deleted, record)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(workspace_id, id) DO UPDATE SET
				source_node = excluded.source_node, target_node = excluded.target_node,
				z_index = excluded.z_index, deleted = excluded.deleted, record = excluded.record
		`, workspaceID, c.ID, c.Source.NodeID, c.Target.NodeID, c.ZIndex, boolToInt(c.Deleted), record); err != nil {
			return fmt.Errorf("save snapshot: connection %s: %w", c.ID, err)
		}
	}
	v := snap.Viewport
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO viewports (workspace_id, user_id, offset_x, offset_y, scale)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(workspace_id, user_id) DO UPDATE SET
			offset_x = excluded.offset_x, offset_y = excluded.offset_y, scale = excluded.scale
	`, workspaceID, userID, v.OffsetX, v.OffsetY, v.Scale); err != nil {
		return fmt.Errorf("save snapshot: viewport: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save snapshot: commit: %w", err)
	}
	return nil
}

// PurgeDeleted hard-deletes soft-deleted nodes and connections of a
// workspace, along with every connection that references a purged node.
func (s *Store) PurgeDeleted(ctx context.Context, workspaceID string) (nodes, connections int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("purge: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM connections
		WHERE workspace_id = ?1 AND (
			deleted = 1
			OR source_node IN (SELECT id FROM nodes WHERE workspace_id = ?1 AND deleted = 1)
			OR target_node IN (SELECT id FROM nodes WHERE workspace_id = ?1 AND deleted = 1)
		)
	`, workspaceID)
	if err != nil {
		return 0, 0, fmt.Errorf("purge connections: %w", err)
	}
	connections, _ = res.RowsAffected()

	res, err = tx.ExecContext(ctx, `DELETE FROM nodes WHERE workspace_id = ? AND deleted = 1`, workspaceID)
	if err != nil {
		return 0, 0, fmt.Errorf("purge nodes: %w", err)
	}
	nodes, _ = res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("purge: commit: %w", err)
	}
	return nodes, connections, nil
}
