package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/canvas/internal/ir"
)

// LoadWorkspace returns the stored state of a workspace for one user.
//
// Nodes and connections come back in paint order (z_index, then id with
// binary collation) and include soft-deleted records. Empty workspaces
// return empty slices, never nil. Viewport is nil when the user has none.
func (s *Store) LoadWorkspace(ctx context.Context, workspaceID, userID string) (ir.WorkspaceState, error) {
	ws, err := s.Workspace(ctx, workspaceID)
	if err != nil {
		return ir.WorkspaceState{}, err
	}

	nodes, err := s.readNodes(ctx, workspaceID)
	if err != nil {
		return ir.WorkspaceState{}, err
	}
	conns, err := s.readConnections(ctx, workspaceID)
	if err != nil {
		return ir.WorkspaceState{}, err
	}
	vp, err := s.readViewport(ctx, workspaceID, userID)
	if err != nil {
		return ir.WorkspaceState{}, err
	}

	return ir.WorkspaceState{
		Workspace:   ws,
		Nodes:       nodes,
		Connections: conns,
		Viewport:    vp,
	}, nil
}

func (s *Store) readNodes(ctx context.Context, workspaceID string) ([]ir.Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record FROM nodes
		WHERE workspace_id = ?
		ORDER BY z_index ASC, id COLLATE BINARY ASC
	`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	out := []ir.Node{}
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		n, err := unmarshalNode(record)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}
	return out, nil
}

func (s *Store) readConnections(ctx context.Context, workspaceID string) ([]ir.Connection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record FROM connections
		WHERE workspace_id = ?
		ORDER BY z_index ASC, id COLLATE BINARY ASC
	`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("query connections: %w", err)
	}
	defer rows.Close()

	out := []ir.Connection{}
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		c, err := unmarshalConnection(record)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate connections: %w", err)
	}
	return out, nil
}

func (s *Store) readViewport(ctx context.Context, workspaceID, userID string) (*ir.Viewport, error) {
	var v ir.Viewport
	err := s.db.QueryRowContext(ctx, `
		SELECT offset_x, offset_y, scale FROM viewports
		WHERE workspace_id = ? AND user_id = ?
	`, workspaceID, userID).Scan(&v.OffsetX, &v.OffsetY, &v.Scale)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read viewport: %w", err)
	}
	return &v, nil
}
