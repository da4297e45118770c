package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/canvas/internal/ir"
)

// ErrNotFound is returned when a workspace does not exist.
var ErrNotFound = errors.New("not found")

// CreateWorkspace inserts a workspace. Creating an existing workspace is a
// no-op; its settings are left alone.
func (s *Store) CreateWorkspace(ctx context.Context, ws ir.Workspace) error {
	if ws.ID == "" {
		return fmt.Errorf("create workspace: %w", ir.NewValidationError(ir.ErrCodeMissingField, "id", "workspace id is required"))
	}
	settings, err := marshalRecord(ws.Settings)
	if err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workspaces (id, project_id, settings)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, ws.ID, ws.ProjectID, settings)
	if err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	return nil
}

// Workspace returns the workspace row. Missing workspaces return an error
// wrapping ErrNotFound.
func (s *Store) Workspace(ctx context.Context, id string) (ir.Workspace, error) {
	var ws ir.Workspace
	var settings string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, settings FROM workspaces WHERE id = ?
	`, id).Scan(&ws.ID, &ws.ProjectID, &settings)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Workspace{}, fmt.Errorf("workspace %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return ir.Workspace{}, fmt.Errorf("read workspace %s: %w", id, err)
	}
	if ws.Settings, err = unmarshalSettings(settings); err != nil {
		return ir.Workspace{}, fmt.Errorf("read workspace %s: %w", id, err)
	}
	return ws, nil
}

// Workspaces lists every workspace ordered by id.
func (s *Store) Workspaces(ctx context.Context) ([]ir.Workspace, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, settings FROM workspaces ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query workspaces: %w", err)
	}
	defer rows.Close()

	out := []ir.Workspace{}
	for rows.Next() {
		var ws ir.Workspace
		var settings string
		if err := rows.Scan(&ws.ID, &ws.ProjectID, &settings); err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		if ws.Settings, err = unmarshalSettings(settings); err != nil {
			return nil, err
		}
		out = append(out, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workspaces: %w", err)
	}
	return out, nil
}

// UpdateSettings replaces a workspace's settings.
func (s *Store) UpdateSettings(ctx context.Context, id string, settings ir.Settings) error {
	data, err := marshalRecord(settings)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE workspaces SET settings = ? WHERE id = ?`, data, id)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("workspace %s: %w", id, ErrNotFound)
	}
	return nil
}
