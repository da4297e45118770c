package store

import (
	"context"
	"fmt"
)

// AppendUpdates appends encoded document updates to a workspace's log in
// one transaction. Order within the slice is preserved.
func (s *Store) AppendUpdates(ctx context.Context, workspaceID string, updates [][]byte) error {
	if len(updates) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append updates: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO doc_updates (workspace_id, data) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("append updates: prepare: %w", err)
	}
	defer stmt.Close()

	for i, data := range updates {
		if _, err := stmt.ExecContext(ctx, workspaceID, data); err != nil {
			return fmt.Errorf("append update %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append updates: commit: %w", err)
	}
	return nil
}

// Updates returns every logged update of a workspace in append order.
func (s *Store) Updates(ctx context.Context, workspaceID string) ([][]byte, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM doc_updates
		WHERE workspace_id = ?
		ORDER BY seq ASC
	`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("query updates: %w", err)
	}
	defer rows.Close()

	out := [][]byte{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan update: %w", err)
		}
		out = append(out, data)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate updates: %w", err)
	}
	return out, nil
}

// CountUpdates returns the number of logged updates for a workspace.
func (s *Store) CountUpdates(ctx context.Context, workspaceID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM doc_updates WHERE workspace_id = ?`, workspaceID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count updates: %w", err)
	}
	return n, nil
}
