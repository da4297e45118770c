// Package repository is the Postgres backend for canvas workspaces.
//
// It stores the same records as the SQLite store through GORM: upserts use
// ON CONFLICT DO UPDATE so every save is idempotent and the last write wins.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/roach88/canvas/internal/ir"
)

// ErrNotFound is returned when a workspace does not exist.
var ErrNotFound = errors.New("not found")

// Repository implements persist.Loader, persist.Saver and persist.UpdateLog
// on Postgres.
type Repository struct {
	db *gorm.DB
}

// Open connects to Postgres with dsn and migrates the schema.
func Open(dsn string) (*Repository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	r := New(db)
	if err := r.Migrate(); err != nil {
		r.Close()
		return nil, err
	}
	slog.Info("postgres repository ready")
	return r, nil
}

// New wraps an existing GORM handle.
func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates or updates the tables.
func (r *Repository) Migrate() error {
	if err := r.db.AutoMigrate(
		&WorkspaceRow{},
		&NodeRow{},
		&ConnectionRow{},
		&ViewportRow{},
		&DocUpdateRow{},
	); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateWorkspace inserts a workspace. Existing workspaces are left alone.
func (r *Repository) CreateWorkspace(ctx context.Context, ws ir.Workspace) error {
	if ws.ID == "" {
		return fmt.Errorf("create workspace: %w", ir.NewValidationError(ir.ErrCodeMissingField, "id", "workspace id is required"))
	}
	settings, err := ir.MarshalCanonical(ws.Settings)
	if err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	row := WorkspaceRow{ID: ws.ID, ProjectID: ws.ProjectID, Settings: settings}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	return nil
}

// LoadWorkspace returns the stored state of a workspace for one user, in
// paint order. Viewport is nil when the user has none.
func (r *Repository) LoadWorkspace(ctx context.Context, workspaceID, userID string) (ir.WorkspaceState, error) {
	db := r.db.WithContext(ctx)

	var ws WorkspaceRow
	if err := db.First(&ws, "id = ?", workspaceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ir.WorkspaceState{}, fmt.Errorf("workspace %s: %w", workspaceID, ErrNotFound)
		}
		return ir.WorkspaceState{}, fmt.Errorf("read workspace %s: %w", workspaceID, err)
	}
	state := ir.WorkspaceState{
		Workspace:   ir.Workspace{ID: ws.ID, ProjectID: ws.ProjectID, Settings: ir.DefaultSettings()},
		Nodes:       []ir.Node{},
		Connections: []ir.Connection{},
	}
	if len(ws.Settings) > 0 {
		if err := json.Unmarshal(ws.Settings, &state.Workspace.Settings); err != nil {
			return ir.WorkspaceState{}, fmt.Errorf("unmarshal settings: %w", err)
		}
	}

	var nodes []NodeRow
	if err := db.Where("workspace_id = ?", workspaceID).
		Order("z_index ASC").Order(`id COLLATE "C" ASC`).
		Find(&nodes).Error; err != nil {
		return ir.WorkspaceState{}, fmt.Errorf("query nodes: %w", err)
	}
	for _, row := range nodes {
		var n ir.Node
		if err := json.Unmarshal(row.Record, &n); err != nil {
			return ir.WorkspaceState{}, fmt.Errorf("unmarshal node %s: %w", row.ID, err)
		}
		state.Nodes = append(state.Nodes, n)
	}

	var conns []ConnectionRow
	if err := db.Where("workspace_id = ?", workspaceID).
		Order("z_index ASC").Order(`id COLLATE "C" ASC`).
		Find(&conns).Error; err != nil {
		return ir.WorkspaceState{}, fmt.Errorf("query connections: %w", err)
	}
	for _, row := range conns {
		var c ir.Connection
		if err := json.Unmarshal(row.Record, &c); err != nil {
			return ir.WorkspaceState{}, fmt.Errorf("unmarshal connection %s: %w", row.ID, err)
		}
		state.Connections = append(state.Connections, c)
	}

	var vp ViewportRow
	err := db.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).First(&vp).Error
	switch {
	case err == nil:
		state.Viewport = &ir.Viewport{OffsetX: vp.OffsetX, OffsetY: vp.OffsetY, Scale: vp.Scale}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return ir.WorkspaceState{}, fmt.Errorf("read viewport: %w", err)
	}
	return state, nil
}

// SaveNode upserts a node.
func (r *Repository) SaveNode(ctx context.Context, workspaceID string, n ir.Node) error {
	record, err := ir.MarshalCanonical(n)
	if err != nil {
		return fmt.Errorf("save node %s: %w", n.ID, err)
	}
	row := NodeRow{
		WorkspaceID: workspaceID,
		ID:          n.ID,
		Kind:        string(n.Kind()),
		ZIndex:      n.ZIndex,
		Deleted:     n.Deleted,
		Record:      record,
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "workspace_id"}, {Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"kind", "z_index", "deleted", "record", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save node %s: %w", n.ID, err)
	}
	return nil
}

// SaveConnection upserts a connection.
func (r *Repository) SaveConnection(ctx context.Context, workspaceID string, c ir.Connection) error {
	record, err := ir.MarshalCanonical(c)
	if err != nil {
		return fmt.Errorf("save connection %s: %w", c.ID, err)
	}
	row := ConnectionRow{
		WorkspaceID: workspaceID,
		ID:          c.ID,
		SourceNode:  c.Source.NodeID,
		TargetNode:  c.Target.NodeID,
		ZIndex:      c.ZIndex,
		Deleted:     c.Deleted,
		Record:      record,
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "workspace_id"}, {Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"source_node", "target_node", "z_index", "deleted", "record", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save connection %s: %w", c.ID, err)
	}
	return nil
}

// SaveViewport upserts a user's viewport.
func (r *Repository) SaveViewport(ctx context.Context, workspaceID, userID string, v ir.Viewport) error {
	row := ViewportRow{WorkspaceID: workspaceID, UserID: userID, OffsetX: v.OffsetX, OffsetY: v.OffsetY, Scale: v.Scale}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "workspace_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"offset_x", "offset_y", "scale"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save viewport: %w", err)
	}
	return nil
}

// AppendUpdates appends encoded updates in one transaction. Seq continues
// from the workspace's current maximum.
func (r *Repository) AppendUpdates(ctx context.Context, workspaceID string, updates [][]byte) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int
		if err := tx.Model(&DocUpdateRow{}).
			Where("workspace_id = ?", workspaceID).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&last).Error; err != nil {
			return fmt.Errorf("read update seq: %w", err)
		}
		rows := make([]DocUpdateRow, len(updates))
		for i, data := range updates {
			rows[i] = DocUpdateRow{WorkspaceID: workspaceID, Seq: last + i + 1, Data: data}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("append updates: %w", err)
		}
		return nil
	})
}

// Updates returns every logged update of a workspace in append order.
func (r *Repository) Updates(ctx context.Context, workspaceID string) ([][]byte, error) {
	var rows []DocUpdateRow
	err := r.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("seq ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("get updates: %w", err)
	}
	out := make([][]byte, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Data)
	}
	return out, nil
}

// CompactUpdates keeps only the newest keep updates of a workspace.
func (r *Repository) CompactUpdates(ctx context.Context, workspaceID string, keep int) (int64, error) {
	var maxSeq int
	db := r.db.WithContext(ctx)
	if err := db.Model(&DocUpdateRow{}).
		Where("workspace_id = ?", workspaceID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&maxSeq).Error; err != nil {
		return 0, fmt.Errorf("read update seq: %w", err)
	}
	if maxSeq <= keep {
		return 0, nil
	}
	res := db.Where("workspace_id = ? AND seq <= ?", workspaceID, maxSeq-keep).Delete(&DocUpdateRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("compact updates: %w", res.Error)
	}
	return res.RowsAffected, nil
}
