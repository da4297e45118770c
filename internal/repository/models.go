package repository

import (
	"time"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// WorkspaceRow is the workspaces table.
type WorkspaceRow struct {
	ID        string `gorm:"type:varchar(64);primaryKey"`
	ProjectID string `gorm:"type:varchar(64);not null;default:''"`
	Settings  []byte `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (WorkspaceRow) TableName() string { return "workspaces" }

// NodeRow stores a node as its canonical JSON record beside the columns
// reads order by.
type NodeRow struct {
	WorkspaceID string `gorm:"type:varchar(64);primaryKey;index:idx_nodes_paint_order,priority:1"`
	ID          string `gorm:"type:varchar(64);primaryKey;index:idx_nodes_paint_order,priority:3"`
	Kind        string `gorm:"type:varchar(16);not null"`
	ZIndex      int    `gorm:"not null;index:idx_nodes_paint_order,priority:2"`
	Deleted     bool   `gorm:"not null;default:false"`
	Record      []byte `gorm:"type:jsonb;not null"`
	UpdatedAt   time.Time
}

func (NodeRow) TableName() string { return "nodes" }

// ConnectionRow stores a connection record.
type ConnectionRow struct {
	WorkspaceID string `gorm:"type:varchar(64);primaryKey"`
	ID          string `gorm:"type:varchar(64);primaryKey"`
	SourceNode  string `gorm:"type:varchar(64);not null"`
	TargetNode  string `gorm:"type:varchar(64);not null"`
	ZIndex      int    `gorm:"not null"`
	Deleted     bool   `gorm:"not null;default:false"`
	Record      []byte `gorm:"type:jsonb;not null"`
	UpdatedAt   time.Time
}

func (ConnectionRow) TableName() string { return "connections" }

// ViewportRow is one user's viewport for a workspace.
type ViewportRow struct {
	WorkspaceID string  `gorm:"type:varchar(64);primaryKey"`
	UserID      string  `gorm:"type:varchar(64);primaryKey"`
	OffsetX     float64 `gorm:"not null"`
	OffsetY     float64 `gorm:"not null"`
	Scale       float64 `gorm:"not null"`
}

func (ViewportRow) TableName() string { return "viewports" }

// DocUpdateRow stores one encoded document update.
type DocUpdateRow struct {
	ID          string    `gorm:"type:varchar(27);primaryKey"`
	WorkspaceID string    `gorm:"type:varchar(64);not null;index:idx_doc_updates_workspace,priority:1"`
	Seq         int       `gorm:"not null;index:idx_doc_updates_workspace,priority:2"`
	Data        []byte    `gorm:"type:bytea;not null"`
	CreatedAt   time.Time
}

func (DocUpdateRow) TableName() string { return "doc_updates" }

// BeforeCreate assigns a KSUID.
func (u *DocUpdateRow) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = ksuid.New().String()
	}
	return nil
}
