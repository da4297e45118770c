package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/canvas/internal/ir"
)

var testNow = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestWorkspace creates a store with workspace ws-1 already inserted.
func createTestWorkspace(t *testing.T) *Store {
	t.Helper()
	s := createTestStore(t)
	err := s.CreateWorkspace(context.Background(), ir.Workspace{
		ID:        "ws-1",
		ProjectID: "proj-1",
		Settings:  ir.DefaultSettings(),
	})
	if err != nil {
		t.Fatalf("CreateWorkspace() failed: %v", err)
	}
	return s
}

// testNode creates a valid note node.
func testNode(id string, x, y float64, z int) ir.Node {
	return ir.Node{
		ID:       id,
		Position: ir.Position{X: x, Y: y},
		Size:     ir.Size{Width: 240, Height: 160},
		Content:  ir.Content{Title: id, TextScale: 1},
		ZIndex:   z,
		Metadata: ir.Metadata{Kind: ir.KindNote},
		Audit:    ir.Audit{CreatedBy: "user-1", CreatedAt: testNow, UpdatedBy: "user-1", UpdatedAt: testNow},
	}
}

// testConnection creates a connection between two nodes' centers.
func testConnection(id, src, dst string, z int) ir.Connection {
	return ir.Connection{
		ID:     id,
		Source: ir.Endpoint{NodeID: src, Anchor: ir.Anchor{Side: ir.SideCenter}},
		Target: ir.Endpoint{NodeID: dst, Anchor: ir.Anchor{Side: ir.SideCenter}},
		Style:  ir.DefaultConnectionStyle(),
		ZIndex: z,
		Audit:  ir.Audit{CreatedBy: "user-1", CreatedAt: testNow, UpdatedBy: "user-1", UpdatedAt: testNow},
	}
}
