// Package persist connects a replicated canvas document to durable storage.
//
// Load seeds a document from a Loader once per session. A Bridge then
// observes the document and writes changed entities to a Saver after a
// quiet period, so a burst of edits becomes one write per entity. Saves
// are idempotent upserts with last-write-wins semantics; a failed save
// never rolls back in-memory state and is retried on the next flush.
package persist

import (
	"context"

	"go.opentelemetry.io/otel"

	"github.com/roach88/canvas/internal/ir"
)

var tracer = otel.Tracer("canvas/persist")

// Loader reads a workspace from durable storage.
type Loader interface {
	LoadWorkspace(ctx context.Context, workspaceID, userID string) (ir.WorkspaceState, error)
}

// Saver writes single entities to durable storage. Every method must be an
// idempotent upsert: the same entity may be saved many times in a row.
type Saver interface {
	SaveNode(ctx context.Context, workspaceID string, n ir.Node) error
	SaveConnection(ctx context.Context, workspaceID string, c ir.Connection) error
	SaveViewport(ctx context.Context, workspaceID, userID string, v ir.Viewport) error
}

// UpdateLog stores encoded document updates in commit order. It lets a
// workspace be rebuilt by replaying updates.
type UpdateLog interface {
	AppendUpdates(ctx context.Context, workspaceID string, updates [][]byte) error
	Updates(ctx context.Context, workspaceID string) ([][]byte, error)
}
