package persist

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/canvas/internal/doc"
	"github.com/roach88/canvas/internal/ir"
	"github.com/roach88/canvas/internal/model"
)

// Loaded is the outcome of Load.
type Loaded struct {
	Workspace ir.Workspace
	Snapshot  ir.Snapshot

	// Migrated holds nodes whose stored form was upgraded. They should be
	// saved back so the upgrade runs once.
	Migrated []ir.Node

	// Skipped counts stored records that failed validation.
	Skipped int
}

// Load reads a workspace and writes it into d with OriginLoad. Legacy nodes
// are migrated and invalid records are skipped with a warning. A user
// without a stored viewport gets the default one.
func Load(ctx context.Context, loader Loader, d *doc.Doc, workspaceID, userID string) (Loaded, error) {
	ctx, span := tracer.Start(ctx, "persist.load", trace.WithAttributes(
		attribute.String("workspace.id", workspaceID),
		attribute.String("user.id", userID),
	))
	defer span.End()

	state, err := loader.LoadWorkspace(ctx, workspaceID, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Loaded{}, fmt.Errorf("load workspace %s: %w", workspaceID, err)
	}

	out := FromState(state)
	span.SetAttributes(
		attribute.Int("nodes", len(out.Snapshot.Nodes)),
		attribute.Int("connections", len(out.Snapshot.Connections)),
		attribute.Int("migrated", len(out.Migrated)),
		attribute.Int("skipped", out.Skipped),
	)

	err = d.Transact(doc.OriginLoad, func(tx *doc.Txn) error {
		return model.WriteState(tx, out.Snapshot)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Loaded{}, fmt.Errorf("seed document %s: %w", workspaceID, err)
	}

	slog.Info("workspace loaded",
		"workspace", workspaceID,
		"nodes", len(out.Snapshot.Nodes),
		"connections", len(out.Snapshot.Connections),
		"migrated", len(out.Migrated),
	)
	return out, nil
}

// FromState converts a stored workspace into a snapshot, migrating legacy
// nodes and dropping records that fail validation.
func FromState(state ir.WorkspaceState) Loaded {
	out := Loaded{Workspace: state.Workspace, Snapshot: ir.NewSnapshot()}
	defaults := ir.DefaultNodeDefaults()

	for _, n := range state.Nodes {
		migrated, changed := ir.MigrateNode(n, defaults)
		if err := ir.ValidateNode(migrated); err != nil {
			slog.Warn("skipping stored node", "node", n.ID, "error", err)
			out.Skipped++
			continue
		}
		out.Snapshot.Nodes[migrated.ID] = migrated
		if changed {
			out.Migrated = append(out.Migrated, migrated)
		}
	}
	for _, c := range state.Connections {
		if err := ir.ValidateConnection(c, nil); err != nil {
			slog.Warn("skipping stored connection", "connection", c.ID, "error", err)
			out.Skipped++
			continue
		}
		out.Snapshot.Connections[c.ID] = c
	}
	if state.Viewport != nil {
		out.Snapshot.Viewport = state.Viewport.Clamp()
	}
	return out
}

// Replay applies every logged update for a workspace to d with OriginLoad.
// Updates that fail to decode stop the replay.
func Replay(ctx context.Context, log UpdateLog, d *doc.Doc, workspaceID string) (int, error) {
	ctx, span := tracer.Start(ctx, "persist.replay", trace.WithAttributes(
		attribute.String("workspace.id", workspaceID),
	))
	defer span.End()

	updates, err := log.Updates(ctx, workspaceID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("read update log %s: %w", workspaceID, err)
	}
	for i, data := range updates {
		u, err := doc.DecodeUpdate(data)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return i, fmt.Errorf("decode update %d: %w", i, err)
		}
		if err := d.ApplyUpdate(u, doc.OriginLoad); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return i, fmt.Errorf("apply update %d: %w", i, err)
		}
	}
	span.SetAttributes(attribute.Int("updates", len(updates)))
	return len(updates), nil
}
