package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/canvas/internal/engine"
	"github.com/roach88/canvas/internal/repository"
	"github.com/roach88/canvas/internal/store"
)

// Backend is the storage a command works against: SQLite by default, or
// Postgres when CANVAS_POSTGRES_DSN is set.
type Backend interface {
	engine.Storage

	// Kind is "sqlite" or "postgres".
	Kind() string

	// CountUpdates returns the length of a workspace's update log.
	CountUpdates(ctx context.Context, workspaceID string) (int, error)

	// Compact drops soft-deleted rows (SQLite) or old log entries
	// (Postgres) and reports how many rows went.
	Compact(ctx context.Context, workspaceID string) (int64, error)

	Close() error
}

// openBackend opens the backend the config selects.
func openBackend(opts *RootOptions) (Backend, error) {
	cfg := opts.Config
	if cfg.PostgresDSN != "" {
		slog.Debug("opening postgres backend")
		repo, err := repository.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return &postgresBackend{Repository: repo}, nil
	}

	slog.Debug("opening sqlite backend", "path", cfg.DBPath)
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	return &sqliteBackend{Store: st}, nil
}

type sqliteBackend struct {
	*store.Store
}

func (b *sqliteBackend) Kind() string { return "sqlite" }

func (b *sqliteBackend) Compact(ctx context.Context, workspaceID string) (int64, error) {
	nodes, conns, err := b.PurgeDeleted(ctx, workspaceID)
	if err != nil {
		return 0, err
	}
	return nodes + conns, nil
}

type postgresBackend struct {
	*repository.Repository
}

func (b *postgresBackend) Kind() string { return "postgres" }

func (b *postgresBackend) CountUpdates(ctx context.Context, workspaceID string) (int, error) {
	updates, err := b.Updates(ctx, workspaceID)
	if err != nil {
		return 0, err
	}
	return len(updates), nil
}

// Compact keeps no history rows; the tables hold the current state.
func (b *postgresBackend) Compact(ctx context.Context, workspaceID string) (int64, error) {
	return b.CompactUpdates(ctx, workspaceID, 0)
}

// isNotFound reports whether err means the workspace does not exist in
// either backend.
func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound) || errors.Is(err, repository.ErrNotFound)
}

func describe(b Backend, opts *RootOptions) string {
	if b.Kind() == "postgres" {
		return "postgres"
	}
	return fmt.Sprintf("sqlite:%s", opts.Config.DBPath)
}
