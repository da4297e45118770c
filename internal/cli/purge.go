package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// PurgeResult reports what purge removed.
type PurgeResult struct {
	Backend   string `json:"backend"`
	Workspace string `json:"workspace"`
	Removed   int64  `json:"removed"`
}

func (r PurgeResult) String() string {
	return fmt.Sprintf("Removed %d rows from workspace %s in %s\n", r.Removed, r.Workspace, r.Backend)
}

// NewPurgeCommand creates the purge command.
func NewPurgeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Compact a workspace's storage",
		Long: `Compact storage for a workspace.

On SQLite, soft-deleted nodes and connections, and connections that point
at deleted nodes, are removed from the tables. On Postgres the document
update log is truncated; the next session rebuilds it from the tables.

Examples:
  canvas purge --db ./canvas.db -w roadmap`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPurge(cmd.Context(), rootOpts, cmd)
		},
	}
	return cmd
}

func runPurge(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd)

	b, err := openBackend(opts)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeStorage, "failed to open database", err)
	}
	defer b.Close()

	n, err := b.Compact(ctx, opts.Workspace)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeStorage, "failed to purge workspace", err)
	}
	return out.Success(PurgeResult{Backend: describe(b, opts), Workspace: opts.Workspace, Removed: n})
}
