package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/canvas/internal/ir"
	"github.com/roach88/canvas/internal/settings"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Project  string
	Settings string
}

// InitResult is the workspace init created or found.
type InitResult struct {
	Backend   string      `json:"backend"`
	Workspace string      `json:"workspace"`
	Project   string      `json:"project"`
	Settings  ir.Settings `json:"settings"`
}

func (r InitResult) String() string {
	return fmt.Sprintf("Workspace %s (project %s) ready in %s\n  grid %g, snap %t, background %s\n",
		r.Workspace, r.Project, r.Backend,
		r.Settings.GridSize, r.Settings.SnapToGrid, r.Settings.Background)
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the database and a workspace",
		Long: `Create the database schema and a workspace row.

Running init on an existing workspace is a no-op. Settings are read from a
CUE, JSON or YAML file and validated against the settings schema.

Examples:
  canvas init --db ./canvas.db
  canvas init -w roadmap --project q3 --settings ./settings.cue`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Project, "project", "", "project id (defaults to the workspace id)")
	cmd.Flags().StringVar(&opts.Settings, "settings", "", "workspace settings file (.cue, .json or .yaml)")

	return cmd
}

func runInit(ctx context.Context, opts *InitOptions, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)

	ws := ir.Workspace{
		ID:        opts.Workspace,
		ProjectID: opts.Project,
		Settings:  ir.DefaultSettings(),
	}
	if ws.ProjectID == "" {
		ws.ProjectID = ws.ID
	}
	if opts.Settings != "" {
		s, err := settings.Load(opts.Settings)
		if err != nil {
			return out.Fail(ExitFailure, ErrCodeInvalidInput, "invalid settings", err)
		}
		ws.Settings = s
	}

	b, err := openBackend(opts.RootOptions)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeStorage, "failed to open database", err)
	}
	defer b.Close()

	if err := b.CreateWorkspace(ctx, ws); err != nil {
		return out.Fail(ExitCommandError, ErrCodeStorage, "failed to create workspace", err)
	}
	out.VerboseLog("created workspace %s", ws.ID)

	// Report what is stored, which differs from ws when it already existed.
	state, err := b.LoadWorkspace(ctx, ws.ID, opts.Config.UserID)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeStorage, "failed to read workspace", err)
	}

	return out.Success(InitResult{
		Backend:   describe(b, opts.RootOptions),
		Workspace: state.Workspace.ID,
		Project:   state.Workspace.ProjectID,
		Settings:  state.Workspace.Settings,
	})
}
