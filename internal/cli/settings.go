package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/canvas/internal/ir"
	"github.com/roach88/canvas/internal/settings"
)

// SettingsResult is a validated settings file.
type SettingsResult struct {
	File     string      `json:"file"`
	Settings ir.Settings `json:"settings"`
}

func (r SettingsResult) String() string {
	s := r.Settings
	return fmt.Sprintf("✓ %s\n  grid_size: %g\n  snap_to_grid: %t\n  background: %s\n  collaboration: enabled=%t cursors=%t\n",
		r.File, s.GridSize, s.SnapToGrid, s.Background,
		s.Collaboration.Enabled, s.Collaboration.Cursors)
}

// NewSettingsCommand creates the settings command group.
func NewSettingsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Work with workspace settings files",
	}
	cmd.AddCommand(newSettingsValidateCommand(rootOpts))
	return cmd
}

func newSettingsValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a settings file against the settings schema",
		Long: `Validate a CUE, JSON or YAML settings file and print the resolved
settings, with schema defaults filled in.

Exit codes:
  0 - Settings are valid
  1 - Settings are invalid
  2 - Command error (file not found, etc.)

Examples:
  canvas settings validate ./settings.cue
  canvas settings validate ./settings.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(rootOpts, cmd)
			s, err := settings.Load(args[0])
			if err != nil {
				var serr *settings.Error
				if !errors.As(err, &serr) {
					return out.Fail(ExitCommandError, ErrCodeNotFound, "failed to read settings", err)
				}
				return out.Fail(ExitFailure, ErrCodeInvalidInput, "invalid settings", err)
			}
			return out.Success(SettingsResult{File: args[0], Settings: s})
		},
	}
}
