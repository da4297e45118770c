package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/canvas/internal/doc"
	"github.com/roach88/canvas/internal/harness"
	"github.com/roach88/canvas/internal/model"
	"github.com/roach88/canvas/internal/persist"
)

// replayReplica is the replica id of the documents rebuilt from the log, so
// their encoded states compare equal.
const replayReplica = "replay"

// ReplayResult holds the outcome of a replayed scenario.
type ReplayResult struct {
	Scenario string             `json:"scenario"`
	Pass     bool               `json:"pass"`
	Steps    int                `json:"steps"`
	Errors   []string           `json:"errors,omitempty"`
	Final    harness.FinalState `json:"final"`

	// Set when the scenario ran against storage.
	Backend       string `json:"backend,omitempty"`
	Updates       int    `json:"updates,omitempty"`
	Deterministic *bool  `json:"deterministic,omitempty"`
}

func (r ReplayResult) String() string {
	var b strings.Builder
	mark := "✓"
	if !r.Pass {
		mark = "✗"
	}
	fmt.Fprintf(&b, "%s %s (%d steps)\n", mark, r.Scenario, r.Steps)
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "  %s\n", e)
	}
	live := 0
	for _, n := range r.Final.Nodes {
		if !n.Deleted {
			live++
		}
	}
	fmt.Fprintf(&b, "  nodes: %d live, %d total\n", live, len(r.Final.Nodes))
	fmt.Fprintf(&b, "  connections: %d\n", r.Final.Connections)
	fmt.Fprintf(&b, "  viewport: offset (%g, %g) scale %g\n", r.Final.OffsetX, r.Final.OffsetY, r.Final.Scale)
	if r.Backend != "" {
		fmt.Fprintf(&b, "  persisted to %s: %d updates, deterministic=%t\n", r.Backend, r.Updates, *r.Deterministic)
	}
	return b.String()
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml>",
		Short: "Run a scenario and verify its update log",
		Long: `Run one scenario through a live session and print the outcome.

With --db, or when CANVAS_POSTGRES_DSN is set, the session persists to
storage. The workspace update log is then replayed twice into fresh
documents to verify that both replays converge to the same state.

Exit codes:
  0 - Scenario passed and the log replays deterministically
  1 - Scenario failed or replays diverged
  2 - Command error (invalid file, database error, etc.)

Examples:
  canvas replay ./scenarios/drag.yaml
  canvas replay ./scenarios/drag.yaml --db ./canvas.db
  canvas replay ./scenarios/drag.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runReplay(ctx context.Context, opts *RootOptions, path string, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd)

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeInvalidInput, "failed to load scenario", err)
	}

	runOpts := []harness.RunOption{harness.WithConfig(opts.Config)}
	var b Backend
	if cmd.Flags().Changed("db") || opts.Config.PostgresDSN != "" {
		b, err = openBackend(opts)
		if err != nil {
			return out.Fail(ExitCommandError, ErrCodeStorage, "failed to open database", err)
		}
		defer b.Close()
		runOpts = append(runOpts, harness.WithStorage(b))
	}

	result, err := harness.Run(scenario, runOpts...)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeStorage, "scenario execution failed", err)
	}

	res := ReplayResult{
		Scenario: scenario.Name,
		Pass:     result.Pass,
		Steps:    len(result.Trace),
		Errors:   result.Errors,
		Final:    result.Final,
	}

	if b != nil {
		updates, deterministic, err := verifyLog(ctx, b, harness.ScenarioWorkspace)
		if err != nil {
			return out.Fail(ExitCommandError, ErrCodeStorage, "failed to replay update log", err)
		}
		res.Backend = describe(b, opts)
		res.Updates = updates
		res.Deterministic = &deterministic
		out.VerboseLog("replayed %d updates from %s", updates, res.Backend)
	}

	if err := out.Success(res); err != nil {
		return err
	}
	switch {
	case !res.Pass:
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	case res.Deterministic != nil && !*res.Deterministic:
		return NewExitError(ExitFailure, fmt.Sprintf("update log for %s replays nondeterministically", harness.ScenarioWorkspace))
	}
	return nil
}

// verifyLog replays a workspace update log into two fresh documents and
// reports whether their encoded states match.
func verifyLog(ctx context.Context, log persist.UpdateLog, workspaceID string) (int, bool, error) {
	first, n, err := replayState(ctx, log, workspaceID)
	if err != nil {
		return 0, false, fmt.Errorf("first replay failed: %w", err)
	}
	second, _, err := replayState(ctx, log, workspaceID)
	if err != nil {
		return 0, false, fmt.Errorf("second replay failed: %w", err)
	}
	return n, bytes.Equal(first, second), nil
}

func replayState(ctx context.Context, log persist.UpdateLog, workspaceID string) ([]byte, int, error) {
	d := model.NewDoc(doc.WithReplicaID(replayReplica))
	defer d.Destroy()

	n, err := persist.Replay(ctx, log, d, workspaceID)
	if err != nil {
		return nil, 0, err
	}
	state, err := d.EncodeState()
	if err != nil {
		return nil, 0, err
	}
	return state, n, nil
}
