package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cindergrid/automaton/internal/aaa"
	"github.com/cindergrid/automaton/internal/pipeline"
)

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create <definition-file>",
		Short: "Create an instance from a YAML or CUE definition",
		Long: `Create an instance from a YAML or CUE definition file.

The definition names the owner, class, schedule, error policy, refund
settings, and the pipeline steps. On success the new instance ID and
its derived sovereign account are printed; fund the sovereign before
the first due tick or the first cycle will fail on fees.

Example:
  automaton create rebalance.yaml
  automaton create sweeper.cue --db ./world.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(rootOpts, args[0], cmd)
		},
	}
}

// createResult is the create command's output payload.
type createResult struct {
	ID        aaa.ID      `json:"id"`
	Owner     aaa.Account `json:"owner"`
	Sovereign aaa.Account `json:"sovereign"`
	Class     string      `json:"class"`
	Steps     int         `json:"steps"`
}

func runCreate(opts *RootOptions, path string, cmd *cobra.Command) error {
	spec, err := pipeline.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load definition", err)
	}

	ctx := cmd.Context()
	world, err := OpenWorld(ctx, opts.Database)
	if err != nil {
		return err
	}
	defer world.Close()

	in, err := world.Registry.Create(spec, world.Scheduler.Tick())
	if err != nil {
		return WrapExitError(ExitFailure, "create rejected", err)
	}
	if err := world.Save(ctx); err != nil {
		return err
	}

	out := opts.formatter(cmd)
	if opts.Format == "json" {
		return out.Success(createResult{
			ID:        in.ID,
			Owner:     in.Owner,
			Sovereign: in.Sovereign,
			Class:     in.Class.String(),
			Steps:     len(in.Pipeline),
		})
	}
	return out.Success("created instance " + strconv.FormatInt(int64(in.ID), 10) +
		" (sovereign " + string(in.Sovereign) + ")")
}
