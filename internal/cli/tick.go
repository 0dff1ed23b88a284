package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cindergrid/automaton/internal/engine"
)

// NewTickCommand creates the tick command.
func NewTickCommand(rootOpts *RootOptions) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Process one or more ticks",
		Long: `Advance the logical clock and process ticks: rent accrual, trigger
evaluation, budgeted execution, and deferred promotion. The world is
saved after the last tick, so a crash between invocations never
observes a half-processed tick.

Example:
  automaton tick
  automaton tick --count 10`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 {
				return WrapExitError(ExitCommandError, "--count must be positive", nil)
			}

			ctx := cmd.Context()
			world, err := OpenWorld(ctx, rootOpts.Database)
			if err != nil {
				return err
			}
			defer world.Close()

			reports := make([]engine.TickReport, 0, count)
			for i := 0; i < count; i++ {
				reports = append(reports, world.Scheduler.RunTick(ctx))
			}
			if err := world.Save(ctx); err != nil {
				return err
			}

			out := rootOpts.formatter(cmd)
			if rootOpts.Format == "json" {
				return out.Success(reports)
			}
			for _, r := range reports {
				fmt.Fprintf(cmd.OutOrStdout(),
					"tick %d: enqueued=%d deferred=%d executed=%d succeeded=%d failed=%d promoted=%d rent=%d\n",
					r.Tick, r.Enqueued, r.Deferred, r.Executed, r.Succeeded, r.Failed, r.Promoted, r.RentDebited)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 1, "number of ticks to process")
	return cmd
}

// NewBreakerCommand creates the breaker command.
func NewBreakerCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "breaker <engage|release|status>",
		Short: "Control the global circuit breaker",
		Long: `Control the global circuit breaker. While engaged, trigger
evaluation and execution freeze; deferred promotion and rent accrual
continue. State is recoverable: releasing the breaker resumes exactly
where things stood.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			world, err := OpenWorld(ctx, rootOpts.Database)
			if err != nil {
				return err
			}
			defer world.Close()

			out := rootOpts.formatter(cmd)
			switch args[0] {
			case "engage":
				world.Scheduler.SetCircuitBreaker(true)
			case "release":
				world.Scheduler.SetCircuitBreaker(false)
			case "status":
				if world.Scheduler.CircuitBreaker() {
					return out.Success("breaker engaged")
				}
				return out.Success("breaker released")
			default:
				return WrapExitError(ExitCommandError, fmt.Sprintf("unknown breaker action %q", args[0]), nil)
			}

			if err := world.Save(ctx); err != nil {
				return err
			}
			return out.Success("breaker " + args[0] + "d")
		},
	}
	return cmd
}
