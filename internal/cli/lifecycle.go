package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cindergrid/automaton/internal/aaa"
)

// parseID parses a positional instance ID argument.
func parseID(arg string) (aaa.ID, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, WrapExitError(ExitCommandError, fmt.Sprintf("invalid instance id %q", arg), err)
	}
	return aaa.ID(id), nil
}

// ownerAction runs one owner-gated registry call against the world and
// saves on success.
func ownerAction(opts *RootOptions, cmd *cobra.Command, idArg, owner, verb string,
	action func(ctx context.Context, w *World, owner aaa.Account, id aaa.ID) error,
) error {
	id, err := parseID(idArg)
	if err != nil {
		return err
	}
	if owner == "" {
		return WrapExitError(ExitCommandError, "--owner is required", nil)
	}

	ctx := cmd.Context()
	world, err := OpenWorld(ctx, opts.Database)
	if err != nil {
		return err
	}
	defer world.Close()

	if err := action(ctx, world, aaa.Account(owner), id); err != nil {
		return WrapExitError(ExitFailure, verb+" rejected", err)
	}
	if err := world.Save(ctx); err != nil {
		return err
	}
	return opts.formatter(cmd).Success(fmt.Sprintf("%s instance %d", verb, id))
}

// NewPauseCommand creates the pause command.
func NewPauseCommand(rootOpts *RootOptions) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:           "pause <id>",
		Short:         "Pause an instance (skipped by trigger evaluation)",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ownerAction(rootOpts, cmd, args[0], owner, "paused",
				func(ctx context.Context, w *World, o aaa.Account, id aaa.ID) error {
					return w.Registry.Pause(o, id)
				})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owning account (required)")
	return cmd
}

// NewResumeCommand creates the resume command.
func NewResumeCommand(rootOpts *RootOptions) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:           "resume <id>",
		Short:         "Resume a paused instance",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ownerAction(rootOpts, cmd, args[0], owner, "resumed",
				func(ctx context.Context, w *World, o aaa.Account, id aaa.ID) error {
					return w.Registry.Resume(o, id)
				})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owning account (required)")
	return cmd
}

// NewTriggerCommand creates the trigger command.
func NewTriggerCommand(rootOpts *RootOptions) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "trigger <id>",
		Short: "Set the manual-trigger flag on an instance",
		Long: `Set the manual-trigger flag on an instance.

The instance becomes due on the next tick once the cooldown window
since its last completed cycle has elapsed; an instance that has never
run is due immediately. The flag is consumed when the instance is
queued, whether or not the cycle later succeeds.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ownerAction(rootOpts, cmd, args[0], owner, "triggered",
				func(ctx context.Context, w *World, o aaa.Account, id aaa.ID) error {
					return w.Registry.ManualTrigger(o, id)
				})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owning account (required)")
	return cmd
}

// NewCloseCommand creates the close command.
func NewCloseCommand(rootOpts *RootOptions) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "close <id>",
		Short: "Close an instance and refund its sovereign holdings",
		Long: `Close an instance: refund the fee asset and the registered refundable
assets to the refund target, free the owner slot, and delete the
record. Queued ring entries are dropped lazily by the scheduler.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ownerAction(rootOpts, cmd, args[0], owner, "closed",
				func(ctx context.Context, w *World, o aaa.Account, id aaa.ID) error {
					return w.Registry.CloseByOwner(ctx, o, id, w.Ledger)
				})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owning account (required)")
	return cmd
}
