package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cindergrid/automaton/internal/aaa"
)

// NewUpdateCommand creates the update command group. All updates
// require ownership and a mutable instance.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update a mutable instance",
	}
	cmd.AddCommand(newUpdatePolicyCommand(rootOpts))
	cmd.AddCommand(newUpdateScheduleCommand(rootOpts))
	cmd.AddCommand(newUpdateRefundsCommand(rootOpts))
	return cmd
}

func newUpdatePolicyCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		owner  string
		policy string
	)
	cmd := &cobra.Command{
		Use:           "policy <id>",
		Short:         "Change the instance default error policy (abort|continue)",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var p aaa.ErrorPolicy
			switch policy {
			case "abort":
				p = aaa.AbortCycle
			case "continue":
				p = aaa.ContinueNextStep
			default:
				return WrapExitError(ExitCommandError, "--policy must be abort or continue", nil)
			}
			return ownerAction(rootOpts, cmd, args[0], owner, "updated",
				func(ctx context.Context, w *World, o aaa.Account, id aaa.ID) error {
					return w.Registry.UpdatePolicy(o, id, p)
				})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owning account (required)")
	cmd.Flags().StringVar(&policy, "policy", "", "error policy: abort or continue (required)")
	return cmd
}

func newUpdateScheduleCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		owner    string
		trigger  string
		cooldown uint64
	)
	cmd := &cobra.Command{
		Use:           "schedule <id>",
		Short:         "Change the instance schedule",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var kind aaa.TriggerKind
			switch trigger {
			case "manual":
				kind = aaa.TriggerManual
			case "recurring":
				kind = aaa.TriggerRecurring
			default:
				return WrapExitError(ExitCommandError, "--trigger must be manual or recurring", nil)
			}
			schedule := aaa.Schedule{Trigger: kind, Cooldown: aaa.Tick(cooldown)}
			return ownerAction(rootOpts, cmd, args[0], owner, "updated",
				func(ctx context.Context, w *World, o aaa.Account, id aaa.ID) error {
					return w.Registry.UpdateSchedule(o, id, schedule)
				})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owning account (required)")
	cmd.Flags().StringVar(&trigger, "trigger", "", "trigger kind: manual or recurring (required)")
	cmd.Flags().Uint64Var(&cooldown, "cooldown", 0, "cooldown in ticks")
	return cmd
}

func newUpdateRefundsCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		owner  string
		assets string
	)
	cmd := &cobra.Command{
		Use:           "refunds <id>",
		Short:         "Replace the refundable-asset list",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var list []aaa.Asset
			if assets != "" {
				for _, a := range strings.Split(assets, ",") {
					list = append(list, aaa.Asset(strings.TrimSpace(a)))
				}
			}
			return ownerAction(rootOpts, cmd, args[0], owner, "updated",
				func(ctx context.Context, w *World, o aaa.Account, id aaa.ID) error {
					return w.Registry.UpdateRefundAssets(o, id, list)
				})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owning account (required)")
	cmd.Flags().StringVar(&assets, "assets", "", "comma-separated asset list (empty clears)")
	return cmd
}
