package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cindergrid/automaton/internal/aaa"
)

// NewFundCommand creates the fund command.
func NewFundCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		from   string
		amount uint64
	)
	cmd := &cobra.Command{
		Use:   "fund <id>",
		Short: "Transfer fee-asset funds into an instance's sovereign account",
		Long: `Transfer fee-asset funds from any account into an instance's
sovereign account. Funding is permissionless: the funder pays, the
instance's fees and rent draw from the sovereign balance.

Example:
  automaton fund 3 --from alice --amount 5000`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if from == "" || amount == 0 {
				return WrapExitError(ExitCommandError, "--from and --amount are required", nil)
			}

			ctx := cmd.Context()
			world, err := OpenWorld(ctx, rootOpts.Database)
			if err != nil {
				return err
			}
			defer world.Close()

			if err := world.Registry.Fund(ctx, aaa.Account(from), id, aaa.Amount(amount), world.Ledger); err != nil {
				return WrapExitError(ExitFailure, "fund rejected", err)
			}
			if err := world.Save(ctx); err != nil {
				return err
			}
			return rootOpts.formatter(cmd).Success(
				fmt.Sprintf("funded instance %d with %d from %s", id, amount, from))
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "funding account (required)")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "fee-asset amount (required)")
	return cmd
}

// NewMintCommand creates the mint command.
func NewMintCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		to     string
		asset  string
		amount uint64
	)
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Issue asset supply to an account (host operation)",
		Long: `Issue new asset supply directly to an account. This is the host's
seeding entry point for standing up a world; instance pipelines can
only mint through privileged system-class tasks.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" || asset == "" || amount == 0 {
				return WrapExitError(ExitCommandError, "--to, --asset and --amount are required", nil)
			}

			recipient, err := aaa.NormalizeAccount(to)
			if err != nil {
				return WrapExitError(ExitCommandError, "bad recipient", err)
			}
			sym, err := aaa.NormalizeAsset(asset)
			if err != nil {
				return WrapExitError(ExitCommandError, "bad asset", err)
			}

			ctx := cmd.Context()
			world, err := OpenWorld(ctx, rootOpts.Database)
			if err != nil {
				return err
			}
			defer world.Close()

			if err := world.Ledger.Mint(ctx, recipient, sym, aaa.Amount(amount)); err != nil {
				return WrapExitError(ExitFailure, "mint rejected", err)
			}
			if err := world.Save(ctx); err != nil {
				return err
			}
			return rootOpts.formatter(cmd).Success(
				fmt.Sprintf("minted %d %s to %s", amount, asset, to))
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "recipient account (required)")
	cmd.Flags().StringVar(&asset, "asset", "", "asset symbol (required)")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "amount to mint (required)")
	return cmd
}

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	var caller string
	cmd := &cobra.Command{
		Use:   "sweep <id>",
		Short: "Reclaim an insolvent or persistently failing instance",
		Long: `Reclaim an eligible instance: anyone may call this. Eligibility is
either a failure streak past the cap (any class) or, for user-class
instances, a sovereign fee balance below the solvency floor plus owed
rent. Remaining holdings are refunded per the instance's refund
policy before the record is removed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if caller == "" {
				return WrapExitError(ExitCommandError, "--caller is required", nil)
			}

			ctx := cmd.Context()
			world, err := OpenWorld(ctx, rootOpts.Database)
			if err != nil {
				return err
			}
			defer world.Close()

			if err := world.Scheduler.Sweep(ctx, aaa.Account(caller), id); err != nil {
				return WrapExitError(ExitFailure, "sweep rejected", err)
			}
			if err := world.Save(ctx); err != nil {
				return err
			}
			return rootOpts.formatter(cmd).Success(fmt.Sprintf("swept instance %d", id))
		},
	}
	cmd.Flags().StringVar(&caller, "caller", "", "calling account (required)")
	return cmd
}
