package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cindergrid/automaton/internal/aaa"
)

// NewPoolCommand creates the pool command.
func NewPoolCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		funder  string
		assetA  string
		assetB  string
		amountA uint64
		amountB uint64
	)
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Seed a constant-product liquidity pool",
		Long: `Seed a liquidity pool for an asset pair with initial reserves taken
from the funder. Swap and liquidity tasks (and price conditions)
operate against seeded pools; a pipeline touching an unseeded pair
fails at dispatch.

Example:
  automaton pool --funder alice --asset-a NATIVE --asset-b GOLD --amount-a 100000 --amount-b 5000`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if funder == "" || assetA == "" || assetB == "" || amountA == 0 || amountB == 0 {
				return WrapExitError(ExitCommandError, "--funder, --asset-a, --asset-b, --amount-a and --amount-b are required", nil)
			}

			from, err := aaa.NormalizeAccount(funder)
			if err != nil {
				return WrapExitError(ExitCommandError, "bad funder", err)
			}
			symA, err := aaa.NormalizeAsset(assetA)
			if err != nil {
				return WrapExitError(ExitCommandError, "bad asset-a", err)
			}
			symB, err := aaa.NormalizeAsset(assetB)
			if err != nil {
				return WrapExitError(ExitCommandError, "bad asset-b", err)
			}

			ctx := cmd.Context()
			world, err := OpenWorld(ctx, rootOpts.Database)
			if err != nil {
				return err
			}
			defer world.Close()

			err = world.Ledger.CreatePool(ctx, from,
				symA, symB, aaa.Amount(amountA), aaa.Amount(amountB))
			if err != nil {
				return WrapExitError(ExitFailure, "pool rejected", err)
			}
			if err := world.Save(ctx); err != nil {
				return err
			}
			return rootOpts.formatter(cmd).Success(
				fmt.Sprintf("seeded pool %s/%s with %d/%d", assetA, assetB, amountA, amountB))
		},
	}
	cmd.Flags().StringVar(&funder, "funder", "", "account providing the reserves (required)")
	cmd.Flags().StringVar(&assetA, "asset-a", "", "first pool asset (required)")
	cmd.Flags().StringVar(&assetB, "asset-b", "", "second pool asset (required)")
	cmd.Flags().Uint64Var(&amountA, "amount-a", 0, "initial reserve of asset-a (required)")
	cmd.Flags().Uint64Var(&amountB, "amount-b", 0, "initial reserve of asset-b (required)")
	return cmd
}
