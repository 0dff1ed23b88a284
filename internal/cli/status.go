package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cindergrid/automaton/internal/aaa"
)

// statusResult is the status command's output payload.
type statusResult struct {
	Tick        aaa.Tick `json:"tick"`
	Breaker     bool     `json:"breaker"`
	Instances   int      `json:"instances"`
	ReadySystem int      `json:"ready_system"`
	ReadyUser   int      `json:"ready_user"`
	Deferred    int      `json:"deferred"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Show world status",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			world, err := OpenWorld(ctx, rootOpts.Database)
			if err != nil {
				return err
			}
			defer world.Close()

			sys, usr, def := world.Scheduler.RingLengths()
			result := statusResult{
				Tick:        world.Scheduler.Tick(),
				Breaker:     world.Scheduler.CircuitBreaker(),
				Instances:   world.Registry.Len(),
				ReadySystem: sys,
				ReadyUser:   usr,
				Deferred:    def,
			}

			if rootOpts.Format == "json" {
				return rootOpts.formatter(cmd).Success(result)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "tick:         %d\n", result.Tick)
			fmt.Fprintf(w, "breaker:      %v\n", result.Breaker)
			fmt.Fprintf(w, "instances:    %d\n", result.Instances)
			fmt.Fprintf(w, "ready/system: %d\n", result.ReadySystem)
			fmt.Fprintf(w, "ready/user:   %d\n", result.ReadyUser)
			fmt.Fprintf(w, "deferred:     %d\n", result.Deferred)
			return nil
		},
	}
}

// inspectResult is the inspect command's output payload.
type inspectResult struct {
	Instance aaa.Instance             `json:"instance"`
	Holdings map[aaa.Asset]aaa.Amount `json:"holdings"`
	Eligible bool                     `json:"sweep_eligible"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "inspect <id>",
		Short:         "Show one instance's full record and sovereign holdings",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			world, err := OpenWorld(ctx, rootOpts.Database)
			if err != nil {
				return err
			}
			defer world.Close()

			in, ok := world.Registry.Get(id)
			if !ok {
				return WrapExitError(ExitFailure, fmt.Sprintf("no instance %d", id), nil)
			}

			holdings := make(map[aaa.Asset]aaa.Amount)
			for _, row := range world.Ledger.ExportBalances() {
				if row.Account == in.Sovereign {
					holdings[row.Asset] = row.Amount
				}
			}
			eligible, err := world.Scheduler.SweepEligible(ctx, id)
			if err != nil {
				return WrapExitError(ExitFailure, "eligibility check failed", err)
			}

			result := inspectResult{Instance: *in, Holdings: holdings, Eligible: eligible}
			if rootOpts.Format == "json" {
				return rootOpts.formatter(cmd).Success(result)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}
