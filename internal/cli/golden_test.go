package cli

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/cindergrid/automaton/internal/aaa"
	"github.com/cindergrid/automaton/internal/registry"
)

// runCommand executes the CLI against a database and captures stdout.
func runCommand(t *testing.T, args ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&buf)
	cmd.SetErr(io.Discard)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	return buf.Bytes()
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

// TestStatusGoldenFresh pins the status output of an untouched world.
func TestStatusGoldenFresh(t *testing.T) {
	path := testDB(t)
	out := runCommand(t, "--db", path, "status")
	newGoldie(t).Assert(t, "status-fresh", out)
}

// TestTickTraceGolden pins the tick trace of a small deterministic
// world: one recurring single-step instance with a two-tick cooldown,
// run for four ticks. Never-run instances carry no cooldown window, so
// it executes on tick one and again on tick three.
func TestTickTraceGolden(t *testing.T) {
	ctx := context.Background()
	path := testDB(t)

	world, err := OpenWorld(ctx, path)
	require.NoError(t, err)

	in, err := world.Registry.Create(registry.CreateSpec{
		Owner:    "alice",
		Class:    aaa.ClassUser,
		Schedule: aaa.Schedule{Trigger: aaa.TriggerRecurring, Cooldown: 2},
		Pipeline: aaa.Pipeline{{Task: aaa.Task{Kind: aaa.TaskNoop}}},
		Policy:   aaa.AbortCycle,
	}, 0)
	require.NoError(t, err)
	world.Ledger.SetBalance(in.Sovereign, "NATIVE", 10_000)
	require.NoError(t, world.Save(ctx))
	require.NoError(t, world.Close())

	out := runCommand(t, "--db", path, "tick", "--count", "4")
	newGoldie(t).Assert(t, "tick-trace", out)
}
