package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "automaton", cmd.Use)
	assert.Contains(t, cmd.Long, "tick")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{
		"create", "pause", "resume", "trigger", "close",
		"fund", "mint", "pool", "sweep", "update", "breaker",
		"tick", "serve", "status", "inspect",
	}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "automaton.db", dbFlag.DefValue)
}

func TestUpdateSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	for _, sub := range []string{"policy", "schedule", "refunds"} {
		subCmd, _, err := cmd.Find([]string{"update", sub})
		require.NoError(t, err)
		assert.Equal(t, sub, subCmd.Name())
	}
}

func TestTickCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	tickCmd, _, err := cmd.Find([]string{"tick"})
	require.NoError(t, err)

	countFlag := tickCmd.Flags().Lookup("count")
	require.NotNil(t, countFlag)
	assert.Equal(t, "1", countFlag.DefValue)
}

func TestServeCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	serveCmd, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	intervalFlag := serveCmd.Flags().Lookup("interval")
	require.NotNil(t, intervalFlag)
	assert.Equal(t, "1s", intervalFlag.DefValue)
	require.NotNil(t, serveCmd.Flags().Lookup("metrics-addr"))
}

func TestValidFormats(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))
	assert.False(t, isValidFormat("yaml"))
	assert.False(t, isValidFormat(""))
}
