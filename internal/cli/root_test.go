package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "tristore", cmd.Use)
	assert.Contains(t, cmd.Long, "SPO/POS/OSP")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"insert", "get", "delete", "find", "traverse", "stats", "load", "test"}

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

	// Defaults must match config defaults; viper prefers a flag default
	// over its own.
	assert.Equal(t, "memory", cmd.PersistentFlags().Lookup("backend").DefValue)
	assert.Equal(t, "info", cmd.PersistentFlags().Lookup("log-level").DefValue)
	assert.Equal(t, "c", cmd.PersistentFlags().Lookup("config").Shorthand)
}

func TestConfigFlagsExist(t *testing.T) {
	cmd := NewRootCommand()
	for key, name := range configFlags {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "flag for %s", key)
	}
}

func TestFindCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	findCmd, _, err := cmd.Find([]string{"find"})
	require.NoError(t, err)

	for name, short := range map[string]string{"subject": "s", "predicate": "p", "object": "o", "kind": "k"} {
		f := findCmd.Flags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, short, f.Shorthand)
	}
	assert.Equal(t, "string", findCmd.Flags().Lookup("kind").DefValue)
	assert.NotNil(t, findCmd.Flags().Lookup("explain"))
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	assert.NotNil(t, testCmd.Flags().Lookup("update"))
	assert.NotNil(t, testCmd.Flags().Lookup("filter"))
	assert.NotNil(t, testCmd.Flags().Lookup("golden"))
	assert.Equal(t, "[]", testCmd.Flags().Lookup("backends").DefValue)
}

func TestInvalidFormat(t *testing.T) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	code := Run(context.Background(), []string{"stats", "--format", "yaml"}, stdout, stderr)

	assert.Equal(t, ExitCommandError, code)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), `invalid format "yaml"`)
}

func TestUnknownCommand(t *testing.T) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	code := Run(context.Background(), []string{"compile"}, stdout, stderr)

	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr.String(), "unknown command")
}
