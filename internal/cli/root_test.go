package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "sortition", cmd.Use)
	assert.Contains(t, cmd.Long, "SQLite ledger")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"init", "fund", "tick", "entropy", "pool", "session", "show"}

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

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "sortition.db", dbFlag.DefValue)

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestPoolCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	createCmd, _, err := cmd.Find([]string{"pool", "create"})
	require.NoError(t, err)

	manifestFlag := createCmd.Flags().Lookup("manifest")
	require.NotNil(t, manifestFlag)

	asFlag := createCmd.Flags().Lookup("as")
	require.NotNil(t, asFlag)
}

func TestSessionCommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	submitCmd, _, err := cmd.Find([]string{"session", "submit"})
	require.NoError(t, err)
	require.NotNil(t, submitCmd.Flags().Lookup("pool"))
	require.NotNil(t, submitCmd.Flags().Lookup("media-hash"))
	require.NotNil(t, submitCmd.Flags().Lookup("selector"))

	finalizeCmd, _, err := cmd.Find([]string{"session", "finalize"})
	require.NoError(t, err)
	require.NotNil(t, finalizeCmd.Flags().Lookup("entropy"))
	require.NotNil(t, finalizeCmd.Flags().Lookup("entropy-tick"))
	require.NotNil(t, finalizeCmd.Flags().Lookup("completed"))
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "tick"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
