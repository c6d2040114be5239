package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"serve", "diagnose", "history", "scenarios", "migrate", "version"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestDiagnoseRequiresIssue(t *testing.T) {
	root := newRootCmd()
	cmd, _, err := root.Find([]string{"diagnose"})
	require.NoError(t, err)

	assert.Error(t, cmd.Args(cmd, nil))
	assert.NoError(t, cmd.Args(cmd, []string{"model is slow"}))
	assert.NoError(t, cmd.Args(cmd, []string{"", "feature-nulls"}))
	assert.Error(t, cmd.Args(cmd, []string{"a", "b", "c"}))
}
