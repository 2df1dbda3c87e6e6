package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/smallbiznis/civicdash/internal/auth/password"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLineStripsNewline(t *testing.T) {
	secret, err := readLine(strings.NewReader("hunter2\r\nignored\n"))
	require.NoError(t, err)
	assert.Equal(t, "hunter2", secret)

	secret, err = readLine(strings.NewReader("no-newline"))
	require.NoError(t, err)
	assert.Equal(t, "no-newline", secret)
}

func TestWriteHashVerifies(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeHash(&out, "hunter2"))

	encoded := strings.TrimSpace(out.String())
	assert.True(t, password.Verify("hunter2", encoded))
	assert.False(t, password.Verify("hunter3", encoded))
}

func TestWriteHashRejectsEmpty(t *testing.T) {
	assert.Error(t, writeHash(&bytes.Buffer{}, ""))
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()

	for _, name := range []string{"serve", "hash-password"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}
