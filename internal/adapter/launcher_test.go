package adapter

import (
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLauncher_ConfiguredCommand(t *testing.T) {
	l := NewLauncher("firefox", []string{"--new-tab"}, NullLogger())
	var got []string
	l.start = func(cmd *exec.Cmd) error {
		got = cmd.Args
		return nil
	}

	require.NoError(t, l.Open("http://kie/case/1"))
	assert.Equal(t, []string{"firefox", "--new-tab", "http://kie/case/1"}, got)
}

func TestLauncher_FallsBackThroughOpeners(t *testing.T) {
	l := NewLauncher("", nil, NullLogger())
	l.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	l.start = func(*exec.Cmd) error { return nil }

	assert.Error(t, l.Open("http://kie/case/1"))

	var started int
	l.lookPath = func(name string) (string, error) { return name, nil }
	l.start = func(*exec.Cmd) error {
		started++
		return nil
	}
	require.NoError(t, l.Open("http://kie/case/1"))
	assert.Equal(t, 1, started)
}
