package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	old := os.Args
	os.Args = append([]string{"ora"}, args...)
	t.Cleanup(func() { os.Args = old })
}

func TestRunExitCodes(t *testing.T) {
	withArgs(t, "version")
	assert.Equal(t, 0, run())

	withArgs(t, "no-such-command")
	assert.Equal(t, 1, run())
}

func TestShutdownRequestWinsOverResult(t *testing.T) {
	shutdownRequested.Store(true)
	t.Cleanup(func() { shutdownRequested.Store(false) })

	withArgs(t, "version")
	assert.Equal(t, 130, run())
}
