package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunReportsUsageError(t *testing.T) {
	var stderr bytes.Buffer

	code := run([]string{"predict", "--no-such-flag"}, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "flag provided but not defined")
}

func TestRunReportsConfigError(t *testing.T) {
	t.Setenv("PREDICT_TIMEOUT", "soon")
	var stderr bytes.Buffer

	code := run([]string{"predict", "--help"}, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "config error")
}

func TestRunHelp(t *testing.T) {
	var stderr bytes.Buffer

	assert.Equal(t, 0, run([]string{"predict", "--help"}, &stderr))
	assert.Empty(t, stderr.String())
}
