package main

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, exitPartial, exitCode(fmt.Errorf("%w: 2 failed segment(s)", ErrPartialExtraction)))
	assert.Equal(t, exitFatal, exitCode(&HTTPError{StatusCode: 404, URL: "https://files.example/F1"}))
	assert.Equal(t, exitFatal, exitCode(errors.New("boom")))
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "digest-scraper dev\n", buf.String())
}
