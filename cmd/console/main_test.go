//go:build unix

package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	opts, err := parseArgs([]string{"-steps", "12", "-fps", "30", "-wrap", "pong.ch8"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, options{romPath: "pong.ch8", steps: 12, fps: 30, wrap: true}, opts)

	for _, args := range [][]string{{}, {"a.ch8", "b.ch8"}, {"-scale", "2", "a.ch8"}} {
		_, err := parseArgs(args, io.Discard)
		assert.Error(t, err, "args %v", args)
	}
}
