//go:build !js

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gochip8/pkg/chip8"
)

func writeROM(t *testing.T, dir string, words ...uint16) string {
	t.Helper()
	rom := make([]byte, 0, len(words)*2)
	for _, w := range words {
		rom = append(rom, byte(w>>8), byte(w))
	}
	path := filepath.Join(dir, "test.ch8")
	require.NoError(t, os.WriteFile(path, rom, 0644))
	return path
}

func TestRunDrawsAndSnapshots(t *testing.T) {
	dir := t.TempDir()
	rom := writeROM(t, dir,
		0x00E0, // CLS
		0xA000, // I = glyph 0
		0xD005, // draw at V0,V0
		0x1206, // spin
	)
	png := filepath.Join(dir, "out.png")
	snap := filepath.Join(dir, "out.state")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-frames", "3", "-screenshot", png, "-save-state", snap, rom}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	assert.Contains(t, stdout.String(), "frames=3 presents=1 PC=0x206")
	assert.FileExists(t, png)
	assert.FileExists(t, snap)

	vm := chip8.New()
	require.NoError(t, vm.RestoreStateFile(snap))
	assert.Equal(t, uint16(0x206), vm.PC)
	assert.True(t, vm.Display.Pixel(0, 0))

	stdout.Reset()
	code = run([]string{"-frames", "1", "-load-state", snap, rom}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "PC=0x206")
}

func TestRunUnknownOpcode(t *testing.T) {
	rom := writeROM(t, t.TempDir(), 0x6005, 0xFFFF)

	var stdout, stderr bytes.Buffer
	code := run([]string{rom}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "unhandled opcode FFFF at 0x202")
	assert.Contains(t, stdout.String(), "V0=0x05")
}

func TestRunUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "usage: gochip8")
	assert.Equal(t, 2, run([]string{"a.ch8", "b.ch8"}, &stdout, &stderr))
	assert.Equal(t, 2, run([]string{"-scale", "0", "a.ch8"}, &stdout, &stderr))
	assert.Equal(t, 1, run([]string{filepath.Join(t.TempDir(), "missing.ch8")}, &stdout, &stderr))
}

func TestRunAssemblesSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "count.asm")
	require.NoError(t, os.WriteFile(src, []byte(`
	LD V0, 0
loop:
	ADD V0, 1
	SE V0, 10
	JP loop
done: JP done
`), 0644))

	var stdout, stderr bytes.Buffer
	code := run([]string{"-frames", "10", src}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "PC=0x208")
	assert.Contains(t, stdout.String(), "V0=0x0A")

	bad := filepath.Join(dir, "bad.asm")
	require.NoError(t, os.WriteFile(bad, []byte("FOO\n"), 0644))
	assert.Equal(t, 1, run([]string{bad}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "assembly failed")
}
