package main

import (
	"io"

	"gochip8/pkg/chip8"
	"gochip8/pkg/keymap"
	"gochip8/pkg/scheduler"
)

const (
	keyEsc   = 0x1b
	keyCtrlC = 0x03

	// holdFrames is how long a key counts as held after its last press.
	// Terminals report presses and auto-repeat but never releases.
	holdFrames = 6
)

// decodeInput maps a batch of raw terminal bytes to logical key presses.
// A lone ESC or Ctrl-C asks to quit; ANSI escape sequences (arrows,
// function keys) are skipped.
func decodeInput(batch []byte) (keys []byte, quit bool) {
	for i := 0; i < len(batch); i++ {
		b := batch[i]
		switch b {
		case keyCtrlC:
			return keys, true
		case keyEsc:
			if i+1 >= len(batch) || (batch[i+1] != '[' && batch[i+1] != 'O') {
				return keys, true
			}
			i += 2
			// CSI parameters run until a final byte in 0x40..0x7E.
			for i < len(batch) && (batch[i] < 0x40 || batch[i] > 0x7e) {
				i++
			}
			continue
		}
		if k, ok := keymap.Logical(rune(b)); ok {
			keys = append(keys, k)
		}
	}
	return keys, false
}

// consoleFrontend implements scheduler.Frontend on top of a raw byte
// stream and an ANSI renderer.
type consoleFrontend struct {
	input <-chan byte
	out   io.Writer
	r     *renderer

	hold  [chip8.NumKeys]int
	batch []byte
}

func newConsoleFrontend(input <-chan byte, out io.Writer) *consoleFrontend {
	return &consoleFrontend{
		input: input,
		out:   out,
		r:     newRenderer(),
	}
}

// drain collects every byte currently buffered without blocking.
func (f *consoleFrontend) drain() []byte {
	f.batch = f.batch[:0]
	for {
		select {
		case b, ok := <-f.input:
			if !ok {
				return f.batch
			}
			f.batch = append(f.batch, b)
		default:
			return f.batch
		}
	}
}

func (f *consoleFrontend) Poll() (scheduler.Input, error) {
	var in scheduler.Input

	for k := range f.hold {
		if f.hold[k] > 0 {
			f.hold[k]--
		}
	}

	keys, quit := decodeInput(f.drain())
	if quit {
		in.Quit = true
		return in, nil
	}
	for _, k := range keys {
		if f.hold[k] == 0 {
			in.Pressed = append(in.Pressed, k)
		}
		f.hold[k] = holdFrames
	}
	for k, n := range f.hold {
		in.Keys[k] = n > 0
	}
	return in, nil
}

func (f *consoleFrontend) Present(d *chip8.Display) error {
	_, err := f.out.Write(f.r.Render(d))
	return err
}
