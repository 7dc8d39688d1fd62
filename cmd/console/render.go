package main

import (
	"gochip8/pkg/chip8"
)

const (
	cursorHome = "\x1b[H"
	clearTerm  = "\x1b[2J"
	hideCursor = "\x1b[?25l"
	showCursor = "\x1b[?25h"
)

// Terminal cells needed to show the whole display.
const (
	minCols = chip8.DisplayWidth
	minRows = chip8.DisplayHeight / 2
)

// fitsTerminal reports whether a cols x rows terminal can show the display.
func fitsTerminal(cols, rows int) bool {
	return cols >= minCols && rows >= minRows
}

// renderer draws two CHIP-8 rows per terminal line using half blocks.
type renderer struct {
	buf []byte
}

func newRenderer() *renderer {
	return &renderer{buf: make([]byte, 0, 8*chip8.DisplayWidth*chip8.DisplayHeight/2)}
}

func cell(top, bottom bool) string {
	switch {
	case top && bottom:
		return "█"
	case top:
		return "▀"
	case bottom:
		return "▄"
	}
	return " "
}

// Render returns the escape sequence that repaints the whole display from
// the top left corner. The returned slice is reused by the next call.
func (r *renderer) Render(d *chip8.Display) []byte {
	r.buf = append(r.buf[:0], cursorHome...)
	for y := 0; y < chip8.DisplayHeight; y += 2 {
		for x := 0; x < chip8.DisplayWidth; x++ {
			r.buf = append(r.buf, cell(d.Pixel(x, y), d.Pixel(x, y+1))...)
		}
		r.buf = append(r.buf, '\r', '\n')
	}
	return r.buf
}
