// Package keymap holds the fixed table between the 16-key hexadecimal
// keypad and keys on a host keyboard.
package keymap

import "unicode"

// Layout lists the host key for each logical key, in logical order:
// logical key 0x0 is '1', 0x4 is 'q', 0xF is 'v'.
//
//	1 2 3 4
//	q w e r
//	a s d f
//	z x c v
const Layout = "1234qwerasdfzxcv"

// Logical returns the logical key for a host character. Letters match
// in either case.
func Logical(r rune) (byte, bool) {
	r = unicode.ToLower(r)
	for i, c := range Layout {
		if c == r {
			return byte(i), true
		}
	}
	return 0, false
}

// Physical returns the host character for a logical key.
func Physical(key byte) (rune, bool) {
	if int(key) >= len(Layout) {
		return 0, false
	}
	return rune(Layout[key]), true
}
