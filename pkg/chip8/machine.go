package chip8

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
)

const (
	MemorySize   = 4096
	ProgramStart = 0x200
	StackDepth   = 16
	NumRegisters = 16
	NumKeys      = 16

	// FontStart is where the built-in hexadecimal glyphs live.
	FontStart   = 0x000
	GlyphHeight = 5

	addrMask = 0x0FFF
)

// RegF is the flag register written by carry, borrow, shift and draw opcodes.
const RegF = 0xF

var fontGlyphs = [NumKeys * GlyphHeight]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Quirks selects between behaviours that differ across interpreters.
type Quirks struct {
	// WrapSprites wraps sprite pixels that fall past the right or bottom
	// edge back onto the opposite edge. When false they are clipped.
	WrapSprites bool `json:"wrap_sprites"`
}

// Keypad answers whether a logical key (0x0-0xF) is currently held.
// The machine never owns key state; the front end hands it a Keypad.
type Keypad interface {
	IsDown(key byte) bool
}

// KeyState is a snapshot of the 16 logical keys.
type KeyState [NumKeys]bool

func (k *KeyState) IsDown(key byte) bool {
	if int(key) >= len(k) {
		return false
	}
	return k[key]
}

// Machine is the complete interpreter state. It is owned by a single
// goroutine; nothing in this package locks.
type Machine struct {
	Memory [MemorySize]byte

	V  [NumRegisters]byte
	I  uint16
	PC uint16

	SP    uint8
	Stack [StackDepth]uint16

	DT byte
	ST byte

	Display Display

	Keys Keypad

	// Waiting is set by FX0A. While it holds, Step executes nothing and
	// PressKey stores the key into V[WaitRegister].
	Waiting      bool
	WaitRegister uint8

	Quirks Quirks

	Logger *slog.Logger

	loaded bool
	random func() byte
}

type Option func(*Machine)

// WithRand replaces the byte source used by CXNN.
func WithRand(fn func() byte) Option {
	return func(m *Machine) { m.random = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) { m.Logger = l }
}

func WithQuirks(q Quirks) Option {
	return func(m *Machine) { m.Quirks = q }
}

func WithKeypad(k Keypad) Option {
	return func(m *Machine) { m.Keys = k }
}

// New creates a machine with the glyph sprites installed and PC at 0x200.
func New(opts ...Option) *Machine {
	m := &Machine{}
	m.Reset()
	for _, opt := range opts {
		opt(m)
	}
	if m.Logger == nil {
		m.Logger = slog.Default()
	}
	if m.random == nil {
		m.random = func() byte { return byte(rand.UintN(256)) }
	}
	if m.Keys == nil {
		m.Keys = &KeyState{}
	}
	return m
}

// Reset returns the machine to its freshly initialised state. Options
// given to New are kept; a loaded program is discarded.
func (m *Machine) Reset() {
	m.Memory = [MemorySize]byte{}
	copy(m.Memory[FontStart:], fontGlyphs[:])
	m.V = [NumRegisters]byte{}
	m.I = 0
	m.PC = ProgramStart
	m.SP = 0
	m.Stack = [StackDepth]uint16{}
	m.DT = 0
	m.ST = 0
	m.Display.Clear()
	m.Waiting = false
	m.WaitRegister = 0
	m.loaded = false
}

// LoadROM copies rom verbatim into program space. A machine accepts one
// program for its lifetime; call Reset to load another.
func (m *Machine) LoadROM(rom []byte) error {
	if m.loaded {
		return ErrROMLoaded
	}
	if len(rom) > MemorySize-ProgramStart {
		return fmt.Errorf("%w: %d bytes > %d bytes", ErrROMTooLarge, len(rom), MemorySize-ProgramStart)
	}
	copy(m.Memory[ProgramStart:], rom)
	m.loaded = true
	return nil
}

func (m *Machine) Loaded() bool {
	return m.loaded
}

// TickTimers decrements both timers once, stopping at zero. Called once
// per frame by the scheduler, never per instruction.
func (m *Machine) TickTimers() {
	if m.DT > 0 {
		m.DT--
	}
	if m.ST > 0 {
		m.ST--
	}
}

// SoundActive reports whether the sound timer is running.
func (m *Machine) SoundActive() bool {
	return m.ST > 0
}

// PressKey delivers a key-press event. It only has an effect while the
// machine is waiting in FX0A; keys outside 0x0-0xF are ignored.
func (m *Machine) PressKey(key byte) bool {
	if !m.Waiting || key >= NumKeys {
		return false
	}
	m.V[m.WaitRegister] = key
	m.Waiting = false
	return true
}

// Opcode returns the big-endian instruction word at addr.
func (m *Machine) Opcode(addr uint16) uint16 {
	hi := uint16(m.Memory[addr&addrMask])
	lo := uint16(m.Memory[(addr+1)&addrMask])
	return hi<<8 | lo
}

func (m *Machine) read(addr uint16) byte {
	return m.Memory[addr&addrMask]
}

// checkWritable fails if any of the n bytes from addr, after wrapping to
// 12 bits, falls in interpreter memory.
func (m *Machine) checkWritable(addr, n uint16) error {
	for i := uint16(0); i < n; i++ {
		if a := (addr + i) & addrMask; a < ProgramStart {
			return fmt.Errorf("%w: 0x%03X", ErrProtectedWrite, a)
		}
	}
	return nil
}
