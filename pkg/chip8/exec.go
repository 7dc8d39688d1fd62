package chip8

import (
	"context"
	"fmt"
	"log/slog"
)

// Step fetches, decodes and executes the instruction at PC. While the
// machine is waiting for a key it does nothing.
func (m *Machine) Step() error {
	if m.Waiting {
		return nil
	}
	ins := Decode(m.Opcode(m.PC))

	if m.Logger.Enabled(context.Background(), slog.LevelDebug) {
		m.Logger.Debug("exec",
			"pc", fmt.Sprintf("0x%03X", m.PC),
			"opcode", fmt.Sprintf("%04X", ins.Word),
			"op", ins.Op.String(),
		)
	}

	return m.Execute(ins)
}

// Execute applies one decoded instruction to the machine and advances PC
// by 2 unless the instruction redirected control flow. On error the
// machine state is left as it was when the fault was detected.
func (m *Machine) Execute(ins Instruction) error {
	jumped := false
	x, y := ins.X, ins.Y

	switch ins.Op {
	case OpSYS:
		// Machine-code routines are not supported.

	case OpCLS:
		m.Display.Clear()

	case OpRET:
		if m.SP == 0 {
			return fmt.Errorf("%w at 0x%03X", ErrStackUnderflow, m.PC)
		}
		m.SP--
		m.PC = m.Stack[m.SP]

	case OpJP:
		m.jump(ins.NNN)
		jumped = true

	case OpCALL:
		if int(m.SP) >= StackDepth {
			return fmt.Errorf("%w at 0x%03X", ErrStackOverflow, m.PC)
		}
		m.Stack[m.SP] = m.PC
		m.SP++
		m.jump(ins.NNN)
		jumped = true

	case OpSEImm:
		if m.V[x] == ins.NN {
			m.PC += 2
		}

	case OpSNEImm:
		if m.V[x] != ins.NN {
			m.PC += 2
		}

	case OpSEReg:
		if m.V[x] == m.V[y] {
			m.PC += 2
		}

	case OpSNEReg:
		if m.V[x] != m.V[y] {
			m.PC += 2
		}

	case OpLDImm:
		m.V[x] = ins.NN

	case OpADDImm:
		m.V[x] += ins.NN

	case OpLDReg:
		m.V[x] = m.V[y]

	case OpOR:
		m.V[x] |= m.V[y]

	case OpAND:
		m.V[x] &= m.V[y]

	case OpXOR:
		m.V[x] ^= m.V[y]

	case OpADDReg:
		sum := uint16(m.V[x]) + uint16(m.V[y])
		m.V[x] = byte(sum)
		m.V[RegF] = flag(sum > 0xFF)

	case OpSUB:
		vx, vy := m.V[x], m.V[y]
		m.V[x] = vx - vy
		m.V[RegF] = flag(vx > vy)

	case OpSHR:
		vx := m.V[x]
		m.V[x] = vx >> 1
		m.V[RegF] = vx & 0x01

	case OpSUBN:
		vx, vy := m.V[x], m.V[y]
		m.V[x] = vy - vx
		m.V[RegF] = flag(vy > vx)

	case OpSHL:
		vx := m.V[x]
		m.V[x] = vx << 1
		m.V[RegF] = vx >> 7

	case OpLDI:
		m.I = ins.NNN

	case OpJPV0:
		m.jump(ins.NNN + uint16(m.V[0]))
		jumped = true

	case OpRND:
		m.V[x] = m.random() & ins.NN

	case OpDRW:
		rows := make([]byte, ins.N)
		for i := range rows {
			rows[i] = m.read(m.I + uint16(i))
		}
		vx, vy := m.V[x], m.V[y]
		m.V[RegF] = 0
		if m.Display.DrawSprite(vx, vy, rows, m.Quirks.WrapSprites) {
			m.V[RegF] = 1
		}

	case OpSKP:
		if m.Keys.IsDown(m.V[x] & 0x0F) {
			m.PC += 2
		}

	case OpSKNP:
		if !m.Keys.IsDown(m.V[x] & 0x0F) {
			m.PC += 2
		}

	case OpLDVxDT:
		m.V[x] = m.DT

	case OpLDKey:
		m.Waiting = true
		m.WaitRegister = x
		// Nothing else is drawn until a key arrives, so the current frame
		// must be presented now.
		m.Display.Dirty = true

	case OpLDDT:
		m.DT = m.V[x]

	case OpLDST:
		m.ST = m.V[x]

	case OpADDI:
		sum := m.I + uint16(m.V[x])
		m.I = sum
		m.V[RegF] = flag(sum > addrMask)

	case OpLDGlyph:
		m.I = FontStart + uint16(m.V[x])*GlyphHeight

	case OpLDBCD:
		v := m.V[x]
		if err := m.checkWritable(m.I, 3); err != nil {
			return err
		}
		digits := [3]byte{v / 100, (v / 10) % 10, v % 10}
		for i, d := range digits {
			m.Memory[(m.I+uint16(i))&addrMask] = d
		}

	case OpStoreRegs:
		if err := m.checkWritable(m.I, uint16(x)+1); err != nil {
			return err
		}
		for i := uint16(0); i <= uint16(x); i++ {
			m.Memory[(m.I+i)&addrMask] = m.V[i]
		}

	case OpLoadRegs:
		for i := uint16(0); i <= uint16(x); i++ {
			m.V[i] = m.read(m.I + i)
		}

	default:
		return &OpcodeError{Word: ins.Word, PC: m.PC}
	}

	if !jumped {
		m.PC += 2
	}
	return nil
}

func (m *Machine) jump(addr uint16) {
	if addr&addrMask < ProgramStart {
		m.Logger.Warn("jump into interpreter memory",
			"pc", fmt.Sprintf("0x%03X", m.PC),
			"target", fmt.Sprintf("0x%03X", addr),
		)
	}
	m.PC = addr & addrMask
}

func flag(b bool) byte {
	if b {
		return 1
	}
	return 0
}
