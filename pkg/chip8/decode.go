package chip8

import "fmt"

const nibblesPerWord = 4

// Field extracts length nibbles of word starting at nibble pos (0 is the
// most significant), right-justified. Field(0xD123, 1, 3) == 0x123.
// Out-of-range arguments are a programming error and panic.
func Field(word uint16, pos, length uint8) uint16 {
	if length == 0 || int(pos)+int(length) > nibblesPerWord {
		panic(fmt.Sprintf("chip8: invalid field pos=%d len=%d", pos, length))
	}
	shift := (nibblesPerWord - (pos + length)) * 4
	mask := uint16(1)<<(length*4) - 1
	return (word >> shift) & mask
}

type Op uint8

const (
	OpInvalid Op = iota
	OpSYS        // 0NNN
	OpCLS        // 00E0
	OpRET        // 00EE
	OpJP         // 1NNN
	OpCALL       // 2NNN
	OpSEImm      // 3XNN
	OpSNEImm     // 4XNN
	OpSEReg      // 5XY0
	OpLDImm      // 6XNN
	OpADDImm     // 7XNN
	OpLDReg      // 8XY0
	OpOR         // 8XY1
	OpAND        // 8XY2
	OpXOR        // 8XY3
	OpADDReg     // 8XY4
	OpSUB        // 8XY5
	OpSHR        // 8XY6
	OpSUBN       // 8XY7
	OpSHL        // 8XYE
	OpSNEReg     // 9XY0
	OpLDI        // ANNN
	OpJPV0       // BNNN
	OpRND        // CXNN
	OpDRW        // DXYN
	OpSKP        // EX9E
	OpSKNP       // EXA1
	OpLDVxDT     // FX07
	OpLDKey      // FX0A
	OpLDDT       // FX15
	OpLDST       // FX18
	OpADDI       // FX1E
	OpLDGlyph    // FX29
	OpLDBCD      // FX33
	OpStoreRegs  // FX55
	OpLoadRegs   // FX65
)

var opNames = [...]string{
	OpInvalid:   "???",
	OpSYS:       "SYS",
	OpCLS:       "CLS",
	OpRET:       "RET",
	OpJP:        "JP",
	OpCALL:      "CALL",
	OpSEImm:     "SE",
	OpSNEImm:    "SNE",
	OpSEReg:     "SE",
	OpLDImm:     "LD",
	OpADDImm:    "ADD",
	OpLDReg:     "LD",
	OpOR:        "OR",
	OpAND:       "AND",
	OpXOR:       "XOR",
	OpADDReg:    "ADD",
	OpSUB:       "SUB",
	OpSHR:       "SHR",
	OpSUBN:      "SUBN",
	OpSHL:       "SHL",
	OpSNEReg:    "SNE",
	OpLDI:       "LD I",
	OpJPV0:      "JP V0",
	OpRND:       "RND",
	OpDRW:       "DRW",
	OpSKP:       "SKP",
	OpSKNP:      "SKNP",
	OpLDVxDT:    "LD DT",
	OpLDKey:     "LD K",
	OpLDDT:      "LD DT",
	OpLDST:      "LD ST",
	OpADDI:      "ADD I",
	OpLDGlyph:   "LD F",
	OpLDBCD:     "LD B",
	OpStoreRegs: "LD [I]",
	OpLoadRegs:  "LD [I]",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", o)
}

// Instruction is one decoded instruction word. Fields that the opcode
// does not use are still populated from their nibble positions.
type Instruction struct {
	Op   Op
	Word uint16
	X    uint8  // second nibble
	Y    uint8  // third nibble
	N    uint8  // fourth nibble
	NN   uint8  // low byte
	NNN  uint16 // low 12 bits
}

// Decode turns a word into an Instruction. Words whose sub-selector is
// unknown decode to OpInvalid; executing one yields an *OpcodeError.
func Decode(word uint16) Instruction {
	ins := Instruction{
		Word: word,
		X:    uint8(Field(word, 1, 1)),
		Y:    uint8(Field(word, 2, 1)),
		N:    uint8(Field(word, 3, 1)),
		NN:   uint8(Field(word, 2, 2)),
		NNN:  Field(word, 1, 3),
	}

	switch Field(word, 0, 1) {
	case 0x0:
		switch word {
		case 0x00E0:
			ins.Op = OpCLS
		case 0x00EE:
			ins.Op = OpRET
		default:
			ins.Op = OpSYS
		}
	case 0x1:
		ins.Op = OpJP
	case 0x2:
		ins.Op = OpCALL
	case 0x3:
		ins.Op = OpSEImm
	case 0x4:
		ins.Op = OpSNEImm
	case 0x5:
		ins.Op = OpSEReg
	case 0x6:
		ins.Op = OpLDImm
	case 0x7:
		ins.Op = OpADDImm
	case 0x8:
		switch ins.N {
		case 0x0:
			ins.Op = OpLDReg
		case 0x1:
			ins.Op = OpOR
		case 0x2:
			ins.Op = OpAND
		case 0x3:
			ins.Op = OpXOR
		case 0x4:
			ins.Op = OpADDReg
		case 0x5:
			ins.Op = OpSUB
		case 0x6:
			ins.Op = OpSHR
		case 0x7:
			ins.Op = OpSUBN
		case 0xE:
			ins.Op = OpSHL
		}
	case 0x9:
		ins.Op = OpSNEReg
	case 0xA:
		ins.Op = OpLDI
	case 0xB:
		ins.Op = OpJPV0
	case 0xC:
		ins.Op = OpRND
	case 0xD:
		ins.Op = OpDRW
	case 0xE:
		switch ins.NN {
		case 0x9E:
			ins.Op = OpSKP
		case 0xA1:
			ins.Op = OpSKNP
		}
	case 0xF:
		switch ins.NN {
		case 0x07:
			ins.Op = OpLDVxDT
		case 0x0A:
			ins.Op = OpLDKey
		case 0x15:
			ins.Op = OpLDDT
		case 0x18:
			ins.Op = OpLDST
		case 0x1E:
			ins.Op = OpADDI
		case 0x29:
			ins.Op = OpLDGlyph
		case 0x33:
			ins.Op = OpLDBCD
		case 0x55:
			ins.Op = OpStoreRegs
		case 0x65:
			ins.Op = OpLoadRegs
		}
	}
	return ins
}

func (ins Instruction) String() string {
	return fmt.Sprintf("%04X %s", ins.Word, ins.Op)
}
