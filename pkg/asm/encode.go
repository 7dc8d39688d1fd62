package asm

import (
	"fmt"
	"strings"
)

type encoder func(a *Assembler, p parsedLine) (uint16, error)

var instructionForms map[string]encoder

func init() {
	instructionForms = map[string]encoder{
		"CLS":  fixed(0x00E0),
		"RET":  fixed(0x00EE),
		"SYS":  addrForm(0x0000),
		"CALL": addrForm(0x2000),
		"JP":   encodeJP,
		"SE":   regOrByte(0x3000, 0x5000),
		"SNE":  regOrByte(0x4000, 0x9000),
		"OR":   regReg(0x8001),
		"AND":  regReg(0x8002),
		"XOR":  regReg(0x8003),
		"SUB":  regReg(0x8005),
		"SUBN": regReg(0x8007),
		"SHR":  shift(0x8006),
		"SHL":  shift(0x800E),
		"RND":  encodeRND,
		"DRW":  encodeDRW,
		"SKP":  regOnly(0xE09E),
		"SKNP": regOnly(0xE0A1),
		"ADD":  encodeADD,
		"LD":   encodeLD,
	}
}

func arity(p parsedLine, n int) error {
	if len(p.operands) != n {
		return fmt.Errorf("%s expects %d operands on line %d", p.mnemonic, n, p.lineNo)
	}
	return nil
}

func fixed(word uint16) encoder {
	return func(a *Assembler, p parsedLine) (uint16, error) {
		if err := arity(p, 0); err != nil {
			return 0, err
		}
		return word, nil
	}
}

func addrForm(base uint16) encoder {
	return func(a *Assembler, p parsedLine) (uint16, error) {
		if err := arity(p, 1); err != nil {
			return 0, err
		}
		addr, err := a.parseValue(p.operands[0], 0x0FFF, p.lineNo)
		if err != nil {
			return 0, err
		}
		return base | addr, nil
	}
}

func regOnly(base uint16) encoder {
	return func(a *Assembler, p parsedLine) (uint16, error) {
		if err := arity(p, 1); err != nil {
			return 0, err
		}
		x, err := parseRegister(p.operands[0], p.lineNo)
		if err != nil {
			return 0, err
		}
		return base | x<<8, nil
	}
}

func regReg(base uint16) encoder {
	return func(a *Assembler, p parsedLine) (uint16, error) {
		if err := arity(p, 2); err != nil {
			return 0, err
		}
		x, y, err := twoRegisters(p)
		if err != nil {
			return 0, err
		}
		return base | x<<8 | y<<4, nil
	}
}

// shift accepts both "SHR Vx" and "SHR Vx, Vy".
func shift(base uint16) encoder {
	return func(a *Assembler, p parsedLine) (uint16, error) {
		if len(p.operands) == 1 {
			return regOnly(base)(a, p)
		}
		return regReg(base)(a, p)
	}
}

func regOrByte(immBase, regBase uint16) encoder {
	return func(a *Assembler, p parsedLine) (uint16, error) {
		if err := arity(p, 2); err != nil {
			return 0, err
		}
		x, err := parseRegister(p.operands[0], p.lineNo)
		if err != nil {
			return 0, err
		}
		if isRegister(p.operands[1]) {
			y, _ := parseRegister(p.operands[1], p.lineNo)
			return regBase | x<<8 | y<<4, nil
		}
		nn, err := a.parseValue(p.operands[1], 0xFF, p.lineNo)
		if err != nil {
			return 0, err
		}
		return immBase | x<<8 | nn, nil
	}
}

func twoRegisters(p parsedLine) (uint16, uint16, error) {
	x, err := parseRegister(p.operands[0], p.lineNo)
	if err != nil {
		return 0, 0, err
	}
	y, err := parseRegister(p.operands[1], p.lineNo)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func encodeJP(a *Assembler, p parsedLine) (uint16, error) {
	if len(p.operands) == 2 {
		if !strings.EqualFold(p.operands[0], "V0") {
			return 0, fmt.Errorf("JP with offset must use V0 on line %d", p.lineNo)
		}
		addr, err := a.parseValue(p.operands[1], 0x0FFF, p.lineNo)
		if err != nil {
			return 0, err
		}
		return 0xB000 | addr, nil
	}
	return addrForm(0x1000)(a, p)
}

func encodeRND(a *Assembler, p parsedLine) (uint16, error) {
	if err := arity(p, 2); err != nil {
		return 0, err
	}
	x, err := parseRegister(p.operands[0], p.lineNo)
	if err != nil {
		return 0, err
	}
	nn, err := a.parseValue(p.operands[1], 0xFF, p.lineNo)
	if err != nil {
		return 0, err
	}
	return 0xC000 | x<<8 | nn, nil
}

func encodeDRW(a *Assembler, p parsedLine) (uint16, error) {
	if err := arity(p, 3); err != nil {
		return 0, err
	}
	x, y, err := twoRegisters(p)
	if err != nil {
		return 0, err
	}
	n, err := a.parseValue(p.operands[2], 0xF, p.lineNo)
	if err != nil {
		return 0, err
	}
	return 0xD000 | x<<8 | y<<4 | n, nil
}

func encodeADD(a *Assembler, p parsedLine) (uint16, error) {
	if err := arity(p, 2); err != nil {
		return 0, err
	}
	if strings.EqualFold(p.operands[0], "I") {
		x, err := parseRegister(p.operands[1], p.lineNo)
		if err != nil {
			return 0, err
		}
		return 0xF01E | x<<8, nil
	}
	return regOrByte(0x7000, 0x8004)(a, p)
}

// encodeLD covers every LD form. The special operands I, DT, ST, K, F, B
// and [I] select the F-family and ANNN encodings.
func encodeLD(a *Assembler, p parsedLine) (uint16, error) {
	if err := arity(p, 2); err != nil {
		return 0, err
	}
	dst, src := strings.ToUpper(p.operands[0]), strings.ToUpper(p.operands[1])

	fromReg := func(base uint16) (uint16, error) {
		x, err := parseRegister(p.operands[1], p.lineNo)
		if err != nil {
			return 0, err
		}
		return base | x<<8, nil
	}

	switch dst {
	case "I":
		addr, err := a.parseValue(p.operands[1], 0x0FFF, p.lineNo)
		if err != nil {
			return 0, err
		}
		return 0xA000 | addr, nil
	case "DT":
		return fromReg(0xF015)
	case "ST":
		return fromReg(0xF018)
	case "F":
		return fromReg(0xF029)
	case "B":
		return fromReg(0xF033)
	case "[I]":
		return fromReg(0xF055)
	}

	x, err := parseRegister(p.operands[0], p.lineNo)
	if err != nil {
		return 0, err
	}
	switch src {
	case "DT":
		return 0xF007 | x<<8, nil
	case "K":
		return 0xF00A | x<<8, nil
	case "[I]":
		return 0xF065 | x<<8, nil
	}
	return regOrByte(0x6000, 0x8000)(a, p)
}

func (a *Assembler) encode(p parsedLine) (uint16, error) {
	enc, ok := instructionForms[p.mnemonic]
	if !ok {
		return 0, fmt.Errorf("unknown instruction on line %d: %s", p.lineNo, p.mnemonic)
	}
	return enc(a, p)
}
