package chip8

import (
	"errors"
	"fmt"
)

var (
	ErrROMTooLarge    = errors.New("program too large for memory")
	ErrROMLoaded      = errors.New("program already loaded")
	ErrNoProgram      = errors.New("no program loaded")
	ErrStackOverflow  = errors.New("stack overflow")
	ErrStackUnderflow = errors.New("stack underflow")
	ErrProtectedWrite = errors.New("write to interpreter memory")
	ErrUnknownOpcode  = errors.New("unhandled opcode")
	ErrBadSnapshot    = errors.New("invalid snapshot")
)

// OpcodeError reports an instruction word whose sub-selector matches no
// known instruction.
type OpcodeError struct {
	Word uint16
	PC   uint16
}

func (e *OpcodeError) Error() string {
	return fmt.Sprintf("unhandled opcode %04X at 0x%03X", e.Word, e.PC)
}

func (e *OpcodeError) Is(target error) bool {
	return target == ErrUnknownOpcode
}
