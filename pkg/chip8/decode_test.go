package chip8

import "testing"

func TestField(t *testing.T) {
	tests := []struct {
		word   uint16
		pos    uint8
		length uint8
		want   uint16
	}{
		{0xD123, 0, 1, 0xD},
		{0xD123, 1, 3, 0x123},
		{0xD123, 1, 1, 0x1},
		{0xD123, 2, 1, 0x2},
		{0xD123, 3, 1, 0x3},
		{0xD123, 2, 2, 0x23},
		{0xD123, 0, 4, 0xD123},
		{0xD123, 0, 2, 0xD1},
		{0xFFFF, 1, 2, 0xFF},
		{0x0F00, 1, 1, 0xF},
		{0xF0FF, 1, 1, 0x0},
	}
	for _, tt := range tests {
		if got := Field(tt.word, tt.pos, tt.length); got != tt.want {
			t.Errorf("Field(0x%04X, %d, %d) = 0x%X, want 0x%X", tt.word, tt.pos, tt.length, got, tt.want)
		}
	}
}

// Every valid field must be independent of the bits outside it.
func TestFieldIgnoresUntouchedBits(t *testing.T) {
	for pos := uint8(0); pos < 4; pos++ {
		for length := uint8(1); pos+length <= 4; length++ {
			shift := (4 - (pos + length)) * 4
			mask := uint16((1<<(uint(length)*4))-1) << shift
			for _, base := range []uint16{0x0000, 0xFFFF, 0xA5A5, 0x1234} {
				a := Field(base&mask, pos, length)
				b := Field(base|^mask, pos, length)
				if a != Field(base, pos, length) || b != Field(base, pos, length) {
					t.Errorf("pos=%d len=%d base=0x%04X: field depends on outside bits", pos, length, base)
				}
			}
		}
	}
}

func TestFieldPanicsOnBadBounds(t *testing.T) {
	bad := []struct{ pos, length uint8 }{
		{0, 0},
		{5, 1},
		{2, 3},
		{4, 1},
		{3, 2},
		{4, 253},
		{255, 1},
	}
	for _, b := range bad {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("Field(_, %d, %d): expected panic", b.pos, b.length)
				}
			}()
			Field(0x1234, b.pos, b.length)
		}()
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		word uint16
		op   Op
	}{
		{0x00E0, OpCLS},
		{0x00EE, OpRET},
		{0x0123, OpSYS},
		{0x1ABC, OpJP},
		{0x2ABC, OpCALL},
		{0x3A12, OpSEImm},
		{0x4A12, OpSNEImm},
		{0x5AB0, OpSEReg},
		{0x6A12, OpLDImm},
		{0x7A12, OpADDImm},
		{0x8AB0, OpLDReg},
		{0x8AB1, OpOR},
		{0x8AB2, OpAND},
		{0x8AB3, OpXOR},
		{0x8AB4, OpADDReg},
		{0x8AB5, OpSUB},
		{0x8AB6, OpSHR},
		{0x8AB7, OpSUBN},
		{0x8ABE, OpSHL},
		{0x8AB8, OpInvalid},
		{0x9AB0, OpSNEReg},
		{0xA123, OpLDI},
		{0xB123, OpJPV0},
		{0xCA0F, OpRND},
		{0xDAB5, OpDRW},
		{0xEA9E, OpSKP},
		{0xEAA1, OpSKNP},
		{0xEA00, OpInvalid},
		{0xFA07, OpLDVxDT},
		{0xFA0A, OpLDKey},
		{0xFA15, OpLDDT},
		{0xFA18, OpLDST},
		{0xFA1E, OpADDI},
		{0xFA29, OpLDGlyph},
		{0xFA33, OpLDBCD},
		{0xFA55, OpStoreRegs},
		{0xFA65, OpLoadRegs},
		{0xFA99, OpInvalid},
	}
	for _, tt := range tests {
		if got := Decode(tt.word); got.Op != tt.op {
			t.Errorf("Decode(0x%04X).Op = %v, want %v", tt.word, got.Op, tt.op)
		}
	}
}

func TestDecodeOperands(t *testing.T) {
	ins := Decode(0xD4B7)
	if ins.X != 0x4 || ins.Y != 0xB || ins.N != 0x7 || ins.NN != 0xB7 || ins.NNN != 0x4B7 {
		t.Errorf("Decode(0xD4B7) operands = %+v", ins)
	}
	if ins.Word != 0xD4B7 {
		t.Errorf("Word: expected 0xD4B7, got 0x%04X", ins.Word)
	}
}
