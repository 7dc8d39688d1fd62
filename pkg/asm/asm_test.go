package asm

import (
	"reflect"
	"strings"
	"testing"

	"gochip8/pkg/chip8"
)

// encodeWords converts words to the big-endian bytes of a ROM image.
func encodeWords(words ...uint16) []byte {
	out := make([]byte, len(words)*2)
	for i, w := range words {
		out[i*2] = byte(w >> 8)
		out[i*2+1] = byte(w)
	}
	return out
}

func TestHelperFunctions(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"abc", true},
		{"_abc", true},
		{"abc1", true},
		{"1abc", false},
		{"", false},
		{"ab-c", false},
	}
	for _, tc := range tests {
		if got := isIdentifier(tc.input); got != tc.want {
			t.Errorf("isIdentifier(%q) = %v; want %v", tc.input, got, tc.want)
		}
	}

	if got := normalizeLabel("label"); got != "LABEL" {
		t.Errorf("normalizeLabel(\"label\") = %q; want \"LABEL\"", got)
	}

	regTests := []struct {
		token string
		want  uint16
		ok    bool
	}{
		{"V0", 0, true},
		{"va", 0xA, true},
		{"VF", 0xF, true},
		{"VG", 0, false},
		{"V10", 0, false},
		{"R0", 0, false},
	}
	for _, tc := range regTests {
		got, err := parseRegister(tc.token, 1)
		if (err == nil) != tc.ok || got != tc.want {
			t.Errorf("parseRegister(%q) = %d, %v; want %d, ok=%v", tc.token, got, err, tc.want, tc.ok)
		}
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line    string
		want    parsedLine
		wantErr bool
	}{
		{
			"LD V0, 5",
			parsedLine{lineNo: 1, mnemonic: "LD", operands: []string{"V0", "5"}},
			false,
		},
		{
			"  drw v1, v2, 5  ; comment",
			parsedLine{lineNo: 1, mnemonic: "DRW", operands: []string{"v1", "v2", "5"}},
			false,
		},
		{
			"loop: JP loop // spin",
			parsedLine{lineNo: 1, labels: []string{"loop"}, mnemonic: "JP", operands: []string{"loop"}},
			false,
		},
		{
			"a: b:",
			parsedLine{lineNo: 1, labels: []string{"a", "b"}},
			false,
		},
		{
			"; only a comment",
			parsedLine{lineNo: 1},
			false,
		},
		{
			"1bad: CLS",
			parsedLine{},
			true,
		},
	}

	for _, tc := range tests {
		got, err := parseLine(tc.line, 1)
		if (err != nil) != tc.wantErr {
			t.Errorf("parseLine(%q) error = %v; wantErr %v", tc.line, err, tc.wantErr)
			continue
		}
		if tc.wantErr {
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("parseLine(%q) = %+v; want %+v", tc.line, got, tc.want)
		}
	}
}

func TestAssembleInstructions(t *testing.T) {
	tests := []struct {
		src  string
		want uint16
	}{
		{"CLS", 0x00E0},
		{"RET", 0x00EE},
		{"SYS 0x123", 0x0123},
		{"JP 0x2A8", 0x12A8},
		{"JP V0, 0x300", 0xB300},
		{"CALL 0x400", 0x2400},
		{"SE V3, 0x42", 0x3342},
		{"SE V3, V4", 0x5340},
		{"SNE VA, 7", 0x4A07},
		{"SNE VA, VB", 0x9AB0},
		{"LD V5, 0xFF", 0x65FF},
		{"LD V5, V6", 0x8560},
		{"ADD V1, 1", 0x7101},
		{"ADD V1, V2", 0x8124},
		{"OR V1, V2", 0x8121},
		{"AND V1, V2", 0x8122},
		{"XOR V1, V2", 0x8123},
		{"SUB V1, V2", 0x8125},
		{"SHR V1", 0x8106},
		{"SHR V1, V2", 0x8126},
		{"SUBN V1, V2", 0x8127},
		{"SHL V1", 0x810E},
		{"LD I, 0x250", 0xA250},
		{"RND V2, 0x0F", 0xC20F},
		{"DRW V0, V1, 5", 0xD015},
		{"SKP V4", 0xE49E},
		{"SKNP V4", 0xE4A1},
		{"LD V7, DT", 0xF707},
		{"LD V7, K", 0xF70A},
		{"LD DT, V7", 0xF715},
		{"LD ST, V7", 0xF718},
		{"ADD I, V7", 0xF71E},
		{"LD F, V7", 0xF729},
		{"LD B, V7", 0xF733},
		{"LD [I], V7", 0xF755},
		{"LD V7, [I]", 0xF765},
		{"ld v7, [i]", 0xF765},
	}

	for _, tc := range tests {
		code, _, err := Assemble(tc.src)
		if err != nil {
			t.Errorf("Assemble(%q) error: %v", tc.src, err)
			continue
		}
		if want := encodeWords(tc.want); !reflect.DeepEqual(code, want) {
			t.Errorf("Assemble(%q) = % X; want % X", tc.src, code, want)
		}
	}
}

func TestAssembleDecodesToSameOp(t *testing.T) {
	tests := []struct {
		src string
		op  chip8.Op
	}{
		{"SE V1, V2", chip8.OpSEReg},
		{"LD V1, DT", chip8.OpLDVxDT},
		{"LD DT, V1", chip8.OpLDDT},
		{"LD [I], V1", chip8.OpStoreRegs},
		{"LD V1, [I]", chip8.OpLoadRegs},
		{"JP V0, 0x200", chip8.OpJPV0},
	}
	for _, tc := range tests {
		code, _, err := Assemble(tc.src)
		if err != nil {
			t.Fatalf("Assemble(%q): %v", tc.src, err)
		}
		ins := chip8.Decode(uint16(code[0])<<8 | uint16(code[1]))
		if ins.Op != tc.op {
			t.Errorf("%q decoded to %v; want %v", tc.src, ins.Op, tc.op)
		}
	}
}

func TestAssembleLabelsAndDirectives(t *testing.T) {
	src := `
start:
	LD I, sprite     ; 0x200
	DRW V0, V1, 2    ; 0x202
loop:	JP loop          ; 0x204
sprite:
	.BYTE 0b11000000, 0xC0   ; 0x206
	.WORD 0x1234     ; 0x208
.ORG 0x20E
	JP start         ; 0x20E
`
	code, sourceMap, err := Assemble(src)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	want := encodeWords(0xA206, 0xD012, 0x1204)
	want = append(want, 0xC0, 0xC0, 0x12, 0x34, 0, 0, 0, 0)
	want = append(want, encodeWords(0x1200)...)
	if !reflect.DeepEqual(code, want) {
		t.Fatalf("Assemble = % X; want % X", code, want)
	}

	mapTests := []struct {
		addr uint16
		line int
	}{
		{0x200, 3},
		{0x202, 4},
		{0x204, 5},
		{0x206, 7},
		{0x208, 8},
		{0x20E, 10},
	}
	for _, tc := range mapTests {
		if got := sourceMap[tc.addr]; got != tc.line {
			t.Errorf("sourceMap[0x%03X] = %d; want %d", tc.addr, got, tc.line)
		}
	}
}

func TestAssembleRunsOnMachine(t *testing.T) {
	src := `
	LD V0, 3
	LD V1, 4
	CALL add
	LD I, 0x300
	LD B, V2
	LD V3, [I]   ; V0..V3 = digits of V2
done: JP done
add:
	LD V2, V0
	ADD V2, V1
	RET
`
	code, _, err := Assemble(src)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	m := chip8.New()
	if err := m.LoadROM(code); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	for i := 0; i < 20; i++ {
		if err := m.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if m.V[2] != 7 {
		t.Errorf("V2 = %d; want 7", m.V[2])
	}
	if m.V[0] != 0 || m.V[1] != 0 || m.V[2] != 7 {
		t.Errorf("BCD digits = %d %d %d; want 0 0 7", m.V[0], m.V[1], m.V[2])
	}
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		src     string
		wantErr string
	}{
		{"FOO V1", "unknown instruction on line 1"},
		{"JP nowhere", "undefined label 'nowhere' on line 1"},
		{"a:\na: CLS", "duplicate label 'a' on line 2"},
		{"LD V1", "LD expects 2 operands on line 1"},
		{"LD V1, 0x100", "immediate out of range on line 1"},
		{"DRW V0, V1, 16", "immediate out of range on line 1"},
		{"JP 0x1000", "immediate out of range on line 1"},
		{"LD R1, 2", "invalid register 'R1' on line 1"},
		{"JP V1, 0x200", "JP with offset must use V0 on line 1"},
		{".ORG 0x100", "cannot move origin backward on line 1"},
		{".ORG 0x1000", ".ORG out of range on line 1"},
		{".BYTE", ".BYTE expects at least one operand on line 1"},
		{".ORG 0xFFF\nCLS", "program too large near line 2"},
	}

	for _, tc := range tests {
		_, _, err := Assemble(tc.src)
		if err == nil {
			t.Errorf("Assemble(%q): expected error", tc.src)
			continue
		}
		if !strings.Contains(err.Error(), tc.wantErr) {
			t.Errorf("Assemble(%q) error = %q; want it to contain %q", tc.src, err, tc.wantErr)
		}
	}
}
