package chip8

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// snapshotVersion is bumped whenever the archive layout changes.
const snapshotVersion = 1

// machineState is the JSON part of a snapshot. Memory and the display
// bitmap are stored as separate binary entries.
type machineState struct {
	Version      int                `json:"version"`
	V            [NumRegisters]byte `json:"v"`
	I            uint16             `json:"i"`
	PC           uint16             `json:"pc"`
	SP           uint8              `json:"sp"`
	Stack        [StackDepth]uint16 `json:"stack"`
	DT           byte               `json:"dt"`
	ST           byte               `json:"st"`
	Waiting      bool               `json:"waiting"`
	WaitRegister uint8              `json:"wait_register"`
	Quirks       Quirks             `json:"quirks"`
}

// SaveState writes the complete machine state as a ZIP archive holding
// machine.json, memory.bin and display.bin.
func (m *Machine) SaveState(w io.Writer) error {
	zw := zip.NewWriter(w)

	state := machineState{
		Version:      snapshotVersion,
		V:            m.V,
		I:            m.I,
		PC:           m.PC,
		SP:           m.SP,
		Stack:        m.Stack,
		DT:           m.DT,
		ST:           m.ST,
		Waiting:      m.Waiting,
		WaitRegister: m.WaitRegister,
		Quirks:       m.Quirks,
	}
	jsonData, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal machine state: %w", err)
	}
	if err := writeZipEntry(zw, "machine.json", jsonData); err != nil {
		return err
	}
	if err := writeZipEntry(zw, "memory.bin", m.Memory[:]); err != nil {
		return err
	}
	if err := writeZipEntry(zw, "display.bin", m.Display.Pixels[:]); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	return nil
}

// SaveStateBytes is SaveState into a fresh buffer.
func (m *Machine) SaveStateBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := m.SaveState(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RestoreState replaces the machine state with a snapshot produced by
// SaveState. The machine is left untouched if the archive is invalid.
// The restored machine counts as loaded and its display as dirty.
func (m *Machine) RestoreState(data []byte) error {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	files := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		files[f.Name] = f
	}

	jsonData, err := readZipEntry(files, "machine.json")
	if err != nil {
		return err
	}
	var state machineState
	if err := json.Unmarshal(jsonData, &state); err != nil {
		return fmt.Errorf("%w: unmarshal machine state: %v", ErrBadSnapshot, err)
	}
	if state.Version != snapshotVersion {
		return fmt.Errorf("%w: version %d", ErrBadSnapshot, state.Version)
	}
	if int(state.SP) > StackDepth || state.WaitRegister >= NumRegisters {
		return fmt.Errorf("%w: sp=%d wait_register=%d", ErrBadSnapshot, state.SP, state.WaitRegister)
	}

	mem, err := readZipEntry(files, "memory.bin")
	if err != nil {
		return err
	}
	pixels, err := readZipEntry(files, "display.bin")
	if err != nil {
		return err
	}
	if len(mem) != MemorySize || len(pixels) != DisplayWidth*DisplayHeight {
		return fmt.Errorf("%w: memory %d bytes, display %d bytes", ErrBadSnapshot, len(mem), len(pixels))
	}
	for i, p := range pixels {
		if p > 1 {
			return fmt.Errorf("%w: display byte %d is 0x%02X", ErrBadSnapshot, i, p)
		}
	}

	m.V = state.V
	m.I = state.I
	m.PC = state.PC
	m.SP = state.SP
	m.Stack = state.Stack
	m.DT = state.DT
	m.ST = state.ST
	m.Waiting = state.Waiting
	m.WaitRegister = state.WaitRegister
	m.Quirks = state.Quirks
	copy(m.Memory[:], mem)
	copy(m.Display.Pixels[:], pixels)
	m.Display.Dirty = true
	m.loaded = true
	return nil
}

func (m *Machine) SaveStateFile(path string) error {
	data, err := m.SaveStateBytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (m *Machine) RestoreStateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return m.RestoreState(data)
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create zip entry %q: %w", name, err)
	}
	_, err = w.Write(data)
	return err
}

func readZipEntry(files map[string]*zip.File, name string) ([]byte, error) {
	f, ok := files[name]
	if !ok {
		return nil, fmt.Errorf("%w: zip entry %q not found", ErrBadSnapshot, name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open zip entry %q: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
