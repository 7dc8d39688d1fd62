// Package vfs keeps save-state slots in memory and mirrors them to a host
// directory on demand.
package vfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

// MaxDiskBytes caps the total size of all slots (1.44MB).
const MaxDiskBytes = 1474560

// Ext is the extension every slot file carries on the host.
const Ext = ".sav"

var (
	validName       = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,48}\.sav$`)
	unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
)

var (
	ErrSlotNotFound  = errors.New("slot not found")
	ErrInvalidName   = errors.New("invalid slot name")
	ErrQuotaExceeded = errors.New("disk quota exceeded")
)

type Entry struct {
	Data     []byte
	Modified time.Time
}

// Disk is an in-memory set of named slots. It is safe for concurrent use
// so a background syncer can persist it while the emulator writes.
type Disk struct {
	mu        sync.RWMutex
	files     map[string]*Entry
	dirty     map[string]bool
	usedBytes int
}

func NewDisk() *Disk {
	return &Disk{
		files: make(map[string]*Entry),
		dirty: make(map[string]bool),
	}
}

// SlotName builds a valid slot name for slot n of the given ROM path.
func SlotName(romPath string, n int) string {
	base := strings.TrimSuffix(filepath.Base(romPath), filepath.Ext(romPath))
	base = unsafeNameChars.ReplaceAllString(base, "_")
	if base == "" {
		base = "rom"
	}
	if len(base) > 40 {
		base = base[:40]
	}
	return fmt.Sprintf("%s-%d%s", base, n, Ext)
}

// Write stores a copy of data under name, replacing any previous slot.
func (d *Disk) Write(name string, data []byte) error {
	if !validName.MatchString(name) {
		return ErrInvalidName
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	oldSize := 0
	if existing, ok := d.files[name]; ok {
		oldSize = len(existing.Data)
	}
	if d.usedBytes-oldSize+len(data) > MaxDiskBytes {
		return ErrQuotaExceeded
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	d.files[name] = &Entry{Data: buf, Modified: time.Now()}
	d.dirty[name] = true
	d.usedBytes += len(data) - oldSize
	return nil
}

// Read returns the slot contents. The caller must not modify them.
func (d *Disk) Read(name string) ([]byte, error) {
	if !validName.MatchString(name) {
		return nil, ErrInvalidName
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	e, ok := d.files[name]
	if !ok {
		return nil, ErrSlotNotFound
	}
	return e.Data, nil
}

func (d *Disk) Delete(name string) error {
	if !validName.MatchString(name) {
		return ErrInvalidName
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.files[name]
	if !ok {
		return ErrSlotNotFound
	}
	d.usedBytes -= len(e.Data)
	delete(d.files, name)
	d.dirty[name] = true
	return nil
}

// List returns slot names in sorted order.
func (d *Disk) List() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.files))
	for name := range d.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d *Disk) UsedBytes() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.usedBytes
}

// Dirty reports whether any slot changed since the last successful persist.
func (d *Disk) Dirty() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.dirty) > 0
}

// LoadFrom reads every valid slot file in dir. A missing directory is not
// an error (first run).
func (d *Disk) LoadFrom(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !validName.MatchString(name) {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		if d.usedBytes+len(raw) > MaxDiskBytes {
			return ErrQuotaExceeded
		}
		modified := time.Now()
		if info, err := entry.Info(); err == nil {
			modified = info.ModTime()
		}
		d.files[name] = &Entry{Data: raw, Modified: modified}
		d.usedBytes += len(raw)
	}
	return nil
}

// PersistTo writes changed slots to dir and removes deleted ones,
// creating dir if needed. Slots that fail to write stay dirty. It returns
// the first error encountered.
func (d *Disk) PersistTo(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	d.mu.Lock()
	pending := make(map[string]*Entry, len(d.dirty))
	for name := range d.dirty {
		if e, ok := d.files[name]; ok {
			data := make([]byte, len(e.Data))
			copy(data, e.Data)
			pending[name] = &Entry{Data: data, Modified: e.Modified}
		} else {
			pending[name] = nil
		}
		delete(d.dirty, name)
	}
	d.mu.Unlock()

	var firstErr error
	for name, e := range pending {
		path := filepath.Join(dir, name)
		var err error
		if e == nil {
			if err = os.Remove(path); os.IsNotExist(err) {
				err = nil
			}
		} else if err = os.WriteFile(path, e.Data, 0644); err == nil {
			_ = os.Chtimes(path, time.Now(), e.Modified)
		}
		if err != nil {
			d.mu.Lock()
			d.dirty[name] = true
			d.mu.Unlock()
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
