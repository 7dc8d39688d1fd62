//go:build unix

package main

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// terminalHost puts stdin into raw, non-blocking mode and forwards every
// byte read to Bytes. Close restores the terminal.
type terminalHost struct {
	fd       int
	oldState *term.State
	bytes    chan byte
	stopCh   chan struct{}
	done     chan struct{}
	stopped  sync.Once
}

func openTerminal() (*terminalHost, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("stdin is not a terminal")
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("set raw mode: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = term.Restore(fd, oldState)
		return nil, fmt.Errorf("set nonblocking stdin: %w", err)
	}

	h := &terminalHost{
		fd:       fd,
		oldState: oldState,
		bytes:    make(chan byte, 256),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go h.readLoop()
	return h, nil
}

func (h *terminalHost) readLoop() {
	defer close(h.done)
	buf := make([]byte, 64)

	for {
		select {
		case <-h.stopCh:
			return
		default:
		}

		n, err := unix.Read(h.fd, buf)
		for i := 0; i < n; i++ {
			select {
			case h.bytes <- buf[i]:
			default:
				// Nobody is polling fast enough; drop input rather than block.
			}
		}
		if err == unix.EAGAIN || err == unix.EINTR || (err == nil && n == 0) {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			return
		}
	}
}

// Bytes is the stream of raw input bytes.
func (h *terminalHost) Bytes() <-chan byte {
	return h.bytes
}

// Size returns the terminal size in columns and rows.
func (h *terminalHost) Size() (int, int, error) {
	return term.GetSize(int(os.Stdout.Fd()))
}

func (h *terminalHost) Close() error {
	h.stopped.Do(func() {
		close(h.stopCh)
	})
	<-h.done
	if err := unix.SetNonblock(h.fd, false); err != nil {
		return err
	}
	return term.Restore(h.fd, h.oldState)
}
