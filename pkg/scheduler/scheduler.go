// Package scheduler drives a chip8.Machine at a fixed number of
// instructions per display frame, decays its timers once per frame and
// paces frames against the wall clock.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gochip8/pkg/chip8"
)

const (
	DefaultStepsPerFrame = 9
	DefaultFrameRate     = 60
)

type Config struct {
	// StepsPerFrame is the number of instructions executed per frame.
	StepsPerFrame int
	// FrameRate is the target number of frames per second. Timers decay
	// at this rate.
	FrameRate int
	// Unthrottled disables the frame-pacing sleep.
	Unthrottled bool
}

func DefaultConfig() Config {
	return Config{
		StepsPerFrame: DefaultStepsPerFrame,
		FrameRate:     DefaultFrameRate,
	}
}

func (c Config) withDefaults() Config {
	if c.StepsPerFrame <= 0 {
		c.StepsPerFrame = DefaultStepsPerFrame
	}
	if c.FrameRate <= 0 {
		c.FrameRate = DefaultFrameRate
	}
	return c
}

// FrameBudget is the wall-clock duration of one frame.
func (c Config) FrameBudget() time.Duration {
	return time.Second / time.Duration(c.withDefaults().FrameRate)
}

// Input is what a front end observed since the previous frame.
type Input struct {
	// Keys is the snapshot of held logical keys.
	Keys chip8.KeyState
	// Pressed lists logical keys that went down, oldest first. Only used
	// to satisfy a pending FX0A.
	Pressed []byte
	// Quit asks the scheduler to stop before running the frame.
	Quit bool
}

// Frontend is the presentation and input collaborator.
type Frontend interface {
	Poll() (Input, error)
	// Present is called with the display only when it changed since the
	// last presented frame.
	Present(d *chip8.Display) error
}

type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

type Scheduler struct {
	m      *chip8.Machine
	fe     Frontend
	cfg    Config
	clock  Clock
	logger *slog.Logger

	keys chip8.KeyState

	frames   uint64
	fps      int
	fpsCount int
	fpsStart time.Time
}

type Option func(*Scheduler)

func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// New binds a scheduler to a machine and front end. The machine's key
// state is replaced by the snapshot the scheduler refreshes every frame.
func New(m *chip8.Machine, fe Frontend, cfg Config, opts ...Option) *Scheduler {
	s := &Scheduler{
		m:      m,
		fe:     fe,
		cfg:    cfg.withDefaults(),
		clock:  systemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	m.Keys = &s.keys
	return s
}

func (s *Scheduler) Config() Config { return s.cfg }

// Frames is the number of frames completed so far.
func (s *Scheduler) Frames() uint64 { return s.frames }

// FPS is the frame count measured over the last full second.
func (s *Scheduler) FPS() int { return s.fps }

// Frame runs one frame: apply input, execute up to StepsPerFrame
// instructions, present the display if dirty and decay the timers. No
// instructions run while the machine waits for a key, but the frame is
// otherwise completed so the display and timers keep their cadence.
func (s *Scheduler) Frame(in Input) error {
	s.keys = in.Keys
	if s.m.Waiting {
		for _, k := range in.Pressed {
			if s.m.PressKey(k) {
				break
			}
		}
	}

	for i := 0; i < s.cfg.StepsPerFrame && !s.m.Waiting; i++ {
		if err := s.m.Step(); err != nil {
			return fmt.Errorf("frame %d: %w", s.frames, err)
		}
	}

	if err := s.present(); err != nil {
		return err
	}
	s.m.TickTimers()
	s.frames++
	return nil
}

func (s *Scheduler) present() error {
	if !s.m.Display.Dirty {
		return nil
	}
	if err := s.fe.Present(&s.m.Display); err != nil {
		return fmt.Errorf("present: %w", err)
	}
	s.m.Display.Dirty = false
	return nil
}

// Run executes frames until the front end reports Quit, ctx is done or
// the machine faults. A quit request returns nil.
func (s *Scheduler) Run(ctx context.Context) error {
	return s.run(ctx, -1)
}

// RunFrames is Run bounded to at most n frames.
func (s *Scheduler) RunFrames(ctx context.Context, n int) error {
	return s.run(ctx, n)
}

func (s *Scheduler) run(ctx context.Context, limit int) error {
	if !s.m.Loaded() {
		return chip8.ErrNoProgram
	}
	budget := s.cfg.FrameBudget()

	for n := 0; limit < 0 || n < limit; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := s.clock.Now()

		in, err := s.fe.Poll()
		if err != nil {
			return fmt.Errorf("poll input: %w", err)
		}
		if in.Quit {
			return nil
		}
		if err := s.Frame(in); err != nil {
			return err
		}
		s.countFrame(start)

		if s.cfg.Unthrottled {
			continue
		}
		if delay := budget - s.clock.Now().Sub(start); delay > 0 {
			s.clock.Sleep(delay)
		}
	}
	return nil
}

func (s *Scheduler) countFrame(now time.Time) {
	if s.fpsStart.IsZero() {
		s.fpsStart = now
	}
	if now.Sub(s.fpsStart) >= time.Second {
		s.fps = s.fpsCount
		s.fpsCount = 0
		s.fpsStart = now
		s.logger.Debug("frame rate", "fps", s.fps)
	}
	s.fpsCount++
}

// RunSteps executes up to n instructions without presenting or touching
// the timers. It stops early when the machine starts waiting for a key
// and returns the number of instructions executed.
func (s *Scheduler) RunSteps(n int) (int, error) {
	done := 0
	for ; done < n && !s.m.Waiting; done++ {
		if err := s.m.Step(); err != nil {
			return done, err
		}
	}
	return done, nil
}
