//go:build !js

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gochip8/pkg/asm"
	"gochip8/pkg/chip8"
	"gochip8/pkg/scheduler"
	"gochip8/pkg/utils"
)

// headless is a scheduler.Frontend with no input and no output.
type headless struct {
	presents int
}

func (h *headless) Poll() (scheduler.Input, error) { return scheduler.Input{}, nil }

func (h *headless) Present(*chip8.Display) error {
	h.presents++
	return nil
}

type options struct {
	romPath    string
	frames     int
	steps      int
	wrap       bool
	screenshot string
	scale      int
	saveState  string
	loadState  string
	verbose    bool
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("gochip8", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&opts.frames, "frames", 600, "number of frames to run")
	fs.IntVar(&opts.steps, "steps", scheduler.DefaultStepsPerFrame, "instructions executed per frame")
	fs.BoolVar(&opts.wrap, "wrap", false, "wrap sprites at the display edge instead of clipping")
	fs.StringVar(&opts.screenshot, "screenshot", "", "write the final display to this PNG file")
	fs.IntVar(&opts.scale, "scale", 8, "screenshot pixels per CHIP-8 pixel")
	fs.StringVar(&opts.saveState, "save-state", "", "write a snapshot of the final machine state to this file")
	fs.StringVar(&opts.loadState, "load-state", "", "restore a snapshot before running")
	fs.BoolVar(&opts.verbose, "v", false, "trace every instruction")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: gochip8 [flags] ROMFILE|SOURCE.asm")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return opts, errors.New("expected exactly one ROM file")
	}
	if opts.frames < 0 {
		return opts, fmt.Errorf("invalid -frames %d", opts.frames)
	}
	if opts.scale < 1 {
		return opts, fmt.Errorf("invalid -scale %d", opts.scale)
	}
	opts.romPath = fs.Arg(0)
	return opts, nil
}

// run is main without the process exit. It returns the exit status.
func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return 2
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	path, rom, err := utils.ReadROM(opts.romPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to read ROM %q: %v\n", opts.romPath, err)
		return 1
	}

	if isSource(path) {
		code, _, err := asm.Assemble(string(rom))
		if err != nil {
			fmt.Fprintf(stderr, "assembly failed for %q: %v\n", path, err)
			return 1
		}
		rom = code
	}

	vm := chip8.New(
		chip8.WithLogger(logger),
		chip8.WithQuirks(chip8.Quirks{WrapSprites: opts.wrap}),
	)
	if err := vm.LoadROM(rom); err != nil {
		fmt.Fprintf(stderr, "failed to load ROM %q: %v\n", path, err)
		return 1
	}
	if opts.loadState != "" {
		if err := vm.RestoreStateFile(opts.loadState); err != nil {
			fmt.Fprintf(stderr, "failed to restore %q: %v\n", opts.loadState, err)
			return 1
		}
	}

	fe := &headless{}
	sched := scheduler.New(vm, fe, scheduler.Config{
		StepsPerFrame: opts.steps,
		Unthrottled:   true,
	}, scheduler.WithLogger(logger))

	runErr := sched.RunFrames(context.Background(), opts.frames)
	dumpMachine(stdout, path, vm, sched.Frames(), fe.presents)
	if runErr != nil {
		fmt.Fprintf(stderr, "run failed for %q: %v\n", path, runErr)
		return 1
	}

	if opts.screenshot != "" {
		if err := vm.Display.SavePNG(opts.screenshot, opts.scale); err != nil {
			fmt.Fprintf(stderr, "failed to write screenshot %q: %v\n", opts.screenshot, err)
			return 1
		}
	}
	if opts.saveState != "" {
		if err := vm.SaveStateFile(opts.saveState); err != nil {
			fmt.Fprintf(stderr, "failed to write snapshot %q: %v\n", opts.saveState, err)
			return 1
		}
	}
	return 0
}

// isSource reports whether path names assembler source rather than a ROM.
func isSource(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".asm" || ext == ".s"
}

func dumpMachine(w io.Writer, path string, vm *chip8.Machine, frames uint64, presents int) {
	fmt.Fprintf(w,
		"run complete (%s): frames=%d presents=%d PC=0x%03X I=0x%03X SP=%d DT=%d ST=%d waiting=%t\n",
		path, frames, presents, vm.PC, vm.I, vm.SP, vm.DT, vm.ST, vm.Waiting,
	)
	for r := 0; r < chip8.NumRegisters; r++ {
		sep := " "
		if r%8 == 7 {
			sep = "\n"
		}
		fmt.Fprintf(w, "V%X=0x%02X%s", r, vm.V[r], sep)
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
