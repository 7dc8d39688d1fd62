//go:build unix

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gochip8/pkg/chip8"
	"gochip8/pkg/scheduler"
	"gochip8/pkg/utils"
)

type options struct {
	romPath string
	steps   int
	fps     int
	wrap    bool
}

const usage = "usage: console [flags] ROMFILE"

func parseArgs(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("console", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&opts.steps, "steps", scheduler.DefaultStepsPerFrame, "instructions executed per frame")
	fs.IntVar(&opts.fps, "fps", scheduler.DefaultFrameRate, "frames per second")
	fs.BoolVar(&opts.wrap, "wrap", false, "wrap sprites at the display edge instead of clipping")
	fs.Usage = func() {
		fmt.Fprintln(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return opts, errors.New("expected exactly one ROM file")
	}
	opts.romPath = fs.Arg(0)
	return opts, nil
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("console: ")

	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	_, rom, err := utils.ReadROM(opts.romPath)
	if err != nil {
		log.Fatalf("Failed to read ROM: %v", err)
	}

	// Log output would scribble over the raw-mode display.
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	vm := chip8.New(
		chip8.WithLogger(quiet),
		chip8.WithQuirks(chip8.Quirks{WrapSprites: opts.wrap}),
	)
	if err := vm.LoadROM(rom); err != nil {
		log.Fatalf("Failed to load ROM: %v", err)
	}

	host, err := openTerminal()
	if err != nil {
		log.Fatalf("Failed to open terminal: %v", err)
	}
	if cols, rows, err := host.Size(); err == nil && !fitsTerminal(cols, rows) {
		host.Close()
		log.Fatalf("Terminal is %dx%d, need at least %dx%d", cols, rows, minCols, minRows)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Stdout.WriteString(hideCursor + clearTerm)
	fe := newConsoleFrontend(host.Bytes(), os.Stdout)
	sched := scheduler.New(vm, fe, scheduler.Config{
		StepsPerFrame: opts.steps,
		FrameRate:     opts.fps,
	}, scheduler.WithLogger(quiet))
	runErr := sched.Run(ctx)

	os.Stdout.WriteString(showCursor)
	if err := host.Close(); err != nil {
		log.Printf("restore terminal: %v", err)
	}
	fmt.Println()

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Fatalf("Machine halted: %v", runErr)
	}
}
