package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"gochip8/pkg/chip8"
	"gochip8/pkg/keymap"
	"gochip8/pkg/scheduler"
	"gochip8/pkg/utils"
	"gochip8/pkg/vfs"
)

// hostKeys maps the characters of keymap.Layout to ebiten keys.
var hostKeys = map[rune]ebiten.Key{
	'1': ebiten.Key1, '2': ebiten.Key2, '3': ebiten.Key3, '4': ebiten.Key4,
	'q': ebiten.KeyQ, 'w': ebiten.KeyW, 'e': ebiten.KeyE, 'r': ebiten.KeyR,
	'a': ebiten.KeyA, 's': ebiten.KeyS, 'd': ebiten.KeyD, 'f': ebiten.KeyF,
	'z': ebiten.KeyZ, 'x': ebiten.KeyX, 'c': ebiten.KeyC, 'v': ebiten.KeyV,
}

// keyTable is the logical-to-physical lookup, indexed by logical key.
var keyTable [chip8.NumKeys]ebiten.Key

func init() {
	for i, r := range keymap.Layout {
		keyTable[i] = hostKeys[r]
	}
}

func logicalKey(k ebiten.Key) (byte, bool) {
	for i, hk := range keyTable {
		if hk == k {
			return byte(i), true
		}
	}
	return 0, false
}

const statusFrames = 90

type Game struct {
	vm    *chip8.Machine
	sched *scheduler.Scheduler
	scale int

	screen *ebiten.Image // 64x32 canvas, rewritten only on dirty frames

	disk *vfs.Disk
	slot string

	status      string
	statusTimer int
}

// Poll implements scheduler.Frontend.
func (g *Game) Poll() (scheduler.Input, error) {
	var in scheduler.Input
	for i, k := range keyTable {
		in.Keys[i] = ebiten.IsKeyPressed(k)
	}
	for _, k := range inpututil.AppendJustPressedKeys(nil) {
		if l, ok := logicalKey(k); ok {
			in.Pressed = append(in.Pressed, l)
		}
	}
	in.Quit = inpututil.IsKeyJustPressed(ebiten.KeyEscape)
	return in, nil
}

// Present implements scheduler.Frontend.
func (g *Game) Present(d *chip8.Display) error {
	if g.screen == nil {
		g.screen = ebiten.NewImage(chip8.DisplayWidth, chip8.DisplayHeight)
	}
	g.screen.WritePixels(d.RGBA())
	return nil
}

func (g *Game) Update() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyF5):
		g.saveSlot()
	case inpututil.IsKeyJustPressed(ebiten.KeyF9):
		g.loadSlot()
	}
	if g.statusTimer > 0 {
		g.statusTimer--
	}

	in, err := g.Poll()
	if err != nil {
		return err
	}
	if in.Quit {
		return ebiten.Termination
	}
	// Ebiten calls Update at the configured TPS, which paces the frames.
	return g.sched.Frame(in)
}

func (g *Game) saveSlot() {
	data, err := g.vm.SaveStateBytes()
	if err == nil {
		err = g.disk.Write(g.slot, data)
	}
	if err != nil {
		g.setStatus("save failed: " + err.Error())
		return
	}
	g.setStatus("saved " + g.slot)
}

func (g *Game) loadSlot() {
	data, err := g.disk.Read(g.slot)
	if err == nil {
		err = g.vm.RestoreState(data)
	}
	if err != nil {
		g.setStatus("load failed: " + err.Error())
		return
	}
	g.setStatus("loaded " + g.slot)
}

func (g *Game) setStatus(msg string) {
	g.status = msg
	g.statusTimer = statusFrames
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.screen != nil {
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(float64(g.scale), float64(g.scale))
		screen.DrawImage(g.screen, op)
	}
	if g.statusTimer > 0 {
		ebitenutil.DebugPrintAt(screen, g.status, 4, 4)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return chip8.DisplayWidth * g.scale, chip8.DisplayHeight * g.scale
}

// startDiskSyncer flushes dirty save slots to dir every interval until stop
// is closed.
func startDiskSyncer(disk *vfs.Disk, dir string, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if disk.Dirty() {
				if err := disk.PersistTo(dir); err != nil {
					log.Printf("persist save slots: %v", err)
				}
			}
		case <-stop:
			return
		}
	}
}

type options struct {
	romPath     string
	scale       int
	steps       int
	fps         int
	wrap        bool
	storagePath string
}

const usage = "usage: desktop [flags] ROMFILE"

func parseArgs(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("desktop", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&opts.scale, "scale", 10, "window pixels per CHIP-8 pixel")
	fs.IntVar(&opts.steps, "steps", scheduler.DefaultStepsPerFrame, "instructions executed per frame")
	fs.IntVar(&opts.fps, "fps", scheduler.DefaultFrameRate, "frames per second")
	fs.BoolVar(&opts.wrap, "wrap", false, "wrap sprites at the display edge instead of clipping")
	fs.StringVar(&opts.storagePath, "storage", "gochip8_saves", "directory for save slots")
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
	if opts.scale < 1 {
		return opts, fmt.Errorf("invalid -scale %d", opts.scale)
	}
	opts.romPath = fs.Arg(0)
	return opts, nil
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("desktop: ")

	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	fullPath, rom, err := utils.ReadROM(opts.romPath)
	if err != nil {
		log.Fatalf("Failed to read ROM: %v", err)
	}

	vm := chip8.New(chip8.WithQuirks(chip8.Quirks{WrapSprites: opts.wrap}))
	if err := vm.LoadROM(rom); err != nil {
		log.Fatalf("Failed to load ROM: %v", err)
	}

	disk := vfs.NewDisk()
	if err := disk.LoadFrom(opts.storagePath); err != nil {
		log.Printf("load save slots: %v", err)
	}

	game := &Game{
		vm:    vm,
		scale: opts.scale,
		disk:  disk,
		slot:  vfs.SlotName(fullPath, 0),
	}
	game.sched = scheduler.New(vm, game, scheduler.Config{
		StepsPerFrame: opts.steps,
		FrameRate:     opts.fps,
	})

	ebiten.SetTPS(game.sched.Config().FrameRate)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(chip8.DisplayWidth*opts.scale, chip8.DisplayHeight*opts.scale)
	ebiten.SetWindowTitle("Chip 8")

	stopSyncer := make(chan struct{})
	go startDiskSyncer(disk, opts.storagePath, 3*time.Second, stopSyncer)

	runErr := ebiten.RunGame(game)

	close(stopSyncer)
	if disk.Dirty() {
		if err := disk.PersistTo(opts.storagePath); err != nil {
			log.Printf("persist save slots: %v", err)
		}
	}
	if runErr != nil && !errors.Is(runErr, ebiten.Termination) {
		log.Fatal(runErr)
	}
}
