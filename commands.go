package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/tesselslate/deskctl/internal/backend"
	"github.com/tesselslate/deskctl/internal/bmp"
	"github.com/tesselslate/deskctl/internal/capture"
	"github.com/tesselslate/deskctl/internal/cfg"
	"github.com/tesselslate/deskctl/internal/input"
	"github.com/tesselslate/deskctl/internal/log"
	"github.com/tesselslate/deskctl/internal/script"
)

var errUsage = errors.New("invalid arguments (see deskctl help)")

// env contains the objects shared by every command.
type env struct {
	profile cfg.Profile
	backend *backend.Backend
	synth   *input.Synthesizer
	engine  *capture.Engine
}

type command struct {
	args int // Minimum argument count
	run  func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"info":    {0, runInfo},
	"capture": {0, runCapture},
	"move":    {2, runMove},
	"click":   {0, runClick},
	"hold":    {0, runHold},
	"drag":    {2, runDrag},
	"scroll":  {2, runScroll},
	"type":    {1, runType},
	"key":     {1, runKey},
	"replay":  {1, runReplay},
}

func runCommand(cmd command, args []string) error {
	if len(args) < cmd.args {
		return errUsage
	}
	profile, _, err := loadProfile("")
	if err != nil {
		return err
	}
	logger, err := setupLogger(profile.LogLevel, false)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	e, err := openEnv(ctx, profile)
	if err != nil {
		return err
	}
	// The backend owns the injectors, so the synthesizer is not closed.
	defer e.backend.Close()
	return cmd.run(ctx, e, args)
}

func openEnv(ctx context.Context, profile cfg.Profile) (*env, error) {
	opts := backend.Options{DefaultSize: profile.Display.DefaultSize.Calib()}
	b, err := backend.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}
	for _, w := range b.Warnings {
		log.Warn("%s", w)
	}
	log.Debug("Using backend %s", b.Name)
	synth := input.New(b.Pointer, b.Keys, b.Calibrator(opts), input.Options{
		StepDelay: profile.Input.StepDelay(),
		TypeDelay: profile.Input.CharDelay(),
	})
	return &env{
		profile: profile,
		backend: b,
		synth:   synth,
		engine:  capture.NewEngine(b.Capture),
	}, nil
}

func parseInts(args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", arg)
		}
		out[i] = n
	}
	return out, nil
}

func parseButton(args []string, i int) (input.Button, error) {
	if len(args) <= i {
		return input.ButtonLeft, nil
	}
	return input.ParseButton(args[i])
}

func runInfo(_ context.Context, e *env, _ []string) error {
	fmt.Println("Backend:", e.backend.Name)
	count := e.engine.DisplayCount()
	fmt.Println("Displays:", count)
	for i := 0; i < count; i++ {
		fmt.Printf("  %d: %s\n", i, e.engine.DisplayInfo(i))
	}
	geo := e.synth.Calibrator().Calibrate()
	fmt.Printf("Geometry: origin %d,%d size %dx%d scale %.2fx%.2f\n",
		geo.Origin.X, geo.Origin.Y, geo.Size.W, geo.Size.H, geo.Scale.X, geo.Scale.Y)
	w, h := e.synth.PrimaryDisplayPixelSize()
	fmt.Printf("Primary display: %dx%d pixels\n", w, h)
	w, h = e.synth.DisplaySize()
	fmt.Printf("Input space: %dx%d\n", w, h)
	cur, px := e.synth.Cursor(), e.synth.CursorPixel()
	fmt.Printf("Cursor: %d,%d (pixel %d,%d)\n", cur.X, cur.Y, px.X, px.Y)
	return nil
}

func runCapture(_ context.Context, e *env, args []string) error {
	display := e.profile.Capture.Display
	out := "capture.bmp"
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid display %q", args[0])
		}
		display = n
	}
	if len(args) > 1 {
		out = args[1]
	}
	start := time.Now()
	img, err := e.engine.CaptureScreenWithCursor(display)
	if err != nil {
		return err
	}
	log.Debug("Captured display %d in %s", display, time.Since(start))
	if err := bmp.WriteFile(out, img); err != nil {
		return err
	}
	fmt.Printf("Wrote %dx%d capture of display %d to %s\n", img.Width, img.Height, display, out)
	return nil
}

func runMove(_ context.Context, e *env, args []string) error {
	p, err := parseInts(args[:2])
	if err != nil {
		return err
	}
	e.synth.MoveTo(p[0], p[1])
	return nil
}

func runClick(_ context.Context, e *env, args []string) error {
	b, err := parseButton(args, 0)
	if err != nil {
		return err
	}
	e.synth.Click(b)
	return nil
}

func runHold(_ context.Context, e *env, args []string) error {
	b, err := parseButton(args, 0)
	if err != nil {
		return err
	}
	d := e.profile.Input.Hold()
	if len(args) > 1 {
		ms, err := strconv.Atoi(args[1])
		if err != nil || ms < 0 {
			return fmt.Errorf("invalid duration %q", args[1])
		}
		d = time.Duration(ms) * time.Millisecond
	}
	e.synth.Hold(b, d)
	return nil
}

func runDrag(_ context.Context, e *env, args []string) error {
	p, err := parseInts(args[:2])
	if err != nil {
		return err
	}
	b, err := parseButton(args, 2)
	if err != nil {
		return err
	}
	e.synth.DragTo(p[0], p[1], b)
	return nil
}

func runScroll(_ context.Context, e *env, args []string) error {
	d, err := parseInts(args[:2])
	if err != nil {
		return err
	}
	e.synth.ScrollLines(d[0], d[1])
	return nil
}

func runType(_ context.Context, e *env, args []string) error {
	e.synth.TypeUTF8(strings.Join(args, " "))
	return nil
}

func runKey(_ context.Context, e *env, args []string) error {
	mods, r, err := input.ParseChord(args[0])
	if err != nil {
		return err
	}
	code := e.synth.CharToKeyCode(r)
	if code == input.NotFound {
		return fmt.Errorf("%w: %q", input.ErrNoKeyCode, r)
	}
	if input.NeedsShift(r) {
		mods |= input.ModShift
	}
	e.synth.ClickWithMods(code, mods)
	return nil
}

func runReplay(ctx context.Context, e *env, args []string) error {
	path := args[0]
	watch := len(args) > 1 && args[1] == "--watch"
	s, err := script.Load(path)
	if err != nil {
		return err
	}
	log.Info("Replaying %s (%d events)", path, len(s.Events))
	if err := script.Run(ctx, e.synth, s); err != nil {
		return err
	}
	if !watch {
		return nil
	}
	log.Info("Watching %s for changes", path)
	err = script.Watch(ctx, path, func(s *script.Script) {
		if err := script.Run(ctx, e.synth, s); err != nil {
			log.Error("Replay failed: %s", err)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
