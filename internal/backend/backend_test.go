package backend

import (
	"errors"
	"testing"
	"time"

	"github.com/tesselslate/deskctl/internal/capture"
	"github.com/tesselslate/deskctl/internal/input"
)

type closeRecorder struct {
	name  string
	order *[]string
	err   error
}

func (c *closeRecorder) Close() error {
	*c.order = append(*c.order, c.name)
	return c.err
}

func TestCloseOrder(t *testing.T) {
	var order []string
	a := &closeRecorder{name: "a", order: &order}
	b := &closeRecorder{name: "b", order: &order, err: errors.New("boom")}

	be := &Backend{}
	be.addCloser(a)
	be.addCloser(b)
	be.addCloser(a)
	err := be.Close()
	if err == nil {
		t.Fatal("close error was dropped")
	}
	if len(order) != 2 || order[0] != "b" || order[1] != "a" {
		t.Fatalf("got %v, want [b a]", order)
	}
	if err := be.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if len(order) != 2 {
		t.Fatalf("closed again: %v", order)
	}
}

func TestWarn(t *testing.T) {
	be := &Backend{}
	be.warn(nil)
	be.warn(errors.New("no cursor"))
	if len(be.Warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(be.Warnings))
	}
}

func TestCalibratorWithoutDisplays(t *testing.T) {
	be := &Backend{}
	cal := be.Calibrator(Options{})
	w, h := cal.PrimaryDisplayPixelSize()
	if w != 1920 || h != 1080 {
		t.Fatalf("got %dx%d, want 1920x1080", w, h)
	}
}

// driveInput runs every kind of synthesizer operation against the backend.
func driveInput(t *testing.T, b *Backend) *input.Synthesizer {
	t.Helper()
	s := input.New(b.Pointer, b.Keys, b.Calibrator(Options{}), input.Options{
		Sleep: func(time.Duration) {},
	})
	s.MoveTo(100, 50)
	s.ClickAt(10, 10, input.ButtonRight)
	s.DragTo(400, 300, input.ButtonLeft)
	s.ScrollLines(0, -3)
	s.KeyDownWithMods(30, input.ModControl)
	s.KeyUpWithMods(30, input.ModControl)
	s.TypeUTF8("hello")
	if err := s.Dispatch(input.Event{Type: input.EventKeyDown, Char: "a"}); !errors.Is(err, input.ErrNoKeyCode) {
		t.Fatalf("got %v, want ErrNoKeyCode", err)
	}
	return s
}

func TestDegrade(t *testing.T) {
	b := &Backend{Name: "none"}
	b.degrade(errors.New("no display"))
	if !b.Degraded() {
		t.Fatal("backend is not degraded")
	}
	if len(b.Warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(b.Warnings))
	}

	s := driveInput(t, b)
	if w, h := s.DisplaySize(); w != 1920 || h != 1080 {
		t.Fatalf("got %dx%d, want 1920x1080", w, h)
	}
	if p := s.Cursor(); p.X != 400 || p.Y != 300 {
		t.Fatalf("got cursor %v, want 400,300", p)
	}
	if n := capture.NewEngine(b.Capture).DisplayCount(); n != 0 {
		t.Fatalf("got %d displays, want 0", n)
	}
}
