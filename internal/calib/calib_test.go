package calib_test

import (
	"errors"
	"testing"

	"github.com/tesselslate/deskctl/internal/calib"
)

type fakeSource struct {
	mons   []calib.Monitor
	cursor calib.Point
	err    error
}

func (f *fakeSource) Monitors() ([]calib.Monitor, error) {
	return f.mons, f.err
}

func (f *fakeSource) Cursor() (calib.Point, error) {
	return f.cursor, f.err
}

// A 1440x900 point retina display next to a 1920x1080 display at 1.25x.
var dualMonitors = []calib.Monitor{
	{
		Name:    "builtin",
		Bounds:  calib.Rect{X: 0, Y: 0, W: 1440, H: 900},
		Pixels:  calib.Size{W: 2880, H: 1800},
		Primary: true,
	},
	{
		Name:   "external",
		Bounds: calib.Rect{X: 1440, Y: 0, W: 1536, H: 864},
		Pixels: calib.Size{W: 1920, H: 1080},
	},
}

func TestCalibrateFindsCursorMonitor(t *testing.T) {
	src := &fakeSource{mons: dualMonitors, cursor: calib.Point{X: 2000, Y: 100}}
	c := calib.New(src, calib.DefaultSize)
	geo := c.Calibrate()
	if geo.Origin != (calib.Point{X: 1440, Y: 0}) {
		t.Fatalf("got origin %v, want (1440, 0)", geo.Origin)
	}
	if geo.Size != (calib.Size{W: 1920, H: 1080}) {
		t.Fatalf("got size %v, want 1920x1080", geo.Size)
	}
	if geo.Scale.X != 1.25 || geo.Scale.Y != 1.25 {
		t.Fatalf("got scale %v, want 1.25", geo.Scale)
	}
}

func TestCalibrateIdempotent(t *testing.T) {
	src := &fakeSource{mons: dualMonitors, cursor: calib.Point{X: 20, Y: 30}}
	c := calib.New(src, calib.DefaultSize)
	a := c.Calibrate()
	b := c.Calibrate()
	if a != b {
		t.Fatalf("calibration changed between calls: %v != %v", a, b)
	}
}

func TestCalibrateFallsBackToPrimary(t *testing.T) {
	src := &fakeSource{mons: dualMonitors, cursor: calib.Point{X: -500, Y: -500}}
	geo := calib.New(src, calib.DefaultSize).Calibrate()
	if geo.Size != (calib.Size{W: 2880, H: 1800}) {
		t.Fatalf("got size %v, want primary 2880x1800", geo.Size)
	}
	if geo.Scale.X != 2 {
		t.Fatalf("got scale %v, want 2", geo.Scale.X)
	}
}

func TestCalibrateFallsBackToDefault(t *testing.T) {
	src := &fakeSource{err: errors.New("no display")}
	c := calib.New(src, calib.Size{W: 800, H: 600})
	geo := c.Calibrate()
	want := calib.Geometry{Size: calib.Size{W: 800, H: 600}, Scale: calib.Scale{X: 1, Y: 1}}
	if geo != want {
		t.Fatalf("got %v, want %v", geo, want)
	}
	w, h := c.PrimaryDisplayPixelSize()
	if w != 800 || h != 600 {
		t.Fatalf("got primary %dx%d, want 800x600", w, h)
	}

	nilGeo := calib.New(nil, calib.Size{}).Calibrate()
	if nilGeo.Size != calib.DefaultSize {
		t.Fatalf("got %v, want default size", nilGeo.Size)
	}
}

func TestPrimaryIgnoresCursor(t *testing.T) {
	src := &fakeSource{mons: dualMonitors, cursor: calib.Point{X: 2000, Y: 10}}
	w, h := calib.New(src, calib.DefaultSize).PrimaryDisplayPixelSize()
	if w != 2880 || h != 1800 {
		t.Fatalf("got %dx%d, want 2880x1800", w, h)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, cursor := range []calib.Point{{X: 10, Y: 10}, {X: 1500, Y: 10}} {
		src := &fakeSource{mons: dualMonitors, cursor: cursor}
		c := calib.New(src, calib.DefaultSize)
		geo := c.Calibrate()
		for y := 0; y < geo.Size.H; y += 37 {
			for x := 0; x < geo.Size.W; x += 41 {
				p := calib.Point{X: x, Y: y}
				back := c.ToPixel(c.ToLogical(p))
				if abs(back.X-p.X) > 1 || abs(back.Y-p.Y) > 1 {
					t.Fatalf("round trip of %v gave %v", p, back)
				}
			}
		}
	}
}

func TestToPixelDoesNotClamp(t *testing.T) {
	geo := calib.Geometry{Size: calib.Size{W: 100, H: 100}, Scale: calib.Scale{X: 2, Y: 2}}
	p := geo.ToPixel(calib.Point{X: 80, Y: -5})
	if p != (calib.Point{X: 160, Y: -10}) {
		t.Fatalf("got %v, want (160, -10)", p)
	}
	if c := geo.Clamp(p); c != (calib.Point{X: 99, Y: 0}) {
		t.Fatalf("got clamped %v, want (99, 0)", c)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
