//go:build robotgo && cgo

// Package robot drives input and capture through robotgo. It covers every
// desktop platform robotgo supports with one implementation, at the cost of
// cgo and coarser control than the native backends. Scrolling has no pixel
// granularity, and on Windows the captured frame does not contain the cursor.
// Elsewhere the cursor is read with XFixes or AppKit and drawn into the frame.
package robot

import (
	"fmt"
	"math"

	"github.com/go-vgo/robotgo"

	"github.com/tesselslate/deskctl/internal/calib"
	"github.com/tesselslate/deskctl/internal/capture"
	"github.com/tesselslate/deskctl/internal/input"
)

// Device implements the pointer and key injectors, the calibration source
// and the capture source.
type Device struct {
	cursor cursorDrawer
}

// cursorDrawer composites the cursor into a frame grabbed from the display
// with the given bounds.
type cursorDrawer interface {
	Draw(img *capture.Image, bounds calib.Rect)
	Close() error
}

// openCursor is set on platforms where the cursor image can be read.
var openCursor func() (cursorDrawer, error)

// New returns a Device. It fails if robotgo cannot see a display. Frames
// lack the cursor if its image cannot be read.
func New() (*Device, error) {
	if robotgo.DisplaysNum() < 1 {
		return nil, fmt.Errorf("robotgo: no displays")
	}
	d := &Device{}
	if openCursor != nil {
		if c, err := openCursor(); err == nil {
			d.cursor = c
		}
	}
	return d, nil
}

func buttonName(b input.Button) string {
	switch b {
	case input.ButtonRight:
		return "right"
	case input.ButtonMiddle:
		return "center"
	default:
		return "left"
	}
}

// MoveAbsolute moves the pointer to a logical position.
func (d *Device) MoveAbsolute(x, y int) {
	robotgo.Move(x, y)
}

// DragMove moves the pointer while a button is held.
func (d *Device) DragMove(x, y int, _ input.Button) {
	robotgo.Move(x, y)
}

// ButtonDown presses a mouse button.
func (d *Device) ButtonDown(b input.Button) {
	robotgo.MouseDown(buttonName(b))
}

// ButtonUp releases a mouse button.
func (d *Device) ButtonUp(b input.Button) {
	robotgo.MouseUp(buttonName(b))
}

// ScrollLines scrolls by wheel notches.
func (d *Device) ScrollLines(dx, dy int) {
	robotgo.Scroll(dx, dy)
}

// ScrollPixels scrolls by lines.
func (d *Device) ScrollPixels(dx, dy int) {
	robotgo.Scroll(dx, dy)
}

// CursorPosition returns the OS cursor position.
func (d *Device) CursorPosition() (calib.Point, bool) {
	x, y := robotgo.Location()
	return calib.Point{X: x, Y: y}, true
}

// KeyDown presses a key.
func (d *Device) KeyDown(code int) {
	if name, ok := keyName(code); ok {
		robotgo.KeyToggle(name, "down")
	}
}

// KeyUp releases a key.
func (d *Device) KeyUp(code int) {
	if name, ok := keyName(code); ok {
		robotgo.KeyToggle(name, "up")
	}
}

// TypeRune types a character with robotgo's Unicode input.
func (d *Device) TypeRune(r rune) bool {
	robotgo.TypeStr(string(r))
	return true
}

// ModifierKeyCode returns the code of a modifier.
func (d *Device) ModifierKeyCode(m input.Modifier) (int, bool) {
	return modifierCode(m)
}

// KeyCode returns the code of the US layout key which types r.
func (d *Device) KeyCode(r rune) int {
	return keyCode(r)
}

// Monitors lists displays. Bounds are in robotgo's logical space and the
// pixel size is scaled by the system scale factor.
func (d *Device) Monitors() ([]calib.Monitor, error) {
	n := robotgo.DisplaysNum()
	if n < 1 {
		return nil, fmt.Errorf("robotgo: no displays")
	}
	scale := robotgo.ScaleF()
	if scale <= 0 {
		scale = 1
	}
	mons := make([]calib.Monitor, 0, n)
	for i := 0; i < n; i++ {
		x, y, w, h := robotgo.GetDisplayBounds(i)
		mons = append(mons, calib.Monitor{
			Name:   fmt.Sprintf("display%d", i),
			Bounds: calib.Rect{X: x, Y: y, W: w, H: h},
			Pixels: calib.Size{
				W: int(math.Round(float64(w) * scale)),
				H: int(math.Round(float64(h) * scale)),
			},
			Primary: i == 0,
		})
	}
	return mons, nil
}

// Cursor returns the OS cursor position.
func (d *Device) Cursor() (calib.Point, error) {
	p, _ := d.CursorPosition()
	return p, nil
}

// Close releases the connection used to read the cursor. robotgo itself
// holds no per-process connection.
func (d *Device) Close() error {
	if d.cursor != nil {
		return d.cursor.Close()
	}
	return nil
}

// Capturer grabs display contents with robotgo. It implements
// capture.Source.
type Capturer struct {
	cursor cursorDrawer
}

// Capturer returns the capture source.
func (d *Device) Capturer() *Capturer {
	return &Capturer{cursor: d.cursor}
}

// Count returns the number of displays.
func (s *Capturer) Count() int {
	return robotgo.DisplaysNum()
}

// Describe returns the display index and bounds.
func (s *Capturer) Describe(i int) string {
	if i < 0 || i >= robotgo.DisplaysNum() {
		return ""
	}
	x, y, w, h := robotgo.GetDisplayBounds(i)
	return fmt.Sprintf("robotgo Display %d %dx%d+%d+%d", i, w, h, x, y)
}

// RendersCursor reports whether Grab draws the cursor into the frame.
func (s *Capturer) RendersCursor() bool {
	return s.cursor != nil
}

// Cursor always fails. robotgo cannot read the cursor image, so Grab draws
// it where the platform allows.
func (s *Capturer) Cursor() (*capture.Cursor, error) {
	return nil, capture.ErrNoCursor
}

// Grab captures display i.
func (s *Capturer) Grab(i int) (*capture.Image, calib.Rect, error) {
	if i < 0 || i >= robotgo.DisplaysNum() {
		return nil, calib.Rect{}, capture.ErrDisplayIndex
	}
	x, y, w, h := robotgo.GetDisplayBounds(i)
	img, err := robotgo.CaptureImg(x, y, w, h)
	if err != nil {
		return nil, calib.Rect{}, fmt.Errorf("capture display %d: %w", i, err)
	}
	out, r := capture.FromImage(img), calib.Rect{X: x, Y: y, W: w, H: h}
	if s.cursor != nil {
		s.cursor.Draw(out, r)
	}
	return out, r, nil
}
