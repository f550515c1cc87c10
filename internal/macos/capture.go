//go:build darwin && cgo

package macos

import (
	"fmt"

	"github.com/kbinani/screenshot"

	"github.com/tesselslate/deskctl/internal/calib"
	"github.com/tesselslate/deskctl/internal/capture"
)

// Capturer grabs displays with CoreGraphics. CoreGraphics leaves the cursor
// out of the frame, so Grab draws the current system cursor into it. It
// implements capture.Source.
type Capturer struct{}

// Capturer returns the capture source.
func (c *Client) Capturer() *Capturer {
	return &Capturer{}
}

// Count returns the number of active displays.
func (s *Capturer) Count() int {
	return screenshot.NumActiveDisplays()
}

// Describe returns the display index and its bounds in points.
func (s *Capturer) Describe(i int) string {
	if i < 0 || i >= screenshot.NumActiveDisplays() {
		return ""
	}
	b := screenshot.GetDisplayBounds(i)
	return fmt.Sprintf("macOS Display %d %dx%d+%d+%d", i, b.Dx(), b.Dy(), b.Min.X, b.Min.Y)
}

// RendersCursor returns true.
func (s *Capturer) RendersCursor() bool {
	return true
}

// Cursor always fails. Grab draws the cursor itself.
func (s *Capturer) Cursor() (*capture.Cursor, error) {
	return nil, capture.ErrNoCursor
}

// Grab captures display i and draws the cursor over it.
func (s *Capturer) Grab(i int) (*capture.Image, calib.Rect, error) {
	if i < 0 || i >= screenshot.NumActiveDisplays() {
		return nil, calib.Rect{}, capture.ErrDisplayIndex
	}
	img, err := screenshot.CaptureDisplay(i)
	if err != nil {
		return nil, calib.Rect{}, fmt.Errorf("capture display %d: %w", i, err)
	}
	b := screenshot.GetDisplayBounds(i)
	r := calib.Rect{X: b.Min.X, Y: b.Min.Y, W: b.Dx(), H: b.Dy()}
	out := capture.FromImage(img)
	DrawCursor(out, r)
	return out, r, nil
}
