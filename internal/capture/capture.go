// Package capture grabs the contents of a display and composites the OS
// cursor into the result.
package capture

import (
	"errors"
	"fmt"

	"github.com/tesselslate/deskctl/internal/calib"
)

// Error types
var (
	ErrDisplayIndex = errors.New("display index out of range")
	ErrNoCursor     = errors.New("cursor image unavailable")
)

// Source is a platform pixel source. Implementations must be safe for
// concurrent use.
type Source interface {
	// Count returns the number of displays, or 0 if they cannot be listed.
	Count() int

	// Grab captures display i and returns it along with the display's bounds
	// in the cursor coordinate space.
	Grab(i int) (*Image, calib.Rect, error)

	// Cursor returns the current cursor image and position, or ErrNoCursor.
	Cursor() (*Cursor, error)

	// Describe returns a human readable name for display i.
	Describe(i int) string

	// RendersCursor reports whether grabbed images already contain the
	// cursor.
	RendersCursor() bool
}

// Engine captures displays from a Source.
type Engine struct {
	src Source
}

// NewEngine creates a capture engine.
func NewEngine(src Source) *Engine {
	return &Engine{src: src}
}

// DisplayCount returns the number of capturable displays.
func (e *Engine) DisplayCount() int {
	if e.src == nil {
		return 0
	}
	return e.src.Count()
}

// DisplayInfo returns a description of display i, or an empty string if it
// does not exist.
func (e *Engine) DisplayInfo(i int) string {
	if i < 0 || i >= e.DisplayCount() {
		return ""
	}
	return e.src.Describe(i)
}

// CaptureScreenWithCursor captures display i at its native resolution and
// draws the cursor over it. Failing to obtain the cursor is not an error; the
// frame is returned without it.
func (e *Engine) CaptureScreenWithCursor(i int) (*Image, error) {
	count := e.DisplayCount()
	if i < 0 || i >= count {
		return nil, fmt.Errorf("%w: %d (have %d)", ErrDisplayIndex, i, count)
	}
	img, bounds, err := e.src.Grab(i)
	if err != nil {
		return nil, fmt.Errorf("grab display %d: %w", i, err)
	}
	if img == nil {
		return nil, fmt.Errorf("grab display %d: no image", i)
	}
	if !img.Valid() {
		return nil, fmt.Errorf("grab display %d: malformed image %dx%d with %d bytes", i, img.Width, img.Height, len(img.Pix))
	}
	if e.src.RendersCursor() {
		return img, nil
	}
	if cur, err := e.src.Cursor(); err == nil {
		Blend(img, cur, calib.Point{X: bounds.X, Y: bounds.Y})
	}
	return img, nil
}
