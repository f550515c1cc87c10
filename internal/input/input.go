// Package input synthesizes mouse and keyboard events on top of a platform
// backend. Events are posted on a best effort basis: the operating system
// gives no delivery confirmation, so none of the injection methods return
// an error.
package input

import (
	"github.com/tesselslate/deskctl/internal/calib"
)

// NotFound is returned by CharToKeyCode when a character has no key code.
const NotFound = -1

// Button is a mouse button.
type Button int

// Mouse buttons
const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
)

// Modifier is a bitmask of modifier keys.
type Modifier uint8

// Modifier keys. Option is Alt outside of macOS and Command is Super/Windows.
const (
	ModShift Modifier = 1 << iota
	ModControl
	ModOption
	ModCommand

	ModNone Modifier = 0
)

// modifierOrder is the order in which modifiers are pressed and released.
var modifierOrder = []Modifier{ModShift, ModControl, ModOption, ModCommand}

// PointerInjector posts pointer events to the platform.
type PointerInjector interface {
	// MoveAbsolute moves the pointer to the given logical position.
	MoveAbsolute(x, y int)

	// DragMove moves the pointer while a button is held. Backends that do
	// not distinguish drags from plain motion treat it like MoveAbsolute.
	DragMove(x, y int, b Button)

	ButtonDown(b Button)
	ButtonUp(b Button)

	// ScrollLines scrolls by whole wheel notches. A positive dy scrolls up
	// and a positive dx scrolls right.
	ScrollLines(dx, dy int)

	// ScrollPixels scrolls by pixels. Backends without pixel granularity
	// scroll by lines instead.
	ScrollPixels(dx, dy int)
}

// CursorReader is implemented by pointer backends that can read back the
// live OS cursor position. Headless backends (uinput, virtual Wayland
// devices) do not implement it.
type CursorReader interface {
	CursorPosition() (calib.Point, bool)
}

// KeyInjector posts keyboard events to the platform. Key codes are native to
// the backend.
type KeyInjector interface {
	KeyDown(code int)
	KeyUp(code int)

	// TypeRune inserts a character directly, bypassing key codes. It returns
	// false if the platform has no Unicode injection.
	TypeRune(r rune) bool

	// ModifierKeyCode returns the key code for a single modifier.
	ModifierKeyCode(m Modifier) (int, bool)

	// KeyCode resolves a character to a key code for the active keyboard
	// layout, or returns NotFound. Shifted characters resolve to the key
	// which produces them together with Shift.
	KeyCode(r rune) int
}
