package x11

import (
	"github.com/jezek/xgb/xproto"
	"github.com/jezek/xgb/xtest"

	"github.com/tesselslate/deskctl/internal/calib"
	"github.com/tesselslate/deskctl/internal/input"
)

// Core pointer buttons. Scrolling is done by clicking the wheel buttons once
// per notch.
const (
	buttonLeft       byte = 1
	buttonMiddle     byte = 2
	buttonRight      byte = 3
	buttonWheelUp    byte = 4
	buttonWheelDown  byte = 5
	buttonWheelLeft  byte = 6
	buttonWheelRight byte = 7
)

func xButton(b input.Button) byte {
	switch b {
	case input.ButtonRight:
		return buttonRight
	case input.ButtonMiddle:
		return buttonMiddle
	default:
		return buttonLeft
	}
}

// fakeInput sends an XTEST event. Errors are delivered asynchronously and
// ignored.
func (c *Client) fakeInput(typ, detail byte, x, y int16) {
	xtest.FakeInput(c.conn, typ, detail, 0, c.root, x, y, 0)
}

// MoveAbsolute moves the pointer to the given root window position.
func (c *Client) MoveAbsolute(x, y int) {
	c.fakeInput(xproto.MotionNotify, 0, int16(x), int16(y))
}

// DragMove moves the pointer. The server tracks held buttons itself.
func (c *Client) DragMove(x, y int, _ input.Button) {
	c.MoveAbsolute(x, y)
}

// ButtonDown presses a mouse button.
func (c *Client) ButtonDown(b input.Button) {
	c.fakeInput(xproto.ButtonPress, xButton(b), 0, 0)
}

// ButtonUp releases a mouse button.
func (c *Client) ButtonUp(b input.Button) {
	c.fakeInput(xproto.ButtonRelease, xButton(b), 0, 0)
}

// ScrollLines clicks the wheel buttons once per line.
func (c *Client) ScrollLines(dx, dy int) {
	switch {
	case dy > 0:
		c.clickN(buttonWheelUp, dy)
	case dy < 0:
		c.clickN(buttonWheelDown, -dy)
	}
	switch {
	case dx > 0:
		c.clickN(buttonWheelRight, dx)
	case dx < 0:
		c.clickN(buttonWheelLeft, -dx)
	}
}

// ScrollPixels scrolls by lines, as the core protocol has no finer
// granularity.
func (c *Client) ScrollPixels(dx, dy int) {
	c.ScrollLines(dx, dy)
}

func (c *Client) clickN(button byte, n int) {
	for i := 0; i < n; i++ {
		c.fakeInput(xproto.ButtonPress, button, 0, 0)
		c.fakeInput(xproto.ButtonRelease, button, 0, 0)
	}
}

// CursorPosition returns the pointer position relative to the root window.
func (c *Client) CursorPosition() (calib.Point, bool) {
	reply, err := xproto.QueryPointer(c.conn, c.root).Reply()
	if err != nil || reply == nil {
		return calib.Point{}, false
	}
	return calib.Point{X: int(reply.RootX), Y: int(reply.RootY)}, true
}

// KeyDown presses a key by its X keycode.
func (c *Client) KeyDown(code int) {
	if code <= 0 || code > 255 {
		return
	}
	c.fakeInput(xproto.KeyPress, byte(code), 0, 0)
}

// KeyUp releases a key by its X keycode.
func (c *Client) KeyUp(code int) {
	if code <= 0 || code > 255 {
		return
	}
	c.fakeInput(xproto.KeyRelease, byte(code), 0, 0)
}

// TypeRune always returns false. Characters are typed by keycode.
func (c *Client) TypeRune(rune) bool {
	return false
}

// ModifierKeyCode returns the keycode of the left-hand key for a modifier.
func (c *Client) ModifierKeyCode(m input.Modifier) (int, bool) {
	var sym xproto.Keysym
	switch m {
	case input.ModShift:
		sym = xkShiftL
	case input.ModControl:
		sym = xkControlL
	case input.ModOption:
		sym = xkAltL
	case input.ModCommand:
		sym = xkSuperL
	default:
		return 0, false
	}
	code, ok := c.keymap.lookup(sym)
	return int(code), ok
}

// KeyCode returns the keycode which produces the given character in the
// server's current mapping, or input.NotFound.
func (c *Client) KeyCode(r rune) int {
	if code, ok := c.keymap.lookup(runeKeysym(r)); ok {
		return int(code)
	}
	// Keyboards without a separate uppercase keysym.
	if base := input.BaseKey(r); base != r {
		if code, ok := c.keymap.lookup(runeKeysym(base)); ok {
			return int(code)
		}
	}
	return input.NotFound
}
