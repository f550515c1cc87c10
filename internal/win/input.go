//go:build windows

package win

import (
	"unicode/utf16"
	"unsafe"

	"github.com/lxn/win"

	"github.com/tesselslate/deskctl/internal/input"
)

const wheelDelta = 120

func sendMouse(inputs ...win.MOUSEINPUT) {
	if len(inputs) == 0 {
		return
	}
	batch := make([]win.MOUSE_INPUT, len(inputs))
	for i, mi := range inputs {
		batch[i] = win.MOUSE_INPUT{Type: win.INPUT_MOUSE, Mi: mi}
	}
	win.SendInput(uint32(len(batch)), unsafe.Pointer(&batch[0]), int32(unsafe.Sizeof(batch[0])))
}

func sendKeys(inputs ...win.KEYBDINPUT) {
	if len(inputs) == 0 {
		return
	}
	batch := make([]win.KEYBD_INPUT, len(inputs))
	for i, ki := range inputs {
		batch[i] = win.KEYBD_INPUT{Type: win.INPUT_KEYBOARD, Ki: ki}
	}
	win.SendInput(uint32(len(batch)), unsafe.Pointer(&batch[0]), int32(unsafe.Sizeof(batch[0])))
}

// absolute maps a virtual desktop position to the 0..65535 range used by
// MOUSEEVENTF_ABSOLUTE together with MOUSEEVENTF_VIRTUALDESK.
func absolute(x, y int) (int32, int32) {
	vx := int64(win.GetSystemMetrics(win.SM_XVIRTUALSCREEN))
	vy := int64(win.GetSystemMetrics(win.SM_YVIRTUALSCREEN))
	vw := int64(win.GetSystemMetrics(win.SM_CXVIRTUALSCREEN))
	vh := int64(win.GetSystemMetrics(win.SM_CYVIRTUALSCREEN))
	vw, vh = max(vw, 2), max(vh, 2)
	dx := (int64(x) - vx) * 65535 / (vw - 1)
	dy := (int64(y) - vy) * 65535 / (vh - 1)
	return int32(dx), int32(dy)
}

// MoveAbsolute moves the cursor to a position on the virtual desktop.
func (c *Client) MoveAbsolute(x, y int) {
	dx, dy := absolute(x, y)
	sendMouse(win.MOUSEINPUT{
		Dx:      dx,
		Dy:      dy,
		DwFlags: win.MOUSEEVENTF_MOVE | win.MOUSEEVENTF_ABSOLUTE | win.MOUSEEVENTF_VIRTUALDESK,
	})
}

// DragMove moves the cursor while a button is held.
func (c *Client) DragMove(x, y int, _ input.Button) {
	c.MoveAbsolute(x, y)
}

// ButtonDown presses a mouse button.
func (c *Client) ButtonDown(b input.Button) {
	var flags uint32
	switch b {
	case input.ButtonRight:
		flags = win.MOUSEEVENTF_RIGHTDOWN
	case input.ButtonMiddle:
		flags = win.MOUSEEVENTF_MIDDLEDOWN
	default:
		flags = win.MOUSEEVENTF_LEFTDOWN
	}
	sendMouse(win.MOUSEINPUT{DwFlags: flags})
}

// ButtonUp releases a mouse button.
func (c *Client) ButtonUp(b input.Button) {
	var flags uint32
	switch b {
	case input.ButtonRight:
		flags = win.MOUSEEVENTF_RIGHTUP
	case input.ButtonMiddle:
		flags = win.MOUSEEVENTF_MIDDLEUP
	default:
		flags = win.MOUSEEVENTF_LEFTUP
	}
	sendMouse(win.MOUSEINPUT{DwFlags: flags})
}

func wheel(flags uint32, delta int) win.MOUSEINPUT {
	return win.MOUSEINPUT{DwFlags: flags, MouseData: uint32(int32(delta))}
}

// ScrollLines scrolls by whole wheel notches.
func (c *Client) ScrollLines(dx, dy int) {
	var inputs []win.MOUSEINPUT
	if dy != 0 {
		inputs = append(inputs, wheel(win.MOUSEEVENTF_WHEEL, dy*wheelDelta))
	}
	if dx != 0 {
		inputs = append(inputs, wheel(win.MOUSEEVENTF_HWHEEL, dx*wheelDelta))
	}
	sendMouse(inputs...)
}

// ScrollPixels sends one event per pixel with a wheel delta of one, which
// applications supporting high resolution wheels scroll smoothly.
func (c *Client) ScrollPixels(dx, dy int) {
	inputs := make([]win.MOUSEINPUT, 0, abs(dx)+abs(dy))
	for i := 0; i < abs(dy); i++ {
		inputs = append(inputs, wheel(win.MOUSEEVENTF_WHEEL, sign(dy)))
	}
	for i := 0; i < abs(dx); i++ {
		inputs = append(inputs, wheel(win.MOUSEEVENTF_HWHEEL, sign(dx)))
	}
	sendMouse(inputs...)
}

// KeyDown presses a key by its virtual key code.
func (c *Client) KeyDown(code int) {
	sendKeys(win.KEYBDINPUT{WVk: uint16(code)})
}

// KeyUp releases a key by its virtual key code.
func (c *Client) KeyUp(code int) {
	sendKeys(win.KEYBDINPUT{WVk: uint16(code), DwFlags: win.KEYEVENTF_KEYUP})
}

// TypeRune inserts a character with KEYEVENTF_UNICODE. Characters outside
// the basic multilingual plane are sent as a surrogate pair.
func (c *Client) TypeRune(r rune) bool {
	units := utf16.Encode([]rune{r})
	inputs := make([]win.KEYBDINPUT, 0, len(units)*2)
	for _, u := range units {
		inputs = append(inputs, win.KEYBDINPUT{WScan: u, DwFlags: win.KEYEVENTF_UNICODE})
	}
	for _, u := range units {
		inputs = append(inputs, win.KEYBDINPUT{WScan: u, DwFlags: win.KEYEVENTF_UNICODE | win.KEYEVENTF_KEYUP})
	}
	sendKeys(inputs...)
	return true
}

// ModifierKeyCode returns the virtual key code of a modifier.
func (c *Client) ModifierKeyCode(m input.Modifier) (int, bool) {
	switch m {
	case input.ModShift:
		return win.VK_SHIFT, true
	case input.ModControl:
		return win.VK_CONTROL, true
	case input.ModOption:
		return win.VK_MENU, true
	case input.ModCommand:
		return win.VK_LWIN, true
	}
	return 0, false
}

// KeyCode returns the virtual key code which produces the character in the
// active keyboard layout.
func (c *Client) KeyCode(r rune) int {
	if r > 0xFFFF {
		return input.NotFound
	}
	ret, _, _ := procVkKeyScanW.Call(uintptr(r))
	// The low byte is the key code and the high byte the shift state. Both
	// are 0xFF when there is no key.
	if int16(ret) == -1 {
		return input.NotFound
	}
	return int(ret & 0xFF)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	if v < 0 {
		return -1
	}
	return 1
}
