//go:build darwin && cgo

// Package macos injects input with Quartz event services and enumerates
// displays with CoreGraphics. The process needs the Accessibility permission
// for events to be delivered, and Screen Recording for capture.
package macos

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation -framework Carbon
#include <Carbon/Carbon.h>
#include <CoreGraphics/CoreGraphics.h>

static void postMouse(CGEventType type, double x, double y, CGMouseButton button) {
	CGEventRef ev = CGEventCreateMouseEvent(NULL, type, CGPointMake(x, y), button);
	if (ev) {
		CGEventPost(kCGHIDEventTap, ev);
		CFRelease(ev);
	}
}

static void postScroll(CGScrollEventUnit unit, int dx, int dy) {
	CGEventRef ev = CGEventCreateScrollWheelEvent(NULL, unit, 2, dy, dx);
	if (ev) {
		CGEventPost(kCGHIDEventTap, ev);
		CFRelease(ev);
	}
}

static void postKey(CGKeyCode code, bool down, CGEventFlags flags) {
	CGEventRef ev = CGEventCreateKeyboardEvent(NULL, code, down);
	if (ev) {
		CGEventSetFlags(ev, flags);
		CGEventPost(kCGAnnotatedSessionEventTap, ev);
		CFRelease(ev);
	}
}

static void postUnicode(const UniChar *chars, int n) {
	CGEventRef down = CGEventCreateKeyboardEvent(NULL, 0, true);
	CGEventRef up = CGEventCreateKeyboardEvent(NULL, 0, false);
	if (down && up) {
		CGEventKeyboardSetUnicodeString(down, n, chars);
		CGEventKeyboardSetUnicodeString(up, n, chars);
		CGEventPost(kCGAnnotatedSessionEventTap, down);
		CGEventPost(kCGAnnotatedSessionEventTap, up);
	}
	if (down) CFRelease(down);
	if (up) CFRelease(up);
}

static CGPoint cursorLocation(void) {
	CGEventRef ev = CGEventCreate(NULL);
	CGPoint p = CGPointZero;
	if (ev) {
		p = CGEventGetLocation(ev);
		CFRelease(ev);
	}
	return p;
}

// keyChar returns the character the key produces with no modifiers in the
// current keyboard layout, or 0.
static UniChar keyChar(CGKeyCode code) {
	TISInputSourceRef src = TISCopyCurrentKeyboardLayoutInputSource();
	if (!src) return 0;
	CFDataRef data = (CFDataRef)TISGetInputSourceProperty(src, kTISPropertyUnicodeKeyLayoutData);
	UniChar out = 0;
	if (data) {
		const UCKeyboardLayout *layout = (const UCKeyboardLayout *)CFDataGetBytePtr(data);
		UInt32 dead = 0;
		UniChar chars[4] = {0};
		UniCharCount n = 0;
		OSStatus st = UCKeyTranslate(layout, code, kUCKeyActionDisplay, 0, LMGetKbdType(),
			kUCKeyTranslateNoDeadKeysBit, &dead, 4, &n, chars);
		if (st == noErr && n > 0) out = chars[0];
	}
	CFRelease(src);
	return out;
}

static int displayList(CGDirectDisplayID *ids, int max) {
	uint32_t n = 0;
	if (CGGetActiveDisplayList(max, ids, &n) != kCGErrorSuccess) return -1;
	return (int)n;
}

static void displayPixels(CGDirectDisplayID id, size_t *w, size_t *h) {
	CGDisplayModeRef mode = CGDisplayCopyDisplayMode(id);
	if (mode) {
		*w = CGDisplayModeGetPixelWidth(mode);
		*h = CGDisplayModeGetPixelHeight(mode);
		CGDisplayModeRelease(mode);
	} else {
		*w = CGDisplayPixelsWide(id);
		*h = CGDisplayPixelsHigh(id);
	}
}
*/
import "C"

import (
	"errors"
	"fmt"
	"sync"
	"unicode/utf16"
	"unsafe"

	"github.com/tesselslate/deskctl/internal/calib"
	"github.com/tesselslate/deskctl/internal/input"
)

// Virtual key codes (Carbon kVK_*).
const (
	kvkReturn  = 0x24
	kvkTab     = 0x30
	kvkSpace   = 0x31
	kvkDelete  = 0x33
	kvkEscape  = 0x35
	kvkCommand = 0x37
	kvkShift   = 0x38
	kvkOption  = 0x3A
	kvkControl = 0x3B
)

// Event flag masks.
const (
	flagShift   = 0x00020000
	flagControl = 0x00040000
	flagOption  = 0x00080000
	flagCommand = 0x00100000
)

const maxDisplays = 16

var errNoDisplays = errors.New("no active displays")

// Client is the macOS backend. It implements the input package's injector
// interfaces and calib.Source; Capturer returns its capture.Source.
type Client struct {
	mu      sync.Mutex
	flags   C.CGEventFlags
	held    input.Button
	holding bool

	layoutOnce sync.Once
	layout     map[rune]int
}

// New creates the backend.
func New() (*Client, error) {
	if _, err := displays(); err != nil {
		return nil, err
	}
	return &Client{}, nil
}

// Close does nothing.
func (c *Client) Close() error {
	return nil
}

type display struct {
	id      C.CGDirectDisplayID
	bounds  calib.Rect
	pixels  calib.Size
	primary bool
}

func displays() ([]display, error) {
	var ids [maxDisplays]C.CGDirectDisplayID
	n := int(C.displayList(&ids[0], maxDisplays))
	if n < 0 {
		return nil, errors.New("CGGetActiveDisplayList failed")
	}
	if n == 0 {
		return nil, errNoDisplays
	}
	main := C.CGMainDisplayID()
	out := make([]display, 0, n)
	for _, id := range ids[:n] {
		b := C.CGDisplayBounds(id)
		var w, h C.size_t
		C.displayPixels(id, &w, &h)
		out = append(out, display{
			id: id,
			bounds: calib.Rect{
				X: int(b.origin.x),
				Y: int(b.origin.y),
				W: int(b.size.width),
				H: int(b.size.height),
			},
			pixels:  calib.Size{W: int(w), H: int(h)},
			primary: id == main,
		})
	}
	return out, nil
}

// Monitors returns the active displays. Bounds are in points and pixel sizes
// come from the current display mode, so Retina displays have a scale of 2.
func (c *Client) Monitors() ([]calib.Monitor, error) {
	ds, err := displays()
	if err != nil {
		return nil, err
	}
	mons := make([]calib.Monitor, len(ds))
	for i, d := range ds {
		mons[i] = calib.Monitor{
			Name:    fmt.Sprintf("display-%d", uint32(d.id)),
			Bounds:  d.bounds,
			Pixels:  d.pixels,
			Primary: d.primary,
		}
	}
	return mons, nil
}

// Cursor returns the cursor location in global points.
func (c *Client) Cursor() (calib.Point, error) {
	p, _ := c.CursorPosition()
	return p, nil
}

// CursorPosition returns the cursor location in global points.
func (c *Client) CursorPosition() (calib.Point, bool) {
	p := C.cursorLocation()
	return calib.Point{X: int(p.x), Y: int(p.y)}, true
}

func mouseButton(b input.Button) C.CGMouseButton {
	switch b {
	case input.ButtonRight:
		return C.kCGMouseButtonRight
	case input.ButtonMiddle:
		return C.kCGMouseButtonCenter
	default:
		return C.kCGMouseButtonLeft
	}
}

// MoveAbsolute moves the cursor. While a button is held the motion is posted
// as a drag so that applications see it.
func (c *Client) MoveAbsolute(x, y int) {
	c.mu.Lock()
	holding, b := c.holding, c.held
	c.mu.Unlock()
	if holding {
		c.DragMove(x, y, b)
		return
	}
	C.postMouse(C.kCGEventMouseMoved, C.double(x), C.double(y), C.kCGMouseButtonLeft)
}

// DragMove posts a dragged event for the button.
func (c *Client) DragMove(x, y int, b input.Button) {
	var typ C.CGEventType
	switch b {
	case input.ButtonRight:
		typ = C.kCGEventRightMouseDragged
	case input.ButtonMiddle:
		typ = C.kCGEventOtherMouseDragged
	default:
		typ = C.kCGEventLeftMouseDragged
	}
	C.postMouse(typ, C.double(x), C.double(y), mouseButton(b))
}

// ButtonDown presses a button at the cursor.
func (c *Client) ButtonDown(b input.Button) {
	var typ C.CGEventType
	switch b {
	case input.ButtonRight:
		typ = C.kCGEventRightMouseDown
	case input.ButtonMiddle:
		typ = C.kCGEventOtherMouseDown
	default:
		typ = C.kCGEventLeftMouseDown
	}
	c.mu.Lock()
	c.held, c.holding = b, true
	c.mu.Unlock()
	p := C.cursorLocation()
	C.postMouse(typ, C.double(p.x), C.double(p.y), mouseButton(b))
}

// ButtonUp releases a button at the cursor.
func (c *Client) ButtonUp(b input.Button) {
	var typ C.CGEventType
	switch b {
	case input.ButtonRight:
		typ = C.kCGEventRightMouseUp
	case input.ButtonMiddle:
		typ = C.kCGEventOtherMouseUp
	default:
		typ = C.kCGEventLeftMouseUp
	}
	c.mu.Lock()
	c.holding = false
	c.mu.Unlock()
	p := C.cursorLocation()
	C.postMouse(typ, C.double(p.x), C.double(p.y), mouseButton(b))
}

// ScrollLines scrolls by lines. Quartz scrolls left for a positive
// horizontal delta, so dx is negated.
func (c *Client) ScrollLines(dx, dy int) {
	C.postScroll(C.kCGScrollEventUnitLine, C.int(-dx), C.int(dy))
}

// ScrollPixels scrolls by pixels.
func (c *Client) ScrollPixels(dx, dy int) {
	C.postScroll(C.kCGScrollEventUnitPixel, C.int(-dx), C.int(dy))
}

func modifierFlag(code int) C.CGEventFlags {
	switch code {
	case kvkShift:
		return flagShift
	case kvkControl:
		return flagControl
	case kvkOption:
		return flagOption
	case kvkCommand:
		return flagCommand
	}
	return 0
}

func (c *Client) key(code int, down bool) {
	c.mu.Lock()
	if flag := modifierFlag(code); flag != 0 {
		if down {
			c.flags |= flag
		} else {
			c.flags &^= flag
		}
	}
	flags := c.flags
	c.mu.Unlock()
	C.postKey(C.CGKeyCode(code), C.bool(down), flags)
}

// KeyDown presses a key by its virtual key code. Held modifiers are applied
// as event flags.
func (c *Client) KeyDown(code int) {
	c.key(code, true)
}

// KeyUp releases a key by its virtual key code.
func (c *Client) KeyUp(code int) {
	c.key(code, false)
}

// TypeRune posts the character as a Unicode string event.
func (c *Client) TypeRune(r rune) bool {
	units := utf16.Encode([]rune{r})
	C.postUnicode((*C.UniChar)(unsafe.Pointer(&units[0])), C.int(len(units)))
	return true
}

// ModifierKeyCode returns the virtual key code of a modifier.
func (c *Client) ModifierKeyCode(m input.Modifier) (int, bool) {
	switch m {
	case input.ModShift:
		return kvkShift, true
	case input.ModControl:
		return kvkControl, true
	case input.ModOption:
		return kvkOption, true
	case input.ModCommand:
		return kvkCommand, true
	}
	return 0, false
}

// KeyCode returns the virtual key code which types the character in the
// current keyboard layout.
func (c *Client) KeyCode(r rune) int {
	switch r {
	case '\n', '\r':
		return kvkReturn
	case '\t':
		return kvkTab
	case ' ':
		return kvkSpace
	case '\b':
		return kvkDelete
	case '\x1b':
		return kvkEscape
	}
	c.layoutOnce.Do(c.loadLayout)
	if code, ok := c.layout[r]; ok {
		return code
	}
	if code, ok := c.layout[input.BaseKey(r)]; ok {
		return code
	}
	return input.NotFound
}

// loadLayout translates the first 128 key codes with the current layout.
// Lower codes win when two keys produce the same character.
func (c *Client) loadLayout() {
	c.layout = make(map[rune]int)
	for code := 0; code < 128; code++ {
		ch := rune(C.keyChar(C.CGKeyCode(code)))
		if ch == 0 {
			continue
		}
		if _, ok := c.layout[ch]; !ok {
			c.layout[ch] = code
		}
	}
}
