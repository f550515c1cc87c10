//go:build linux

// Package wlr injects input on wlroots based Wayland compositors (Sway,
// Hyprland, river and others) through the virtual pointer and virtual
// keyboard protocols.
package wlr

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/wayland-virtual-input-go/virtual_keyboard"
	"github.com/bnema/wayland-virtual-input-go/virtual_pointer"
	"github.com/rajveermalviya/go-wayland/wayland/client"

	"github.com/tesselslate/deskctl/internal/calib"
	"github.com/tesselslate/deskctl/internal/input"
)

// lineStep is the axis distance of one wheel notch.
const lineStep = 15.0

// XKB modifier masks sent alongside modifier key events.
const (
	xkbShift   uint32 = 1 << 0
	xkbControl uint32 = 1 << 2
	xkbMod1    uint32 = 1 << 3
	xkbMod4    uint32 = 1 << 6
)

var errNoKeyboard = errors.New("virtual keyboard unavailable")

// Device is a virtual pointer and keyboard. It implements the pointer and key
// injector interfaces of the input package with evdev key codes.
type Device struct {
	pointerMgr  *virtual_pointer.VirtualPointerManager
	keyboardMgr *virtual_keyboard.VirtualKeyboardManager
	pointer     *virtual_pointer.VirtualPointer
	keyboard    *virtual_keyboard.VirtualKeyboard

	// Extent of the absolute motion coordinate space.
	width  uint32
	height uint32

	// Warnings lists protocols which could not be set up. The device still
	// works without them.
	Warnings []error

	mu   sync.Mutex
	mods uint32
	err  error
}

// Reachable checks that a Wayland compositor is reachable.
func Reachable() error {
	display, err := client.Connect("")
	if err != nil {
		return fmt.Errorf("connect to Wayland display: %w", err)
	}
	return display.Destroy()
}

// Open creates the virtual devices. extent is the logical size of the desktop
// used to scale absolute motion. A missing virtual keyboard protocol is
// added to Warnings and the returned device still injects pointer events.
func Open(ctx context.Context, extent calib.Size) (*Device, error) {
	if err := Reachable(); err != nil {
		return nil, err
	}
	d := &Device{width: uint32(extent.W), height: uint32(extent.H)}

	pointerMgr, err := virtual_pointer.NewVirtualPointerManager(ctx)
	if err != nil {
		return nil, fmt.Errorf("create virtual pointer manager: %w", err)
	}
	d.pointerMgr = pointerMgr
	pointer, err := pointerMgr.CreatePointer()
	if err != nil {
		pointerMgr.Close()
		return nil, fmt.Errorf("create virtual pointer: %w", err)
	}
	d.pointer = pointer

	keyboardMgr, err := virtual_keyboard.NewVirtualKeyboardManager(ctx)
	if err == nil {
		d.keyboardMgr = keyboardMgr
		d.keyboard, err = keyboardMgr.CreateKeyboard()
	}
	if err != nil {
		d.Warnings = append(d.Warnings, fmt.Errorf("%w: %s", errNoKeyboard, err))
	}
	return d, nil
}

// Close destroys the virtual devices.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var errs []error
	if d.keyboard != nil {
		errs = append(errs, d.keyboard.Close())
	}
	if d.keyboardMgr != nil {
		errs = append(errs, d.keyboardMgr.Close())
	}
	errs = append(errs, d.pointer.Close(), d.pointerMgr.Close())
	return errors.Join(errs...)
}

// Err returns the first protocol error, if any.
func (d *Device) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func (d *Device) check(err error) {
	if err != nil && d.err == nil {
		d.err = err
	}
}

// pointerFrame runs fn and ends the pointer frame.
func (d *Device) pointerFrame(fn func(now time.Time) error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := fn(time.Now()); err != nil {
		d.check(err)
		return
	}
	d.check(d.pointer.Frame())
}

// MoveAbsolute moves the pointer to a logical position.
func (d *Device) MoveAbsolute(x, y int) {
	d.pointerFrame(func(now time.Time) error {
		return d.pointer.MotionAbsolute(now, uint32(max(x, 0)), uint32(max(y, 0)), d.width, d.height)
	})
}

// DragMove moves the pointer while a button is held.
func (d *Device) DragMove(x, y int, _ input.Button) {
	d.MoveAbsolute(x, y)
}

func (d *Device) button(b input.Button, state virtual_pointer.ButtonState) {
	var code uint32
	switch b {
	case input.ButtonRight:
		code = virtual_pointer.BTN_RIGHT
	case input.ButtonMiddle:
		code = virtual_pointer.BTN_MIDDLE
	default:
		code = virtual_pointer.BTN_LEFT
	}
	d.pointerFrame(func(now time.Time) error {
		return d.pointer.Button(now, code, state)
	})
}

// ButtonDown presses a mouse button.
func (d *Device) ButtonDown(b input.Button) {
	d.button(b, virtual_pointer.ButtonStatePressed)
}

// ButtonUp releases a mouse button.
func (d *Device) ButtonUp(b input.Button) {
	d.button(b, virtual_pointer.ButtonStateReleased)
}

// axis sends scroll motion. Wayland axes grow downwards, so the vertical value
// is negated.
func (d *Device) axis(dx, dy float64) {
	d.pointerFrame(func(now time.Time) error {
		if err := d.pointer.AxisSource(virtual_pointer.AxisSourceWheel); err != nil {
			return err
		}
		if dy != 0 {
			if err := d.pointer.Axis(now, virtual_pointer.AxisVertical, -dy); err != nil {
				return err
			}
		}
		if dx != 0 {
			return d.pointer.Axis(now, virtual_pointer.AxisHorizontal, dx)
		}
		return nil
	})
}

// ScrollLines scrolls by wheel notches.
func (d *Device) ScrollLines(dx, dy int) {
	d.axis(float64(dx)*lineStep, float64(dy)*lineStep)
}

// ScrollPixels scrolls by surface pixels.
func (d *Device) ScrollPixels(dx, dy int) {
	d.axis(float64(dx), float64(dy))
}

func (d *Device) key(code int, state virtual_keyboard.KeyState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.keyboard == nil {
		d.check(errNoKeyboard)
		return
	}
	d.check(d.keyboard.Key(time.Now(), uint32(code), state))

	mask := modifierMask(code)
	if mask == 0 {
		return
	}
	if state == virtual_keyboard.KeyStatePressed {
		d.mods |= mask
	} else {
		d.mods &^= mask
	}
	d.check(d.keyboard.Modifiers(d.mods, 0, 0, 0))
}

func modifierMask(code int) uint32 {
	switch code {
	case input.EvdevKeyLeftShift:
		return xkbShift
	case input.EvdevKeyLeftCtrl:
		return xkbControl
	case input.EvdevKeyLeftAlt:
		return xkbMod1
	case input.EvdevKeyLeftMeta:
		return xkbMod4
	}
	return 0
}

// KeyDown presses a key by its evdev code.
func (d *Device) KeyDown(code int) {
	d.key(code, virtual_keyboard.KeyStatePressed)
}

// KeyUp releases a key by its evdev code.
func (d *Device) KeyUp(code int) {
	d.key(code, virtual_keyboard.KeyStateReleased)
}

// TypeRune always returns false.
func (d *Device) TypeRune(rune) bool {
	return false
}

// ModifierKeyCode returns the evdev code of a modifier.
func (d *Device) ModifierKeyCode(m input.Modifier) (int, bool) {
	return input.EvdevModifier(m)
}

// KeyCode maps a character with the fixed US layout the virtual keyboard
// uses.
func (d *Device) KeyCode(r rune) int {
	return input.EvdevKeyCode(r)
}
