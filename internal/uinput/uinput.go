//go:build linux

// Package uinput injects input through a virtual device created with the
// Linux uinput module. It works under any display server but needs write
// access to /dev/uinput. The kernel only accepts relative pointer motion
// from the device, so absolute moves are made relative to the last position
// this package moved the pointer to.
package uinput

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/tesselslate/deskctl/internal/input"
)

const (
	devicePath = "/dev/uinput"
	deviceName = "deskctl-virtual-input"
	busUSB     = 0x03
	vendorID   = 0x1234
	productID  = 0x5678

	synReport = 0x00
	relX      = 0x00
	relY      = 0x01
	relHWheel = 0x06
	relWheel  = 0x08

	// uinput ioctl commands
	uiSetEvbit   = 0x40045564 // _IOW('U', 100, int)
	uiSetKeybit  = 0x40045565 // _IOW('U', 101, int)
	uiSetRelbit  = 0x40045566 // _IOW('U', 102, int)
	uiDevCreate  = 0x5501     // _IO('U', 1)
	uiDevDestroy = 0x5502     // _IO('U', 2)
)

// userDev is the legacy struct uinput_user_dev, written to the device before
// UI_DEV_CREATE.
type userDev struct {
	Name [80]byte
	ID   struct {
		Bustype uint16
		Vendor  uint16
		Product uint16
		Version uint16
	}
	FFEffectsMax uint32
	Absmax       [64]int32
	Absmin       [64]int32
	Absfuzz      [64]int32
	Absflat      [64]int32
}

// event is struct input_event.
type event struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// Device is a virtual mouse and keyboard. It implements the pointer and key
// injector interfaces of the input package with evdev key codes.
type Device struct {
	file *os.File

	mu  sync.Mutex
	buf bytes.Buffer
	x   int
	y   int
	err error
}

// Open creates the virtual device.
func Open() (*Device, error) {
	file, err := os.OpenFile(devicePath, os.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("open uinput: %w", err)
	}
	d := &Device{file: file}
	if err := d.setup(); err != nil {
		file.Close()
		return nil, fmt.Errorf("create uinput device: %w", err)
	}
	return d, nil
}

func (d *Device) setup() error {
	fd := int(d.file.Fd())
	for _, ev := range []int{unix.EV_KEY, unix.EV_REL, unix.EV_SYN} {
		if err := unix.IoctlSetInt(fd, uiSetEvbit, ev); err != nil {
			return fmt.Errorf("set event bit %d: %w", ev, err)
		}
	}
	for _, rel := range []int{relX, relY, relWheel, relHWheel} {
		if err := unix.IoctlSetInt(fd, uiSetRelbit, rel); err != nil {
			return fmt.Errorf("set rel bit %d: %w", rel, err)
		}
	}
	keys := append(input.EvdevKeyCodes(), input.EvdevBtnLeft, input.EvdevBtnRight, input.EvdevBtnMiddle)
	for _, code := range keys {
		if err := unix.IoctlSetInt(fd, uiSetKeybit, code); err != nil {
			return fmt.Errorf("set key bit %d: %w", code, err)
		}
	}

	var dev userDev
	copy(dev.Name[:], deviceName)
	dev.ID.Bustype = busUSB
	dev.ID.Vendor = vendorID
	dev.ID.Product = productID
	dev.ID.Version = 1
	if err := binary.Write(d.file, binary.NativeEndian, &dev); err != nil {
		return fmt.Errorf("write device info: %w", err)
	}
	return unix.IoctlSetInt(fd, uiDevCreate, 0)
}

// Close destroys the virtual device.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_ = unix.IoctlSetInt(int(d.file.Fd()), uiDevDestroy, 0)
	return d.file.Close()
}

// Err returns the first write error, if any. Injection methods do not report
// errors themselves.
func (d *Device) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// emit writes a batch of events followed by a sync report.
func (d *Device) emit(events ...event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buf.Reset()
	now := unix.NsecToTimeval(time.Now().UnixNano())
	events = append(events, event{Type: unix.EV_SYN, Code: synReport})
	for _, ev := range events {
		ev.Time = now
		_ = binary.Write(&d.buf, binary.NativeEndian, &ev)
	}
	if _, err := d.file.Write(d.buf.Bytes()); err != nil && d.err == nil {
		d.err = err
	}
}

func rel(code uint16, v int) event {
	return event{Type: unix.EV_REL, Code: code, Value: int32(v)}
}

func key(code int, down bool) event {
	ev := event{Type: unix.EV_KEY, Code: uint16(code)}
	if down {
		ev.Value = 1
	}
	return ev
}

// MoveAbsolute moves the pointer by the difference between the target and
// the last position set through this device.
func (d *Device) MoveAbsolute(x, y int) {
	d.mu.Lock()
	dx, dy := x-d.x, y-d.y
	d.x, d.y = x, y
	d.mu.Unlock()
	if dx == 0 && dy == 0 {
		return
	}
	d.emit(rel(relX, dx), rel(relY, dy))
}

// DragMove moves the pointer while a button is held.
func (d *Device) DragMove(x, y int, _ input.Button) {
	d.MoveAbsolute(x, y)
}

// ButtonDown presses a mouse button.
func (d *Device) ButtonDown(b input.Button) {
	d.emit(key(input.EvdevButton(b), true))
}

// ButtonUp releases a mouse button.
func (d *Device) ButtonUp(b input.Button) {
	d.emit(key(input.EvdevButton(b), false))
}

// ScrollLines scrolls by wheel notches.
func (d *Device) ScrollLines(dx, dy int) {
	var events []event
	if dy != 0 {
		events = append(events, rel(relWheel, dy))
	}
	if dx != 0 {
		events = append(events, rel(relHWheel, dx))
	}
	if len(events) > 0 {
		d.emit(events...)
	}
}

// ScrollPixels scrolls by lines, as the device only reports whole notches.
func (d *Device) ScrollPixels(dx, dy int) {
	d.ScrollLines(dx, dy)
}

// KeyDown presses a key by its evdev code.
func (d *Device) KeyDown(code int) {
	d.emit(key(code, true))
}

// KeyUp releases a key by its evdev code.
func (d *Device) KeyUp(code int) {
	d.emit(key(code, false))
}

// TypeRune always returns false.
func (d *Device) TypeRune(rune) bool {
	return false
}

// ModifierKeyCode returns the evdev code of a modifier.
func (d *Device) ModifierKeyCode(m input.Modifier) (int, bool) {
	return input.EvdevModifier(m)
}

// KeyCode maps a character with a fixed US layout.
func (d *Device) KeyCode(r rune) int {
	return input.EvdevKeyCode(r)
}
