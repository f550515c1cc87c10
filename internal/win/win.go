//go:build windows

// Package win implements input injection and screen capture with the Win32
// API. The process is made per-monitor DPI aware on startup, so monitor
// bounds, cursor positions and captured frames all use physical pixels.
package win

import (
	"fmt"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"

	"github.com/tesselslate/deskctl/internal/calib"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	shcore = windows.NewLazySystemDLL("shcore.dll")

	procEnumDisplayMonitors           = user32.NewProc("EnumDisplayMonitors")
	procGetCursorInfo                 = user32.NewProc("GetCursorInfo")
	procVkKeyScanW                    = user32.NewProc("VkKeyScanW")
	procSetProcessDpiAwarenessContext = user32.NewProc("SetProcessDpiAwarenessContext")
	procGetDpiForMonitor              = shcore.NewProc("GetDpiForMonitor")
)

const (
	mdtEffectiveDpi = 0
	defaultDpi      = 96

	// DPI_AWARENESS_CONTEXT_PER_MONITOR_AWARE_V2, which is (HANDLE)-4.
	dpiPerMonitorAwareV2 = ^uintptr(3)
)

// monitor is a display as reported by EnumDisplayMonitors.
type monitor struct {
	handle  win.HMONITOR
	rect    win.RECT
	primary bool
	dpi     uint32
}

// Client is the Windows backend. It implements the input package's
// injector interfaces and calib.Source; Capturer returns its capture.Source.
type Client struct{}

// New prepares the process for injection and capture.
func New() (*Client, error) {
	if err := procSetProcessDpiAwarenessContext.Find(); err == nil {
		// Fails harmlessly if the awareness was already set by a manifest.
		procSetProcessDpiAwarenessContext.Call(dpiPerMonitorAwareV2)
	}
	if _, err := enumMonitors(); err != nil {
		return nil, err
	}
	return &Client{}, nil
}

// Close does nothing; the backend holds no resources.
func (c *Client) Close() error {
	return nil
}

// enumMonitors lists the monitors in the order the system reports them.
func enumMonitors() ([]monitor, error) {
	var mons []monitor
	cb := windows.NewCallback(func(h win.HMONITOR, _ win.HDC, _ *win.RECT, _ uintptr) uintptr {
		info := win.MONITORINFO{}
		info.CbSize = uint32(unsafe.Sizeof(info))
		if !win.GetMonitorInfo(h, &info) {
			return 1
		}
		mons = append(mons, monitor{
			handle:  h,
			rect:    info.RcMonitor,
			primary: info.DwFlags&win.MONITORINFOF_PRIMARY != 0,
			dpi:     monitorDpi(h),
		})
		return 1
	})
	ret, _, err := procEnumDisplayMonitors.Call(0, 0, cb, 0)
	if ret == 0 {
		return nil, fmt.Errorf("enumerate monitors: %w", err)
	}
	return mons, nil
}

func monitorDpi(h win.HMONITOR) uint32 {
	if err := procGetDpiForMonitor.Find(); err != nil {
		return defaultDpi
	}
	var x, y uint32
	hr, _, _ := procGetDpiForMonitor.Call(
		uintptr(h),
		mdtEffectiveDpi,
		uintptr(unsafe.Pointer(&x)),
		uintptr(unsafe.Pointer(&y)),
	)
	if hr != 0 || x == 0 {
		return defaultDpi
	}
	return x
}

// Monitors returns the monitors in enumeration order. The process is DPI
// aware, so logical and pixel sizes are equal.
func (c *Client) Monitors() ([]calib.Monitor, error) {
	mons, err := enumMonitors()
	if err != nil {
		return nil, err
	}
	out := make([]calib.Monitor, 0, len(mons))
	for i, m := range mons {
		r := rectOf(m.rect)
		out = append(out, calib.Monitor{
			Name:    fmt.Sprintf("monitor-%d", i),
			Bounds:  r,
			Pixels:  calib.Size{W: r.W, H: r.H},
			Primary: m.primary,
		})
	}
	return out, nil
}

// Cursor returns the cursor position on the virtual desktop.
func (c *Client) Cursor() (calib.Point, error) {
	p, ok := c.CursorPosition()
	if !ok {
		return calib.Point{}, syscall.Errno(win.GetLastError())
	}
	return p, nil
}

// CursorPosition returns the cursor position on the virtual desktop.
func (c *Client) CursorPosition() (calib.Point, bool) {
	var p win.POINT
	if !win.GetCursorPos(&p) {
		return calib.Point{}, false
	}
	return calib.Point{X: int(p.X), Y: int(p.Y)}, true
}

func rectOf(r win.RECT) calib.Rect {
	return calib.Rect{
		X: int(r.Left),
		Y: int(r.Top),
		W: int(r.Right - r.Left),
		H: int(r.Bottom - r.Top),
	}
}
