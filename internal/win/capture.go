//go:build windows

package win

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/lxn/win"

	"github.com/tesselslate/deskctl/internal/calib"
	"github.com/tesselslate/deskctl/internal/capture"
)

const cursorShowing = 0x00000001

// cursorInfo is struct CURSORINFO.
type cursorInfo struct {
	CbSize      uint32
	Flags       uint32
	HCursor     win.HCURSOR
	PtScreenPos win.POINT
}

var errBlit = errors.New("BitBlt failed")

// Capturer grabs monitor contents with GDI. The cursor is drawn into each
// frame with DrawIconEx. It implements capture.Source.
type Capturer struct{}

// Capturer returns the capture source.
func (c *Client) Capturer() *Capturer {
	return &Capturer{}
}

// Count returns the number of monitors.
func (s *Capturer) Count() int {
	mons, err := enumMonitors()
	if err != nil {
		return 0
	}
	return len(mons)
}

// Describe returns the monitor index and geometry.
func (s *Capturer) Describe(i int) string {
	mons, err := enumMonitors()
	if err != nil || i < 0 || i >= len(mons) {
		return ""
	}
	r := rectOf(mons[i].rect)
	return fmt.Sprintf("Windows Monitor %d %dx%d+%d+%d (%d dpi)", i, r.W, r.H, r.X, r.Y, mons[i].dpi)
}

// RendersCursor returns true.
func (s *Capturer) RendersCursor() bool {
	return true
}

// Cursor always fails. Grab draws the cursor itself.
func (s *Capturer) Cursor() (*capture.Cursor, error) {
	return nil, capture.ErrNoCursor
}

// Grab copies monitor i from the screen and draws the cursor over it.
func (s *Capturer) Grab(i int) (*capture.Image, calib.Rect, error) {
	mons, err := enumMonitors()
	if err != nil {
		return nil, calib.Rect{}, err
	}
	if i < 0 || i >= len(mons) {
		return nil, calib.Rect{}, capture.ErrDisplayIndex
	}
	r := rectOf(mons[i].rect)
	img, err := grab(r)
	if err != nil {
		return nil, calib.Rect{}, err
	}
	return img, r, nil
}

func grab(r calib.Rect) (*capture.Image, error) {
	screen := win.GetDC(0)
	if screen == 0 {
		return nil, errors.New("GetDC failed")
	}
	defer win.ReleaseDC(0, screen)
	mem := win.CreateCompatibleDC(screen)
	if mem == 0 {
		return nil, errors.New("CreateCompatibleDC failed")
	}
	defer win.DeleteDC(mem)
	bmp := win.CreateCompatibleBitmap(screen, int32(r.W), int32(r.H))
	if bmp == 0 {
		return nil, errors.New("CreateCompatibleBitmap failed")
	}
	defer win.DeleteObject(win.HGDIOBJ(bmp))
	old := win.SelectObject(mem, win.HGDIOBJ(bmp))
	defer win.SelectObject(mem, old)

	if !win.BitBlt(mem, 0, 0, int32(r.W), int32(r.H), screen, int32(r.X), int32(r.Y), win.SRCCOPY|win.CAPTUREBLT) {
		return nil, errBlit
	}
	drawCursor(mem, r)

	hdr := win.BITMAPINFOHEADER{
		BiWidth:       int32(r.W),
		BiHeight:      -int32(r.H),
		BiPlanes:      1,
		BiBitCount:    32,
		BiCompression: win.BI_RGB,
	}
	hdr.BiSize = uint32(unsafe.Sizeof(hdr))
	info := win.BITMAPINFO{BmiHeader: hdr}
	img := capture.NewImage(r.W, r.H)
	if len(img.Pix) == 0 {
		return img, nil
	}
	// GetDIBits needs the bitmap deselected.
	win.SelectObject(mem, old)
	lines := win.GetDIBits(mem, bmp, 0, uint32(r.H), &img.Pix[0], &info, win.DIB_RGB_COLORS)
	if lines != int32(r.H) {
		return nil, fmt.Errorf("GetDIBits: got %d lines, want %d", lines, r.H)
	}
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+2] = img.Pix[i+2], img.Pix[i]
		img.Pix[i+3] = 0xFF
	}
	return img, nil
}

// drawCursor draws the visible cursor into dc, which holds the contents of
// the monitor at r.
func drawCursor(dc win.HDC, r calib.Rect) {
	var ci cursorInfo
	ci.CbSize = uint32(unsafe.Sizeof(ci))
	if ret, _, _ := procGetCursorInfo.Call(uintptr(unsafe.Pointer(&ci))); ret == 0 {
		return
	}
	if ci.Flags&cursorShowing == 0 || ci.HCursor == 0 {
		return
	}
	var ii win.ICONINFO
	if !win.GetIconInfo(win.HICON(ci.HCursor), &ii) {
		return
	}
	if ii.HbmMask != 0 {
		win.DeleteObject(win.HGDIOBJ(ii.HbmMask))
	}
	if ii.HbmColor != 0 {
		win.DeleteObject(win.HGDIOBJ(ii.HbmColor))
	}
	x := int(ci.PtScreenPos.X) - int(ii.XHotspot) - r.X
	y := int(ci.PtScreenPos.Y) - int(ii.YHotspot) - r.Y
	win.DrawIconEx(dc, int32(x), int32(y), win.HICON(ci.HCursor), 0, 0, 0, 0, win.DI_NORMAL)
}
