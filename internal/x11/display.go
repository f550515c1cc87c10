package x11

import (
	"errors"
	"fmt"

	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xfixes"
	"github.com/jezek/xgb/xproto"
	"golang.org/x/exp/slices"

	"github.com/tesselslate/deskctl/internal/calib"
	"github.com/tesselslate/deskctl/internal/capture"
)

var errNoPointer = errors.New("pointer not on this screen")

// Monitors returns the active monitors, ordered left to right and then top to
// bottom. X11 has no logical scaling, so logical and pixel sizes are equal.
// Without RandR the whole screen is reported as one monitor.
func (c *Client) Monitors() ([]calib.Monitor, error) {
	var mons []calib.Monitor
	if c.hasRandr {
		var err error
		mons, err = c.randrMonitors()
		if err != nil || len(mons) == 0 {
			mons, _ = c.crtcMonitors()
		}
	}
	if len(mons) == 0 {
		w, h := int(c.screen.WidthInPixels), int(c.screen.HeightInPixels)
		mons = []calib.Monitor{{
			Name:    "screen",
			Bounds:  calib.Rect{W: w, H: h},
			Pixels:  calib.Size{W: w, H: h},
			Primary: true,
		}}
	}
	slices.SortStableFunc(mons, func(a, b calib.Monitor) int {
		if a.Bounds.X != b.Bounds.X {
			return a.Bounds.X - b.Bounds.X
		}
		return a.Bounds.Y - b.Bounds.Y
	})
	return mons, nil
}

// Cursor returns the pointer position on the root window.
func (c *Client) Cursor() (calib.Point, error) {
	p, ok := c.CursorPosition()
	if !ok {
		return calib.Point{}, errNoPointer
	}
	return p, nil
}

func (c *Client) randrMonitors() ([]calib.Monitor, error) {
	reply, err := randr.GetMonitors(c.conn, c.root, true).Reply()
	if err != nil {
		return nil, err
	}
	mons := make([]calib.Monitor, 0, len(reply.Monitors))
	for _, m := range reply.Monitors {
		if m.Width == 0 || m.Height == 0 {
			continue
		}
		name, err := c.atoms.Name(m.Name)
		if err != nil {
			name = fmt.Sprintf("monitor-%d", m.Name)
		}
		mons = append(mons, makeMonitor(name, int(m.X), int(m.Y), int(m.Width), int(m.Height), m.Primary))
	}
	return mons, nil
}

// crtcMonitors lists monitors from CRTCs, for servers older than RandR 1.5.
func (c *Client) crtcMonitors() ([]calib.Monitor, error) {
	res, err := randr.GetScreenResourcesCurrent(c.conn, c.root).Reply()
	if err != nil {
		return nil, err
	}
	var mons []calib.Monitor
	for i, crtc := range res.Crtcs {
		info, err := randr.GetCrtcInfo(c.conn, crtc, res.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		if info.NumOutputs == 0 || info.Mode == 0 || info.Width == 0 || info.Height == 0 {
			continue
		}
		name := fmt.Sprintf("crtc-%d", i)
		mons = append(mons, makeMonitor(name, int(info.X), int(info.Y), int(info.Width), int(info.Height), len(mons) == 0))
	}
	return mons, nil
}

func makeMonitor(name string, x, y, w, h int, primary bool) calib.Monitor {
	return calib.Monitor{
		Name:    name,
		Bounds:  calib.Rect{X: x, Y: y, W: w, H: h},
		Pixels:  calib.Size{W: w, H: h},
		Primary: primary,
	}
}

// Capturer grabs monitor contents from the root window. It implements
// capture.Source.
type Capturer struct {
	c *Client
}

// Capturer returns a capture source backed by the client's connection.
func (c *Client) Capturer() *Capturer {
	return &Capturer{c}
}

// Count returns the number of monitors.
func (s *Capturer) Count() int {
	mons, err := s.c.Monitors()
	if err != nil {
		return 0
	}
	return len(mons)
}

// Describe returns the monitor's RandR name and geometry.
func (s *Capturer) Describe(i int) string {
	mons, err := s.c.Monitors()
	if err != nil || i < 0 || i >= len(mons) {
		return ""
	}
	b := mons[i].Bounds
	return fmt.Sprintf("X11 monitor %d (%s) %dx%d+%d+%d", i, mons[i].Name, b.W, b.H, b.X, b.Y)
}

// RendersCursor returns false; GetImage never includes the cursor.
func (s *Capturer) RendersCursor() bool {
	return false
}

// Grab reads the pixels of monitor i from the root window.
func (s *Capturer) Grab(i int) (*capture.Image, calib.Rect, error) {
	mons, err := s.c.Monitors()
	if err != nil {
		return nil, calib.Rect{}, err
	}
	if i < 0 || i >= len(mons) {
		return nil, calib.Rect{}, capture.ErrDisplayIndex
	}
	b := mons[i].Bounds
	reply, err := xproto.GetImage(
		s.c.conn,
		xproto.ImageFormatZPixmap,
		xproto.Drawable(s.c.root),
		int16(b.X),
		int16(b.Y),
		uint16(b.W),
		uint16(b.H),
		0xFFFFFFFF,
	).Reply()
	if err != nil {
		return nil, calib.Rect{}, fmt.Errorf("get image: %w", err)
	}
	img, err := decodeZPixmap(reply.Data, b.W, b.H, s.c.format)
	if err != nil {
		return nil, calib.Rect{}, err
	}
	return img, b, nil
}

// Cursor reads the current cursor image with XFixes.
func (s *Capturer) Cursor() (*capture.Cursor, error) {
	if !s.c.hasXfixes {
		return nil, capture.ErrNoCursor
	}
	reply, err := xfixes.GetCursorImage(s.c.conn).Reply()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", capture.ErrNoCursor, err)
	}
	return capture.CursorFromARGB(
		int(reply.Width),
		int(reply.Height),
		reply.CursorImage,
		calib.Point{X: int(reply.Xhot), Y: int(reply.Yhot)},
		calib.Point{X: int(reply.X), Y: int(reply.Y)},
	), nil
}

// decodeZPixmap converts ZPixmap image data to RGBA using the channel masks
// of the root visual.
func decodeZPixmap(data []byte, w, h int, f pixelFormat) (*capture.Image, error) {
	bpp := f.bitsPerPixel
	if bpp != 16 && bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("unsupported pixel format: %d bits per pixel", bpp)
	}
	pad := f.scanlinePad
	if pad == 0 {
		pad = 32
	}
	stride := (w*bpp + pad - 1) / pad * pad / 8
	if len(data) < stride*h {
		return nil, fmt.Errorf("short image: got %d bytes, want %d", len(data), stride*h)
	}
	size := bpp / 8
	img := capture.NewImage(w, h)
	for y := 0; y < h; y++ {
		row := data[y*stride:]
		for x := 0; x < w; x++ {
			px := readPixel(row[x*size:x*size+size], f.msbFirst)
			i := (y*w + x) * 4
			img.Pix[i+0] = capture.ExtractChannel(px, f.red)
			img.Pix[i+1] = capture.ExtractChannel(px, f.green)
			img.Pix[i+2] = capture.ExtractChannel(px, f.blue)
		}
	}
	return img, nil
}

func readPixel(b []byte, msbFirst bool) uint32 {
	var v uint32
	if msbFirst {
		for _, c := range b {
			v = v<<8 | uint32(c)
		}
		return v
	}
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint32(b[i])
	}
	return v
}
