// Package x11 provides a client for injecting input into and capturing the
// contents of an X server. Input is sent with the XTEST extension, monitors
// are listed with RandR and the cursor image is read with XFixes.
package x11

import (
	"errors"
	"fmt"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xfixes"
	"github.com/jezek/xgb/xproto"
	"github.com/jezek/xgb/xtest"
)

// Error types
var (
	ErrConnectionDied = errors.New("connection with X server closed")
	errNoVisual       = errors.New("root visual not found")
)

// Client maintains a connection with the X server. It implements the pointer,
// key and cursor interfaces of the input package and calib.Source. All
// methods are safe for concurrent use.
type Client struct {
	atoms  atomCache     // Atom name cache
	conn   *xgb.Conn     // The X server connection
	root   xproto.Window // Root window
	screen *xproto.ScreenInfo
	format pixelFormat

	// Optional extensions. Their absence degrades features instead of
	// failing the connection.
	hasRandr  bool
	hasXfixes bool

	keymap keymap
}

// pixelFormat describes how root window pixels are laid out in a ZPixmap
// image.
type pixelFormat struct {
	bitsPerPixel int
	scanlinePad  int
	msbFirst     bool
	red          uint32
	green        uint32
	blue         uint32
}

// NewClient connects to the X server named by $DISPLAY. The XTEST extension
// is required; RandR and XFixes are used when present.
func NewClient() (*Client, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	if err := xtest.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init XTEST: %w", err)
	}
	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)
	format, err := rootFormat(setup, screen)
	if err != nil {
		conn.Close()
		return nil, err
	}
	c := &Client{
		atoms: atomCache{
			conn: conn,
			data: make(map[xproto.Atom]string),
		},
		conn:   conn,
		root:   screen.Root,
		screen: screen,
		format: format,
	}
	if err := randr.Init(conn); err == nil {
		_, err = randr.QueryVersion(conn, 1, 5).Reply()
		c.hasRandr = err == nil
	}
	if err := xfixes.Init(conn); err == nil {
		_, err = xfixes.QueryVersion(conn, 4, 0).Reply()
		c.hasXfixes = err == nil
	}
	if err := c.keymap.load(conn, setup); err != nil {
		conn.Close()
		return nil, fmt.Errorf("get keyboard mapping: %w", err)
	}
	go c.drain()
	return c, nil
}

// Close flushes any pending requests and closes the connection.
func (c *Client) Close() error {
	err := c.sync()
	c.conn.Close()
	return err
}

// HasCursorImage reports whether the cursor image can be read.
func (c *Client) HasCursorImage() bool {
	return c.hasXfixes
}

// sync performs a round trip so that every request sent before it has been
// processed by the server.
func (c *Client) sync() error {
	reply, err := xproto.GetInputFocus(c.conn).Reply()
	if err != nil {
		return err
	}
	if reply == nil {
		return ErrConnectionDied
	}
	return nil
}

// drain discards events and asynchronous errors from unchecked requests so
// that the connection's event queue never fills. It returns once the
// connection is closed.
func (c *Client) drain() {
	for {
		// WaitForEvent returns two nils when the connection is closed.
		evt, err := c.conn.WaitForEvent()
		if evt == nil && err == nil {
			return
		}
	}
}

// rootFormat finds the pixel layout of the default screen's root visual.
func rootFormat(setup *xproto.SetupInfo, screen *xproto.ScreenInfo) (pixelFormat, error) {
	f := pixelFormat{msbFirst: setup.ImageByteOrder != xproto.ImageOrderLSBFirst}
	for _, pf := range setup.PixmapFormats {
		if pf.Depth == screen.RootDepth {
			f.bitsPerPixel = int(pf.BitsPerPixel)
			f.scanlinePad = int(pf.ScanlinePad)
		}
	}
	for _, depth := range screen.AllowedDepths {
		for _, visual := range depth.Visuals {
			if visual.VisualId == screen.RootVisual {
				f.red = visual.RedMask
				f.green = visual.GreenMask
				f.blue = visual.BlueMask
				return f, nil
			}
		}
	}
	return f, errNoVisual
}
