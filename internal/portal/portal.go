//go:build linux

// Package portal captures the screen through the xdg-desktop-portal
// Screenshot interface, which works on Wayland compositors that do not allow
// clients to read the screen directly. The portal composites all monitors and
// the cursor into a single image.
package portal

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"

	"github.com/tesselslate/deskctl/internal/calib"
	"github.com/tesselslate/deskctl/internal/capture"
)

const (
	busName         = "org.freedesktop.portal.Desktop"
	objectPath      = "/org/freedesktop/portal/desktop"
	screenshotIface = "org.freedesktop.portal.Screenshot"
	requestIface    = "org.freedesktop.portal.Request"

	// DefaultTimeout is how long to wait for the portal to respond.
	DefaultTimeout = 5 * time.Second
)

// Error types
var (
	ErrTimeout   = errors.New("portal did not respond")
	ErrCancelled = errors.New("screenshot cancelled")
	ErrNoWayland = errors.New("not running under Wayland")
)

// Capturer takes screenshots through the portal. It implements
// capture.Source.
type Capturer struct {
	conn    *dbus.Conn
	timeout time.Duration
}

// Available reports whether a Wayland session is active.
func Available() bool {
	return os.Getenv("WAYLAND_DISPLAY") != ""
}

// New connects to the session bus.
func New() (*Capturer, error) {
	if !Available() {
		return nil, ErrNoWayland
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect to session bus: %w", err)
	}
	return &Capturer{conn: conn, timeout: DefaultTimeout}, nil
}

// Close closes the bus connection.
func (c *Capturer) Close() error {
	return c.conn.Close()
}

// Count returns 1. The portal does not expose individual monitors.
func (c *Capturer) Count() int {
	return 1
}

// Describe returns a fixed description.
func (c *Capturer) Describe(int) string {
	return "Linux Wayland (xdg-desktop-portal)"
}

// RendersCursor returns true. The cursor is part of the portal's image.
func (c *Capturer) RendersCursor() bool {
	return true
}

// Cursor always fails; the cursor is never read separately.
func (c *Capturer) Cursor() (*capture.Cursor, error) {
	return nil, capture.ErrNoCursor
}

// Grab takes a screenshot of the whole desktop.
func (c *Capturer) Grab(i int) (*capture.Image, calib.Rect, error) {
	if i != 0 {
		return nil, calib.Rect{}, capture.ErrDisplayIndex
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	uri, err := c.screenshot(ctx)
	if err != nil {
		return nil, calib.Rect{}, err
	}
	img, err := readPNG(uri)
	if err != nil {
		return nil, calib.Rect{}, err
	}
	return img, calib.Rect{W: img.Width, H: img.Height}, nil
}

// screenshot requests a screenshot and returns the URI of the saved file.
func (c *Capturer) screenshot(ctx context.Context) (string, error) {
	token := "deskctl_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	handle := requestPath(c.conn, token)

	// Subscribe before calling so that a fast response is not missed.
	match := []dbus.MatchOption{
		dbus.WithMatchObjectPath(handle),
		dbus.WithMatchInterface(requestIface),
		dbus.WithMatchMember("Response"),
	}
	if err := c.conn.AddMatchSignalContext(ctx, match...); err != nil {
		return "", fmt.Errorf("subscribe to portal response: %w", err)
	}
	defer c.conn.RemoveMatchSignal(match...)
	signals := make(chan *dbus.Signal, 4)
	c.conn.Signal(signals)
	defer c.conn.RemoveSignal(signals)

	opts := map[string]dbus.Variant{
		"handle_token":   dbus.MakeVariant(token),
		"interactive":    dbus.MakeVariant(false),
		"modal":          dbus.MakeVariant(false),
		"include-cursor": dbus.MakeVariant(true),
	}
	var got dbus.ObjectPath
	obj := c.conn.Object(busName, objectPath)
	err := obj.CallWithContext(ctx, screenshotIface+".Screenshot", 0, "", opts).Store(&got)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("request screenshot: %w", err)
	}
	// Old portals ignore handle_token.
	if got.IsValid() && got != handle {
		handle = got
		c.conn.AddMatchSignalContext(ctx, dbus.WithMatchObjectPath(handle), dbus.WithMatchMember("Response"))
		defer c.conn.RemoveMatchSignal(dbus.WithMatchObjectPath(handle), dbus.WithMatchMember("Response"))
	}

	for {
		select {
		case sig := <-signals:
			if sig.Path != handle || sig.Name != requestIface+".Response" {
				continue
			}
			return parseResponse(sig.Body)
		case <-ctx.Done():
			return "", ErrTimeout
		}
	}
}

// requestPath returns the object path the portal will use for a request
// with the given token.
func requestPath(conn *dbus.Conn, token string) dbus.ObjectPath {
	var sender string
	if names := conn.Names(); len(names) > 0 {
		sender = strings.ReplaceAll(strings.TrimPrefix(names[0], ":"), ".", "_")
	}
	return dbus.ObjectPath(objectPath + "/request/" + sender + "/" + token)
}

func parseResponse(body []any) (string, error) {
	if len(body) < 2 {
		return "", fmt.Errorf("malformed portal response: %d values", len(body))
	}
	code, ok := body[0].(uint32)
	if !ok {
		return "", fmt.Errorf("malformed portal response code: %T", body[0])
	}
	if code != 0 {
		return "", fmt.Errorf("%w: response %d", ErrCancelled, code)
	}
	results, ok := body[1].(map[string]dbus.Variant)
	if !ok {
		return "", fmt.Errorf("malformed portal results: %T", body[1])
	}
	v, ok := results["uri"]
	if !ok {
		return "", errors.New("portal response has no uri")
	}
	uri, ok := v.Value().(string)
	if !ok || uri == "" {
		return "", errors.New("portal response has an empty uri")
	}
	return uri, nil
}

// readPNG decodes the screenshot file at a file:// URI and deletes it.
func readPNG(uri string) (*capture.Image, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parse screenshot uri: %w", err)
	}
	if u.Scheme != "file" {
		return nil, fmt.Errorf("unsupported screenshot uri scheme %q", u.Scheme)
	}
	file, err := os.Open(u.Path)
	if err != nil {
		return nil, fmt.Errorf("open screenshot: %w", err)
	}
	defer file.Close()
	img, err := png.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	// The portal saves every screenshot in the user's pictures directory.
	os.Remove(u.Path)
	return capture.FromImage(img), nil
}
