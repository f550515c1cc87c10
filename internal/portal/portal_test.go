//go:build linux

package portal

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/godbus/dbus/v5"
)

func TestParseResponse(t *testing.T) {
	body := []any{uint32(0), map[string]dbus.Variant{
		"uri": dbus.MakeVariant("file:///tmp/shot.png"),
	}}
	uri, err := parseResponse(body)
	if err != nil {
		t.Fatal(err)
	}
	if uri != "file:///tmp/shot.png" {
		t.Fatalf("got %q, want file:///tmp/shot.png", uri)
	}
}

func TestParseResponseCancelled(t *testing.T) {
	_, err := parseResponse([]any{uint32(1), map[string]dbus.Variant{}})
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("got %v, want ErrCancelled", err)
	}
	if _, err := parseResponse([]any{uint32(0)}); err == nil {
		t.Fatal("short response accepted")
	}
	if _, err := parseResponse([]any{uint32(0), map[string]dbus.Variant{}}); err == nil {
		t.Fatal("response without uri accepted")
	}
}

func TestReadPNG(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	src.Set(2, 1, color.NRGBA{10, 20, 30, 255})
	path := filepath.Join(t.TempDir(), "shot.png")
	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(file, src); err != nil {
		t.Fatal(err)
	}
	file.Close()

	img, err := readPNG("file://" + path)
	if err != nil {
		t.Fatal(err)
	}
	if img.Width != 3 || img.Height != 2 {
		t.Fatalf("got %dx%d, want 3x2", img.Width, img.Height)
	}
	px := img.Pix[(1*3+2)*4:]
	if px[0] != 10 || px[1] != 20 || px[2] != 30 || px[3] != 255 {
		t.Fatalf("got %v, want [10 20 30 255]", px[:4])
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("screenshot file was not removed: %v", err)
	}
	if _, err := readPNG("https://example.com/shot.png"); err == nil {
		t.Fatal("non-file uri accepted")
	}
}

func TestPortalScreenshot(t *testing.T) {
	if os.Getenv("DESKCTL_TEST_PORTAL") == "" {
		t.Skip("DESKCTL_TEST_PORTAL not set")
	}
	c, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	img, bounds, err := c.Grab(0)
	if err != nil {
		t.Fatal(err)
	}
	if !img.Valid() || bounds.W != img.Width || bounds.H != img.Height {
		t.Fatalf("got %dx%d image with bounds %+v", img.Width, img.Height, bounds)
	}
}
