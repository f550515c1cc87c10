//go:build darwin && cgo

package macos

import (
	"bytes"
	"os"
	"testing"

	"github.com/kbinani/screenshot"

	"github.com/tesselslate/deskctl/internal/calib"
	"github.com/tesselslate/deskctl/internal/capture"
)

func filled(w, h int) *capture.Image {
	img := capture.NewImage(w, h)
	for p := 0; p < len(img.Pix); p += 4 {
		copy(img.Pix[p:], []byte{0xFF, 0x00, 0xFF, 0xFF})
	}
	return img
}

func TestDrawCursorOffDisplay(t *testing.T) {
	img := filled(64, 64)
	want := bytes.Clone(img.Pix)
	DrawCursor(img, calib.Rect{X: -100000, Y: -100000, W: 64, H: 64})
	if !bytes.Equal(img.Pix, want) {
		t.Fatal("cursor drawn outside its display")
	}
}

func TestDrawCursor(t *testing.T) {
	if os.Getenv("DESKCTL_TEST_MACOS") == "" {
		t.Skip("DESKCTL_TEST_MACOS not set")
	}
	c, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	b := screenshot.GetDisplayBounds(0)
	bounds := calib.Rect{X: b.Min.X, Y: b.Min.Y, W: b.Dx(), H: b.Dy()}
	c.MoveAbsolute(bounds.X+bounds.W/2, bounds.Y+bounds.H/2)

	img := filled(bounds.W*2, bounds.H*2)
	want := bytes.Clone(img.Pix)
	DrawCursor(img, bounds)
	if bytes.Equal(img.Pix, want) {
		t.Fatal("cursor not drawn")
	}
}
