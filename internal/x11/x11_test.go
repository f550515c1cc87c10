package x11

import (
	"os"
	"testing"
)

func TestDecodeZPixmap32(t *testing.T) {
	f := pixelFormat{bitsPerPixel: 32, scanlinePad: 32, red: 0xFF0000, green: 0xFF00, blue: 0xFF}
	// Two pixels, little endian BGRX.
	data := []byte{0x30, 0x20, 0x10, 0x00, 0xFF, 0x00, 0x80, 0x00}
	img, err := decodeZPixmap(data, 2, 1, f)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x10, 0x20, 0x30, 0xFF, 0x80, 0x00, 0xFF, 0xFF}
	for i := range want {
		if img.Pix[i] != want[i] {
			t.Fatalf("byte %d: got %#x, want %#x", i, img.Pix[i], want[i])
		}
	}
}

func TestDecodeZPixmap16(t *testing.T) {
	f := pixelFormat{bitsPerPixel: 16, scanlinePad: 32, red: 0xF800, green: 0x07E0, blue: 0x001F}
	// Three pixels padded to a stride of 8 bytes, two rows.
	row := []byte{0x00, 0xF8, 0xFF, 0xFF, 0x1F, 0x00, 0xAA, 0xAA}
	data := append(append([]byte{}, row...), row...)
	img, err := decodeZPixmap(data, 3, 2, f)
	if err != nil {
		t.Fatal(err)
	}
	want := [][3]byte{{255, 0, 0}, {255, 255, 255}, {0, 0, 255}}
	for y := 0; y < 2; y++ {
		for x, px := range want {
			i := (y*3 + x) * 4
			got := [3]byte{img.Pix[i], img.Pix[i+1], img.Pix[i+2]}
			if got != px {
				t.Fatalf("pixel %d,%d: got %v, want %v", x, y, got, px)
			}
		}
	}
}

func TestDecodeZPixmapErrors(t *testing.T) {
	f := pixelFormat{bitsPerPixel: 32, scanlinePad: 32, red: 0xFF0000, green: 0xFF00, blue: 0xFF}
	if _, err := decodeZPixmap(make([]byte, 7), 2, 1, f); err == nil {
		t.Fatal("short data was accepted")
	}
	f.bitsPerPixel = 8
	if _, err := decodeZPixmap(make([]byte, 8), 2, 1, f); err == nil {
		t.Fatal("8 bpp data was accepted")
	}
}

func TestReadPixel(t *testing.T) {
	b := []byte{0x12, 0x34, 0x56}
	if got := readPixel(b, true); got != 0x123456 {
		t.Fatalf("got %#x, want 0x123456", got)
	}
	if got := readPixel(b, false); got != 0x563412 {
		t.Fatalf("got %#x, want 0x563412", got)
	}
}

func TestClient(t *testing.T) {
	if os.Getenv("DESKCTL_TEST_X11") == "" {
		t.Skip("DESKCTL_TEST_X11 not set")
	}
	c, err := NewClient()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	mons, err := c.Monitors()
	if err != nil {
		t.Fatal(err)
	}
	if len(mons) == 0 {
		t.Fatal("no monitors")
	}
	before, ok := c.CursorPosition()
	if !ok {
		t.Fatal("cursor position unavailable")
	}
	b := mons[0].Bounds
	c.MoveAbsolute(b.X+10, b.Y+10)
	if err := c.sync(); err != nil {
		t.Fatal(err)
	}
	p, _ := c.CursorPosition()
	if p.X != b.X+10 || p.Y != b.Y+10 {
		t.Fatalf("got cursor %d,%d, want %d,%d", p.X, p.Y, b.X+10, b.Y+10)
	}
	c.MoveAbsolute(before.X, before.Y)

	s := c.Capturer()
	img, r, err := s.Grab(0)
	if err != nil {
		t.Fatal(err)
	}
	if img.Width != r.W || img.Height != r.H || !img.Valid() {
		t.Fatalf("got %dx%d image for %dx%d monitor", img.Width, img.Height, r.W, r.H)
	}
}
