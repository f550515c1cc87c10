package capture_test

import (
	"errors"
	"image/color"
	"sync"
	"testing"

	"github.com/tesselslate/deskctl/internal/calib"
	"github.com/tesselslate/deskctl/internal/capture"
)

type fakeSource struct {
	mons     []calib.Rect
	cursor   *capture.Cursor
	grabErr  error
	rendered bool
}

func (f *fakeSource) Count() int { return len(f.mons) }

func (f *fakeSource) Grab(i int) (*capture.Image, calib.Rect, error) {
	if f.grabErr != nil {
		return nil, calib.Rect{}, f.grabErr
	}
	r := f.mons[i]
	img := capture.NewImage(r.W, r.H)
	for p := 0; p < len(img.Pix); p += 4 {
		img.Pix[p] = 10
		img.Pix[p+1] = 20
		img.Pix[p+2] = 30
	}
	return img, r, nil
}

func (f *fakeSource) Cursor() (*capture.Cursor, error) {
	if f.cursor == nil {
		return nil, capture.ErrNoCursor
	}
	return f.cursor, nil
}

func (f *fakeSource) Describe(i int) string { return "fake" }
func (f *fakeSource) RendersCursor() bool   { return f.rendered }

func solidCursor(w, h int, argb uint32, hot, pos calib.Point) *capture.Cursor {
	pix := make([]uint32, w*h)
	for i := range pix {
		pix[i] = argb
	}
	return capture.CursorFromARGB(w, h, pix, hot, pos)
}

func pixel(img *capture.Image, x, y int) [4]byte {
	i := (y*img.Width + x) * 4
	return [4]byte{img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]}
}

func TestCaptureOutOfRange(t *testing.T) {
	e := capture.NewEngine(&fakeSource{mons: []calib.Rect{{W: 4, H: 4}}})
	for _, i := range []int{-1, 1, 99} {
		img, err := e.CaptureScreenWithCursor(i)
		if !errors.Is(err, capture.ErrDisplayIndex) || img != nil {
			t.Fatalf("capture %d: got (%v, %v), want ErrDisplayIndex", i, img, err)
		}
	}
	if info := e.DisplayInfo(3); info != "" {
		t.Fatalf("got info %q for missing display", info)
	}
}

func TestCaptureNoDisplays(t *testing.T) {
	e := capture.NewEngine(nil)
	if n := e.DisplayCount(); n != 0 {
		t.Fatalf("got %d displays, want 0", n)
	}
	if _, err := e.CaptureScreenWithCursor(0); !errors.Is(err, capture.ErrDisplayIndex) {
		t.Fatalf("got %v, want ErrDisplayIndex", err)
	}
}

func TestCaptureGrabError(t *testing.T) {
	grabErr := errors.New("boom")
	e := capture.NewEngine(&fakeSource{mons: []calib.Rect{{W: 4, H: 4}}, grabErr: grabErr})
	if _, err := e.CaptureScreenWithCursor(0); !errors.Is(err, grabErr) {
		t.Fatalf("got %v, want wrapped grab error", err)
	}
}

func TestCaptureWithoutCursor(t *testing.T) {
	e := capture.NewEngine(&fakeSource{mons: []calib.Rect{{W: 7, H: 3}}})
	img, err := e.CaptureScreenWithCursor(0)
	if err != nil {
		t.Fatal(err)
	}
	if img.Width != 7 || img.Height != 3 || len(img.Pix) != 7*3*4 {
		t.Fatalf("got %dx%d with %d bytes", img.Width, img.Height, len(img.Pix))
	}
}

func TestCaptureSecondMonitorCursor(t *testing.T) {
	// The cursor is on the second monitor, so only it should be drawn there.
	cur := solidCursor(2, 2, 0xFFFFFFFF, calib.Point{X: 1, Y: 1}, calib.Point{X: 13, Y: 5})
	src := &fakeSource{
		mons:   []calib.Rect{{W: 10, H: 10}, {X: 10, W: 10, H: 10}},
		cursor: cur,
	}
	e := capture.NewEngine(src)

	first, err := e.CaptureScreenWithCursor(0)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if pixel(first, x, y) != [4]byte{10, 20, 30, 255} {
				t.Fatalf("first monitor modified at (%d, %d)", x, y)
			}
		}
	}

	second, err := e.CaptureScreenWithCursor(1)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range [][2]int{{2, 4}, {3, 4}, {2, 5}, {3, 5}} {
		if got := pixel(second, p[0], p[1]); got != [4]byte{255, 255, 255, 255} {
			t.Fatalf("got %v at %v, want white", got, p)
		}
	}
	if got := pixel(second, 4, 4); got != [4]byte{10, 20, 30, 255} {
		t.Fatalf("got %v outside cursor", got)
	}
}

func TestCaptureRendersCursor(t *testing.T) {
	src := &fakeSource{
		mons:     []calib.Rect{{W: 4, H: 4}},
		cursor:   solidCursor(4, 4, 0xFFFFFFFF, calib.Point{}, calib.Point{}),
		rendered: true,
	}
	img, err := capture.NewEngine(src).CaptureScreenWithCursor(0)
	if err != nil {
		t.Fatal(err)
	}
	if got := pixel(img, 0, 0); got != [4]byte{10, 20, 30, 255} {
		t.Fatalf("cursor drawn twice: got %v", got)
	}
}

func TestBlendAlpha(t *testing.T) {
	dst := capture.NewImage(3, 1)
	copy(dst.Pix, []byte{
		200, 100, 0, 17,
		200, 100, 0, 17,
		200, 100, 0, 17,
	})
	cur := &capture.Cursor{
		Image: capture.Image{Width: 3, Height: 1, Pix: []byte{
			0, 0, 255, 0,
			0, 0, 255, 255,
			0, 0, 255, 128,
		}},
	}
	capture.Blend(dst, cur, calib.Point{})

	if got := pixel(dst, 0, 0); got != [4]byte{200, 100, 0, 17} {
		t.Fatalf("transparent pixel changed: %v", got)
	}
	if got := pixel(dst, 1, 0); got != [4]byte{0, 0, 255, 255} {
		t.Fatalf("opaque pixel: got %v", got)
	}
	// (0*128 + 200*127) / 255 = 99, (0*128 + 100*127) / 255 = 49,
	// (255*128 + 0*127) / 255 = 128.
	if got := pixel(dst, 2, 0); got != [4]byte{99, 49, 128, 255} {
		t.Fatalf("half transparent pixel: got %v", got)
	}
}

func TestBlendClipped(t *testing.T) {
	dst := capture.NewImage(4, 4)
	want := append([]byte(nil), dst.Pix...)
	positions := []calib.Point{{X: -10, Y: 0}, {X: 4, Y: 0}, {X: 0, Y: 100}, {X: 0, Y: -2}}
	for _, pos := range positions {
		capture.Blend(dst, solidCursor(2, 2, 0xFF00FF00, calib.Point{}, pos), calib.Point{})
	}
	if string(dst.Pix) != string(want) {
		t.Fatal("fully clipped cursor modified the image")
	}

	// Partially clipped at the top left corner.
	capture.Blend(dst, solidCursor(2, 2, 0xFF00FF00, calib.Point{}, calib.Point{X: -1, Y: -1}), calib.Point{})
	if got := pixel(dst, 0, 0); got != [4]byte{0, 255, 0, 255} {
		t.Fatalf("got %v, want green", got)
	}
	if got := pixel(dst, 1, 0); got != [4]byte{0, 0, 0, 255} {
		t.Fatalf("got %v, want black", got)
	}
}

func TestExtractChannel(t *testing.T) {
	tests := []struct {
		pixel, mask uint32
		want        uint8
	}{
		{0x00123456, 0x00FF0000, 0x12},
		{0x00123456, 0x0000FF00, 0x34},
		{0x00123456, 0x000000FF, 0x56},
		{0xFFFF, 0xF800, 255}, // RGB565 red, full
		{0x07E0, 0x07E0, 255}, // RGB565 green, full
		{0x0010, 0x001F, 131}, // 16/31 of 255
		{0x3FF << 20, 0x3FF << 20, 0xFF},
		{0x200 << 20, 0x3FF << 20, 0x80}, // 10 bit channels keep the high bits
		{0x0FF << 10, 0x3FF << 10, 0x3F},
		{0x12345678, 0, 0},
	}
	for _, tt := range tests {
		if got := capture.ExtractChannel(tt.pixel, tt.mask); got != tt.want {
			t.Fatalf("extract %#x & %#x: got %d, want %d", tt.pixel, tt.mask, got, tt.want)
		}
	}
}

func TestNRGBAView(t *testing.T) {
	img := capture.NewImage(2, 2)
	img.NRGBA().Set(1, 1, color.NRGBA{R: 1, G: 2, B: 3, A: 4})
	if got := pixel(img, 1, 1); got != [4]byte{1, 2, 3, 4} {
		t.Fatalf("got %v", got)
	}
	cp := capture.FromImage(img.NRGBA())
	if !cp.Valid() || string(cp.Pix) != string(img.Pix) {
		t.Fatal("copy does not match")
	}
}

func TestConcurrentCapture(t *testing.T) {
	e := capture.NewEngine(&fakeSource{
		mons:   []calib.Rect{{W: 16, H: 16}},
		cursor: solidCursor(2, 2, 0x80FFFFFF, calib.Point{}, calib.Point{X: 3, Y: 3}),
	})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.CaptureScreenWithCursor(0); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
}

func TestUnpremultiply(t *testing.T) {
	img := &capture.Image{Width: 3, Height: 1, Pix: []byte{
		64, 32, 0, 128, // half transparent
		10, 20, 30, 0, // fully transparent
		1, 2, 3, 255, // opaque
	}}
	img.Unpremultiply()
	want := []byte{127, 63, 0, 128, 10, 20, 30, 0, 1, 2, 3, 255}
	for i := range want {
		if img.Pix[i] != want[i] {
			t.Fatalf("byte %d: got %d, want %d", i, img.Pix[i], want[i])
		}
	}
}
