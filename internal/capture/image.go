package capture

import (
	"image"
	"math/bits"

	"github.com/tesselslate/deskctl/internal/calib"
)

// Image is a tightly packed RGBA bitmap with straight alpha. Pix holds
// Width*Height*4 bytes in row-major order.
type Image struct {
	Width  int
	Height int
	Pix    []byte
}

// NewImage allocates an opaque black image.
func NewImage(w, h int) *Image {
	img := &Image{Width: w, Height: h, Pix: make([]byte, w*h*4)}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xFF
	}
	return img
}

// Valid reports whether the pixel buffer matches the dimensions.
func (i *Image) Valid() bool {
	return i != nil && i.Width >= 0 && i.Height >= 0 && len(i.Pix) == i.Width*i.Height*4
}

// NRGBA returns a view of the image usable with the image package. The pixel
// buffer is shared.
func (i *Image) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    i.Pix,
		Stride: i.Width * 4,
		Rect:   image.Rect(0, 0, i.Width, i.Height),
	}
}

// FromImage copies any image into a new Image.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && n.Stride == b.Dx()*4 && b.Min == (image.Point{}) {
		pix := make([]byte, len(n.Pix))
		copy(pix, n.Pix)
		return &Image{Width: b.Dx(), Height: b.Dy(), Pix: pix}
	}
	out := &Image{Width: b.Dx(), Height: b.Dy(), Pix: make([]byte, b.Dx()*b.Dy()*4)}
	dst := out.NRGBA()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x-b.Min.X, y-b.Min.Y, src.At(x, y))
		}
	}
	return out
}

// Cursor is the OS cursor bitmap at the moment of capture. Position is the
// cursor location in the same space as the bounds returned by Source.Grab.
type Cursor struct {
	Image
	Hotspot  calib.Point
	Position calib.Point
}

// CursorFromARGB builds a Cursor from packed 0xAARRGGBB pixels with straight
// alpha, as returned by XFixes and converted from Windows icons.
func CursorFromARGB(w, h int, argb []uint32, hotspot, pos calib.Point) *Cursor {
	c := &Cursor{
		Image:    Image{Width: w, Height: h, Pix: make([]byte, w*h*4)},
		Hotspot:  hotspot,
		Position: pos,
	}
	for i := 0; i < w*h && i < len(argb); i++ {
		p := argb[i]
		c.Pix[i*4+0] = uint8(p >> 16)
		c.Pix[i*4+1] = uint8(p >> 8)
		c.Pix[i*4+2] = uint8(p)
		c.Pix[i*4+3] = uint8(p >> 24)
	}
	return c
}

// Unpremultiply converts pixels with premultiplied alpha, as produced by
// CoreGraphics bitmap contexts, to straight alpha in place.
func (i *Image) Unpremultiply() {
	for p := 0; p+3 < len(i.Pix); p += 4 {
		a := uint32(i.Pix[p+3])
		if a == 0 || a == 0xFF {
			continue
		}
		for c := p; c < p+3; c++ {
			i.Pix[c] = uint8(min(uint32(i.Pix[c])*255/a, 255))
		}
	}
}

// Blend draws the cursor over dst using straight alpha "over" compositing.
// origin is the top left corner of dst in the cursor's coordinate space.
// Touched destination pixels become fully opaque. Parts of the cursor outside
// dst are clipped.
func Blend(dst *Image, cur *Cursor, origin calib.Point) {
	if dst == nil || cur == nil {
		return
	}
	left := cur.Position.X - cur.Hotspot.X - origin.X
	top := cur.Position.Y - cur.Hotspot.Y - origin.Y

	for j := 0; j < cur.Height; j++ {
		y := top + j
		if y < 0 || y >= dst.Height {
			continue
		}
		for i := 0; i < cur.Width; i++ {
			x := left + i
			if x < 0 || x >= dst.Width {
				continue
			}
			s := cur.Pix[(j*cur.Width+i)*4:]
			a := uint32(s[3])
			if a == 0 {
				continue
			}
			d := dst.Pix[(y*dst.Width+x)*4:]
			d[0] = over(s[0], d[0], a)
			d[1] = over(s[1], d[1], a)
			d[2] = over(s[2], d[2], a)
			d[3] = 0xFF
		}
	}
}

func over(src, dst uint8, a uint32) uint8 {
	return uint8((uint32(src)*a + uint32(dst)*(255-a)) / 255)
}

// ExtractChannel decodes one color channel from a pixel using a visual
// channel mask. Channels narrower than 8 bits are scaled to the full 0-255
// range and wider channels keep their 8 most significant bits.
func ExtractChannel(pixel, mask uint32) uint8 {
	if mask == 0 {
		return 0
	}
	shift := bits.TrailingZeros32(mask)
	v := (pixel & mask) >> shift
	width := bits.Len32(mask >> shift)
	if width >= 8 {
		return uint8(v >> (width - 8))
	}
	return uint8(v * 255 / (1<<width - 1))
}
