//go:build darwin && cgo

package macos

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AppKit
#import <AppKit/AppKit.h>
#include <stdlib.h>

typedef struct {
	unsigned char *pix;
	int w, h;
	double hotX, hotY;
} cursorImage;

static CGPoint mouseLocation(void) {
	CGEventRef ev = CGEventCreate(NULL);
	if (ev == NULL) return CGPointMake(-1, -1);
	CGPoint p = CGEventGetLocation(ev);
	CFRelease(ev);
	return p;
}

// copyCursor renders the current system cursor at scale pixels per point
// into a top-down RGBA buffer with premultiplied alpha. The caller frees pix.
static int copyCursor(double scale, cursorImage *out) {
	@autoreleasepool {
		NSCursor *cur = [NSCursor currentSystemCursor];
		if (cur == nil) return 0;
		NSImage *img = [cur image];
		NSSize size = [img size];
		NSPoint hot = [cur hotSpot];
		int w = (int)(size.width * scale + 0.5);
		int h = (int)(size.height * scale + 0.5);
		if (w <= 0 || h <= 0) return 0;

		NSRect rect = NSMakeRect(0, 0, w, h);
		CGImageRef cg = [img CGImageForProposedRect:&rect context:nil hints:nil];
		if (cg == NULL) return 0;
		unsigned char *pix = calloc((size_t)w * h, 4);
		if (pix == NULL) return 0;
		CGColorSpaceRef cs = CGColorSpaceCreateDeviceRGB();
		CGContextRef ctx = CGBitmapContextCreate(pix, w, h, 8, (size_t)w * 4, cs,
			kCGImageAlphaPremultipliedLast | kCGBitmapByteOrder32Big);
		CGColorSpaceRelease(cs);
		if (ctx == NULL) {
			free(pix);
			return 0;
		}
		CGContextDrawImage(ctx, CGRectMake(0, 0, w, h), cg);
		CGContextRelease(ctx);

		out->pix = pix;
		out->w = w;
		out->h = h;
		out->hotX = hot.x * scale;
		out->hotY = hot.y * scale;
		return 1;
	}
}
*/
import "C"

import (
	"math"
	"unsafe"

	"github.com/tesselslate/deskctl/internal/calib"
	"github.com/tesselslate/deskctl/internal/capture"
)

// systemCursor returns the current cursor image rendered for a display with
// the given pixel density. The hotspot is in pixels and the position is left
// unset.
func systemCursor(scale float64) (*capture.Cursor, error) {
	var ci C.cursorImage
	if C.copyCursor(C.double(scale), &ci) == 0 {
		return nil, capture.ErrNoCursor
	}
	defer C.free(unsafe.Pointer(ci.pix))

	w, h := int(ci.w), int(ci.h)
	img := capture.Image{
		Width:  w,
		Height: h,
		Pix:    C.GoBytes(unsafe.Pointer(ci.pix), C.int(w*h*4)),
	}
	img.Unpremultiply()
	return &capture.Cursor{
		Image: img,
		Hotspot: calib.Point{
			X: int(math.Round(float64(ci.hotX))),
			Y: int(math.Round(float64(ci.hotY))),
		},
	}, nil
}

// DrawCursor composites the current system cursor into img, the pixels of
// the display with the given bounds in global points. Nothing is drawn if the
// cursor is on another display or its image cannot be read.
func DrawCursor(img *capture.Image, bounds calib.Rect) {
	p := C.mouseLocation()
	loc := calib.Point{X: int(p.x), Y: int(p.y)}
	if img == nil || !bounds.Contains(loc) {
		return
	}
	sx := float64(img.Width) / float64(bounds.W)
	sy := float64(img.Height) / float64(bounds.H)
	cur, err := systemCursor(sx)
	if err != nil {
		return
	}
	cur.Position = calib.Point{
		X: int(math.Round(float64(loc.X-bounds.X) * sx)),
		Y: int(math.Round(float64(loc.Y-bounds.Y) * sy)),
	}
	capture.Blend(img, cur, calib.Point{})
}
