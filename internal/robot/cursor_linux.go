//go:build robotgo && cgo && linux

package robot

import (
	"github.com/tesselslate/deskctl/internal/calib"
	"github.com/tesselslate/deskctl/internal/capture"
	"github.com/tesselslate/deskctl/internal/x11"
)

func init() {
	openCursor = openXfixesCursor
}

// xfixesCursor reads the cursor image over its own X connection.
type xfixesCursor struct {
	client *x11.Client
	src    *x11.Capturer
}

func openXfixesCursor() (cursorDrawer, error) {
	c, err := x11.NewClient()
	if err != nil {
		return nil, err
	}
	if !c.HasCursorImage() {
		_ = c.Close()
		return nil, capture.ErrNoCursor
	}
	return &xfixesCursor{client: c, src: c.Capturer()}, nil
}

func (x *xfixesCursor) Draw(img *capture.Image, bounds calib.Rect) {
	cur, err := x.src.Cursor()
	if err != nil {
		return
	}
	capture.Blend(img, cur, calib.Point{X: bounds.X, Y: bounds.Y})
}

func (x *xfixesCursor) Close() error {
	return x.client.Close()
}
