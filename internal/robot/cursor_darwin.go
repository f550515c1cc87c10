//go:build robotgo && cgo && darwin

package robot

import (
	"github.com/tesselslate/deskctl/internal/calib"
	"github.com/tesselslate/deskctl/internal/capture"
	"github.com/tesselslate/deskctl/internal/macos"
)

func init() {
	openCursor = func() (cursorDrawer, error) {
		return appkitCursor{}, nil
	}
}

type appkitCursor struct{}

func (appkitCursor) Draw(img *capture.Image, bounds calib.Rect) {
	macos.DrawCursor(img, bounds)
}

func (appkitCursor) Close() error {
	return nil
}
