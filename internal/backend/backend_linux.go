//go:build linux && !(robotgo && cgo)

package backend

import (
	"context"
	"errors"

	"github.com/tesselslate/deskctl/internal/x11"
)

// Open connects to the platform. On Linux the X server is used for display
// enumeration whenever it is reachable, including XWayland sessions, so that
// coordinates can be calibrated regardless of the input backend. Failing to
// open input or capture is not an error: the backend degrades and the
// failure is listed in Warnings.
func Open(ctx context.Context, opts Options) (*Backend, error) {
	b := &Backend{}
	xc, xerr := x11.NewClient()
	if xerr == nil {
		b.addCloser(xc)
		b.Displays = xc
		if !xc.HasCursorImage() {
			b.warn(errors.New("XFixes unavailable: captured frames will not include the cursor"))
		}
	}
	inputName, err := openInput(ctx, b, xc, xerr, opts)
	if err != nil {
		b.degrade(err)
		inputName = "none"
	}
	captureName := openCapture(b, xc, xerr)
	b.Name = inputName + "/" + captureName
	return b, nil
}
