//go:build linux && !portal

package backend

import (
	"fmt"

	"github.com/tesselslate/deskctl/internal/x11"
)

func openCapture(b *Backend, xc *x11.Client, xerr error) string {
	if xerr != nil {
		b.warn(fmt.Errorf("screen capture unavailable: %w", xerr))
		return "none"
	}
	b.Capture = xc.Capturer()
	return "x11"
}
