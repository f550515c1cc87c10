//go:build linux && portal

package backend

import (
	"fmt"

	"github.com/tesselslate/deskctl/internal/portal"
	"github.com/tesselslate/deskctl/internal/x11"
)

func openCapture(b *Backend, _ *x11.Client, _ error) string {
	pc, err := portal.New()
	if err != nil {
		b.warn(fmt.Errorf("screen capture unavailable: %w", err))
		return "none"
	}
	b.addCloser(pc)
	b.Capture = pc
	return "portal"
}
