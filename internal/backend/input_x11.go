//go:build linux && !wlroots && !uinput

package backend

import (
	"context"
	"fmt"

	"github.com/tesselslate/deskctl/internal/x11"
)

func openInput(_ context.Context, b *Backend, xc *x11.Client, xerr error, _ Options) (string, error) {
	if xerr != nil {
		return "", fmt.Errorf("open X11 input: %w", xerr)
	}
	b.Pointer, b.Keys = xc, xc
	return "x11", nil
}
