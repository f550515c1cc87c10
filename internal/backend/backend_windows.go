//go:build windows && !(robotgo && cgo)

package backend

import (
	"context"

	"github.com/tesselslate/deskctl/internal/win"
)

// Open sets up the Win32 backend. If that fails, the returned backend
// discards input and the failure is listed in Warnings.
func Open(_ context.Context, _ Options) (*Backend, error) {
	c, err := win.New()
	if err != nil {
		b := &Backend{Name: "none"}
		b.degrade(err)
		return b, nil
	}
	b := &Backend{
		Name:     "win32/gdi",
		Pointer:  c,
		Keys:     c,
		Displays: c,
		Capture:  c.Capturer(),
	}
	b.addCloser(c)
	return b, nil
}
