//go:build darwin && cgo && !robotgo

package backend

import (
	"context"

	"github.com/tesselslate/deskctl/internal/macos"
)

// Open sets up the Quartz backend. If that fails, the returned backend
// discards input and the failure is listed in Warnings.
func Open(_ context.Context, _ Options) (*Backend, error) {
	c, err := macos.New()
	if err != nil {
		b := &Backend{Name: "none"}
		b.degrade(err)
		return b, nil
	}
	b := &Backend{
		Name:     "quartz/coregraphics",
		Pointer:  c,
		Keys:     c,
		Displays: c,
		Capture:  c.Capturer(),
	}
	b.addCloser(c)
	return b, nil
}
