//go:build robotgo && cgo

package backend

import (
	"context"

	"github.com/tesselslate/deskctl/internal/robot"
)

// Open sets up the robotgo backend, which replaces the native backend of
// every platform when built with the robotgo tag. If robotgo sees no
// display, the returned backend discards input.
func Open(_ context.Context, _ Options) (*Backend, error) {
	d, err := robot.New()
	if err != nil {
		b := &Backend{Name: "none"}
		b.degrade(err)
		return b, nil
	}
	b := &Backend{
		Name:     "robotgo",
		Pointer:  d,
		Keys:     d,
		Displays: d,
		Capture:  d.Capturer(),
	}
	b.addCloser(d)
	return b, nil
}
