// Package backend selects the platform implementation of input injection,
// display enumeration and capture. The choice is made once, at build time
// through the target OS and build tags, and at startup through what the
// session supports.
//
// On Linux, input goes through X11 and XTest unless built with the wlroots
// or uinput tag, and capture goes through X11 GetImage unless built with the
// portal tag. Building with the robotgo tag (and cgo) replaces the native
// backend of every platform with robotgo.
package backend

import (
	"errors"
	"io"

	"github.com/tesselslate/deskctl/internal/calib"
	"github.com/tesselslate/deskctl/internal/capture"
	"github.com/tesselslate/deskctl/internal/input"
)

// ErrUnsupported is returned by Open on platforms without a backend.
var ErrUnsupported = errors.New("no input backend for this platform")

// Backend is the set of platform capabilities used by the rest of the
// program.
type Backend struct {
	// Name identifies the input and capture implementations in use.
	Name string

	Pointer  input.PointerInjector
	Keys     input.KeyInjector
	Displays calib.Source // May be nil.
	Capture  capture.Source

	// Warnings lists degradations found while opening, such as a missing
	// extension. The backend is usable regardless.
	Warnings []error

	closers []io.Closer
}

// Options contains settings for Open.
type Options struct {
	// DefaultSize is used when the display size cannot be queried.
	DefaultSize calib.Size
}

func (b *Backend) addCloser(c io.Closer) {
	for _, v := range b.closers {
		if v == c {
			return
		}
	}
	b.closers = append(b.closers, c)
}

func (b *Backend) warn(err error) {
	if err != nil {
		b.Warnings = append(b.Warnings, err)
	}
}

// Calibrator returns a calibrator over the backend's display source.
func (b *Backend) Calibrator(opts Options) *calib.Calibrator {
	return calib.New(b.Displays, opts.DefaultSize)
}

// Close releases every resource opened by the backend, in reverse order.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i].Close())
	}
	b.closers = nil
	return errors.Join(errs...)
}
