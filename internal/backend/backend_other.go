//go:build !linux && !windows && !(darwin && cgo) && !(robotgo && cgo)

package backend

import "context"

// Open always fails.
func Open(_ context.Context, _ Options) (*Backend, error) {
	return nil, ErrUnsupported
}
