//go:build linux && uinput && !wlroots

package backend

import (
	"context"
	"errors"

	"github.com/tesselslate/deskctl/internal/uinput"
	"github.com/tesselslate/deskctl/internal/x11"
)

func openInput(_ context.Context, b *Backend, _ *x11.Client, xerr error, _ Options) (string, error) {
	dev, err := uinput.Open()
	if err != nil {
		return "", err
	}
	b.addCloser(dev)
	b.Pointer, b.Keys = dev, dev
	if xerr != nil {
		b.warn(errors.New("no display server to query: using the default display size"))
	}
	return "uinput", nil
}
