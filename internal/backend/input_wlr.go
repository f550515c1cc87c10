//go:build linux && wlroots

package backend

import (
	"context"
	"errors"

	"github.com/tesselslate/deskctl/internal/calib"
	"github.com/tesselslate/deskctl/internal/wlr"
	"github.com/tesselslate/deskctl/internal/x11"
)

func openInput(ctx context.Context, b *Backend, _ *x11.Client, xerr error, opts Options) (string, error) {
	extent := desktopExtent(b.Displays, opts.DefaultSize)
	dev, err := wlr.Open(ctx, extent)
	if err != nil {
		return "", err
	}
	b.addCloser(dev)
	for _, w := range dev.Warnings {
		b.warn(w)
	}
	b.Pointer, b.Keys = dev, dev
	if xerr != nil {
		b.warn(errors.New("XWayland unavailable: using the default display size"))
	}
	return "wlroots", nil
}

// desktopExtent returns the size of the rectangle enclosing every monitor,
// which is the coordinate space of absolute virtual pointer motion.
func desktopExtent(src calib.Source, def calib.Size) calib.Size {
	if def.W <= 0 || def.H <= 0 {
		def = calib.DefaultSize
	}
	if src == nil {
		return def
	}
	mons, err := src.Monitors()
	if err != nil || len(mons) == 0 {
		return def
	}
	var w, h int
	for _, m := range mons {
		w = max(w, m.Bounds.X+m.Bounds.W)
		h = max(h, m.Bounds.Y+m.Bounds.H)
	}
	return calib.Size{W: w, H: h}
}
