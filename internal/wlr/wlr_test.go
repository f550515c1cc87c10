//go:build linux

package wlr

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/tesselslate/deskctl/internal/calib"
)

func TestOpenWithoutCompositor(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	t.Setenv("WAYLAND_DISPLAY", "wayland-missing")

	dev, err := Open(context.Background(), calib.Size{W: 1920, H: 1080})
	if err == nil {
		dev.Close()
		t.Fatal("Open succeeded without a compositor")
	}
	if dev != nil {
		t.Fatalf("device %v returned alongside error", dev)
	}
}

func TestOpen(t *testing.T) {
	if os.Getenv("DESKCTL_TEST_WLROOTS") == "" {
		t.Skip("DESKCTL_TEST_WLROOTS not set")
	}
	dev, err := Open(context.Background(), calib.Size{W: 1920, H: 1080})
	if err != nil {
		t.Fatal(err)
	}
	defer dev.Close()
	for _, w := range dev.Warnings {
		if !errors.Is(w, errNoKeyboard) {
			t.Errorf("unexpected warning: %s", w)
		}
		t.Log(w)
	}
	dev.MoveAbsolute(960, 540)
	if err := dev.Err(); err != nil {
		t.Fatal(err)
	}
}
