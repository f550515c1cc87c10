package backend

import (
	"fmt"

	"github.com/tesselslate/deskctl/internal/input"
)

// nopInjector discards every event. It stands in for the platform when no
// input backend could be opened.
type nopInjector struct{}

func (nopInjector) MoveAbsolute(int, int)           {}
func (nopInjector) DragMove(int, int, input.Button) {}
func (nopInjector) ButtonDown(input.Button)         {}
func (nopInjector) ButtonUp(input.Button)           {}
func (nopInjector) ScrollLines(int, int)            {}
func (nopInjector) ScrollPixels(int, int)           {}
func (nopInjector) KeyDown(int)                     {}
func (nopInjector) KeyUp(int)                       {}

// TypeRune reports success so that text is dropped without key lookups.
func (nopInjector) TypeRune(rune) bool { return true }

func (nopInjector) ModifierKeyCode(input.Modifier) (int, bool) { return 0, false }
func (nopInjector) KeyCode(rune) int                           { return input.NotFound }

// degrade installs the no-op injector after the platform input failed to
// open. Displays is left as is, so calibration uses the default geometry
// unless a display server was reached.
func (b *Backend) degrade(err error) {
	b.warn(fmt.Errorf("input unavailable, events will be discarded: %w", err))
	b.Pointer, b.Keys = nopInjector{}, nopInjector{}
}

// Degraded reports whether input events are being discarded.
func (b *Backend) Degraded() bool {
	_, ok := b.Pointer.(nopInjector)
	return ok
}
