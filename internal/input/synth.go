package input

import (
	"io"
	"time"

	"github.com/tesselslate/deskctl/internal/calib"
)

// DefaultStepDelay is the pause between interpolated drag steps.
const DefaultStepDelay = 2 * time.Millisecond

// Options contains tunables for a Synthesizer.
type Options struct {
	// StepDelay is the pause after each drag step. Zero uses
	// DefaultStepDelay and a negative value disables the pause.
	StepDelay time.Duration

	// TypeDelay is the pause after each character typed by TypeUTF8.
	TypeDelay time.Duration

	// Sleep replaces time.Sleep. It exists for tests.
	Sleep func(time.Duration)
}

// Synthesizer tracks a virtual cursor and lowers high level input operations
// to platform events. It is not safe for concurrent use; callers that inject
// from multiple goroutines must serialize access or use separate instances.
type Synthesizer struct {
	pointer PointerInjector
	keys    KeyInjector
	cal     *calib.Calibrator
	cache   *keyCache
	closers []io.Closer

	cursor        calib.Point
	width, height int

	stepDelay time.Duration
	typeDelay time.Duration
	sleep     func(time.Duration)
}

// New creates a Synthesizer over the given backend. The display size used
// for clamping is taken from the primary display at construction. If the
// pointer or key injector implements io.Closer, it is closed by Close.
func New(pointer PointerInjector, keys KeyInjector, cal *calib.Calibrator, opts Options) *Synthesizer {
	if cal == nil {
		cal = calib.New(nil, calib.DefaultSize)
	}
	s := &Synthesizer{
		pointer: pointer,
		keys:    keys,
		cal:     cal,
		cache:   newKeyCache(keys),
		sleep:   opts.Sleep,
	}
	if s.sleep == nil {
		s.sleep = time.Sleep
	}
	s.SetStepDelay(opts.StepDelay)
	s.typeDelay = opts.TypeDelay
	s.width, s.height = cal.PrimaryLogicalSize()
	if s.width <= 0 || s.height <= 0 {
		s.width, s.height = calib.DefaultSize.W, calib.DefaultSize.H
	}
	for _, v := range []any{pointer, keys} {
		if c, ok := v.(io.Closer); ok {
			s.closers = append(s.closers, c)
		}
	}
	// Both injectors may be the same backend object.
	if len(s.closers) == 2 && s.closers[0] == s.closers[1] {
		s.closers = s.closers[:1]
	}
	s.SyncCursor()
	return s
}

// Close releases the backend.
func (s *Synthesizer) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}

// SetStepDelay changes the pause between drag steps.
func (s *Synthesizer) SetStepDelay(d time.Duration) {
	if d == 0 {
		d = DefaultStepDelay
	}
	s.stepDelay = d
}

// SetTypeDelay changes the pause after each typed character.
func (s *Synthesizer) SetTypeDelay(d time.Duration) {
	s.typeDelay = d
}

// Calibrator returns the calibrator used for pixel conversions.
func (s *Synthesizer) Calibrator() *calib.Calibrator {
	return s.cal
}

// Cursor returns the tracked cursor position in logical units.
func (s *Synthesizer) Cursor() calib.Point {
	return s.cursor
}

// CursorPixel returns the tracked cursor position in pixels on the monitor
// it occupies.
func (s *Synthesizer) CursorPixel() calib.Point {
	return s.cal.Calibrate().ToPixel(s.cursor)
}

// DisplaySize returns the logical size used to clamp pointer motion.
func (s *Synthesizer) DisplaySize() (int, int) {
	return s.width, s.height
}

// PrimaryDisplayPixelSize returns the pixel size of the main display.
func (s *Synthesizer) PrimaryDisplayPixelSize() (int, int) {
	return s.cal.PrimaryDisplayPixelSize()
}

// SyncCursor updates the tracked cursor from the OS cursor, if the backend
// can read it.
func (s *Synthesizer) SyncCursor() {
	reader, ok := s.pointer.(CursorReader)
	if !ok {
		return
	}
	if p, ok := reader.CursorPosition(); ok {
		s.cursor = p
	}
}

// MoveTo moves the pointer to the given logical position, clamped to the
// display.
func (s *Synthesizer) MoveTo(x, y int) {
	p := s.clamp(x, y)
	s.pointer.MoveAbsolute(p.X, p.Y)
	s.cursor = p
}

// MoveRelative moves the pointer relative to the tracked cursor.
func (s *Synthesizer) MoveRelative(dx, dy int) {
	s.MoveTo(s.cursor.X+dx, s.cursor.Y+dy)
}

// MoveToPixel moves the pointer to a position given in the pixel space of the
// monitor under the cursor, such as a point found in a captured frame.
func (s *Synthesizer) MoveToPixel(px, py int) {
	l := s.cal.Calibrate().ToLogical(calib.Point{X: px, Y: py})
	s.MoveTo(l.X, l.Y)
}

// Down presses a mouse button at the tracked cursor.
func (s *Synthesizer) Down(b Button) {
	s.pointer.ButtonDown(b)
}

// Up releases a mouse button at the tracked cursor.
func (s *Synthesizer) Up(b Button) {
	s.pointer.ButtonUp(b)
}

// Click presses and releases a mouse button.
func (s *Synthesizer) Click(b Button) {
	s.Down(b)
	s.Up(b)
}

// DoubleClick clicks twice with no delay. Whether the OS merges the clicks
// depends on its double click interval.
func (s *Synthesizer) DoubleClick(b Button) {
	s.Click(b)
	s.Click(b)
}

// TripleClick clicks three times with no delay.
func (s *Synthesizer) TripleClick(b Button) {
	s.Click(b)
	s.Click(b)
	s.Click(b)
}

// DownAt moves the pointer and presses a button.
func (s *Synthesizer) DownAt(x, y int, b Button) {
	s.MoveTo(x, y)
	s.Down(b)
}

// UpAt moves the pointer and releases a button.
func (s *Synthesizer) UpAt(x, y int, b Button) {
	s.MoveTo(x, y)
	s.Up(b)
}

// ClickAt moves the pointer and clicks.
func (s *Synthesizer) ClickAt(x, y int, b Button) {
	s.MoveTo(x, y)
	s.Click(b)
}

// Hold presses a button, blocks for the given duration and releases it.
func (s *Synthesizer) Hold(b Button, d time.Duration) {
	s.Down(b)
	s.sleep(d)
	s.Up(b)
}

// DragTo presses a button at the current OS cursor position, moves to the
// target along an interpolated path and releases the button there.
func (s *Synthesizer) DragTo(x, y int, b Button) {
	s.SyncCursor()
	target := s.clamp(x, y)
	s.Down(b)
	for _, p := range DragPath(s.cursor, target) {
		s.pointer.DragMove(p.X, p.Y, b)
		s.cursor = p
		if s.stepDelay > 0 {
			s.sleep(s.stepDelay)
		}
	}
	s.Up(b)
}

// DragBy drags relative to the current cursor position.
func (s *Synthesizer) DragBy(dx, dy int, b Button) {
	s.SyncCursor()
	s.DragTo(s.cursor.X+dx, s.cursor.Y+dy, b)
}

// ScrollLines scrolls by wheel notches. A positive dy scrolls up.
func (s *Synthesizer) ScrollLines(dx, dy int) {
	if dx == 0 && dy == 0 {
		return
	}
	s.pointer.ScrollLines(dx, dy)
}

// ScrollPixels scrolls by pixels where the backend supports it, and by lines
// otherwise.
func (s *Synthesizer) ScrollPixels(dx, dy int) {
	if dx == 0 && dy == 0 {
		return
	}
	s.pointer.ScrollPixels(dx, dy)
}

// KeyDown presses a key by its native key code.
func (s *Synthesizer) KeyDown(code int) {
	s.keys.KeyDown(code)
}

// KeyUp releases a key by its native key code.
func (s *Synthesizer) KeyUp(code int) {
	s.keys.KeyUp(code)
}

// KeyClick presses and releases a key.
func (s *Synthesizer) KeyClick(code int) {
	s.keys.KeyDown(code)
	s.keys.KeyUp(code)
}

// KeyDownWithMods presses each modifier in the set and then the key.
func (s *Synthesizer) KeyDownWithMods(code int, mods Modifier) {
	s.pressMods(mods)
	s.keys.KeyDown(code)
}

// KeyUpWithMods releases the key and then each modifier in the set.
func (s *Synthesizer) KeyUpWithMods(code int, mods Modifier) {
	s.keys.KeyUp(code)
	s.releaseMods(mods)
}

// ClickWithMods presses the modifiers in the order Shift, Control, Option,
// Command, clicks the key and releases the modifiers in the same order.
func (s *Synthesizer) ClickWithMods(code int, mods Modifier) {
	s.pressMods(mods)
	s.keys.KeyDown(code)
	s.keys.KeyUp(code)
	s.releaseMods(mods)
}

// CharToKeyCode resolves a character to a native key code, or returns
// NotFound.
func (s *Synthesizer) CharToKeyCode(r rune) int {
	return s.cache.Get(r)
}

// TypeUTF8 types a string. Characters are inserted directly where the
// platform supports Unicode injection. Otherwise each character is typed by
// key code, and characters without one are skipped.
func (s *Synthesizer) TypeUTF8(text string) {
	for _, r := range text {
		if s.keys.TypeRune(r) {
			s.afterType()
			continue
		}
		code := s.CharToKeyCode(r)
		if code == NotFound {
			continue
		}
		if NeedsShift(r) {
			s.ClickWithMods(code, ModShift)
		} else {
			s.KeyClick(code)
		}
		s.afterType()
	}
}

func (s *Synthesizer) afterType() {
	if s.typeDelay > 0 {
		s.sleep(s.typeDelay)
	}
}

func (s *Synthesizer) pressMods(mods Modifier) {
	for _, m := range modifierOrder {
		if mods&m == 0 {
			continue
		}
		if code, ok := s.keys.ModifierKeyCode(m); ok {
			s.keys.KeyDown(code)
		}
	}
}

func (s *Synthesizer) releaseMods(mods Modifier) {
	for _, m := range modifierOrder {
		if mods&m == 0 {
			continue
		}
		if code, ok := s.keys.ModifierKeyCode(m); ok {
			s.keys.KeyUp(code)
		}
	}
}

func (s *Synthesizer) clamp(x, y int) calib.Point {
	return calib.Point{X: clamp(x, 0, s.width-1), Y: clamp(y, 0, s.height-1)}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
