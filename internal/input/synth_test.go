package input_test

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/tesselslate/deskctl/internal/calib"
	"github.com/tesselslate/deskctl/internal/input"
)

// recorder implements PointerInjector and KeyInjector, recording every call
// as a string.
type recorder struct {
	events  []string
	unicode bool
	cursor  *calib.Point
	closed  int
}

func (r *recorder) add(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) MoveAbsolute(x, y int)              { r.add("move %d %d", x, y) }
func (r *recorder) DragMove(x, y int, b input.Button) { r.add("drag %d %d %s", x, y, b) }
func (r *recorder) ButtonDown(b input.Button)          { r.add("down %s", b) }
func (r *recorder) ButtonUp(b input.Button)            { r.add("up %s", b) }
func (r *recorder) ScrollLines(dx, dy int)             { r.add("scroll %d %d", dx, dy) }
func (r *recorder) ScrollPixels(dx, dy int)            { r.add("scrollpx %d %d", dx, dy) }
func (r *recorder) KeyDown(code int)                   { r.add("kd %d", code) }
func (r *recorder) KeyUp(code int)                     { r.add("ku %d", code) }

func (r *recorder) TypeRune(c rune) bool {
	if r.unicode {
		r.add("type %c", c)
	}
	return r.unicode
}

func (r *recorder) ModifierKeyCode(m input.Modifier) (int, bool) {
	code, ok := input.EvdevModifier(m)
	return code, ok
}

func (r *recorder) KeyCode(c rune) int {
	return input.EvdevKeyCode(c)
}

func (r *recorder) CursorPosition() (calib.Point, bool) {
	if r.cursor == nil {
		return calib.Point{}, false
	}
	return *r.cursor, true
}

func (r *recorder) Close() error {
	r.closed++
	return nil
}

type fixedSource struct {
	mons   []calib.Monitor
	cursor calib.Point
}

func (f fixedSource) Monitors() ([]calib.Monitor, error) { return f.mons, nil }
func (f fixedSource) Cursor() (calib.Point, error)       { return f.cursor, nil }

func newSynth(rec *recorder) *input.Synthesizer {
	cal := calib.New(nil, calib.Size{W: 800, H: 600})
	return input.New(rec, rec, cal, input.Options{StepDelay: -1})
}

func TestMoveToClamps(t *testing.T) {
	rec := &recorder{}
	s := newSynth(rec)
	points := [][2]int{{-10, -10}, {800, 600}, {5000, 20}, {400, 300}, {799, 599}}
	for _, p := range points {
		s.MoveTo(p[0], p[1])
		cur := s.Cursor()
		if cur.X < 0 || cur.X >= 800 || cur.Y < 0 || cur.Y >= 600 {
			t.Fatalf("MoveTo(%d, %d) left cursor at %v", p[0], p[1], cur)
		}
	}
	want := []string{"move 0 0", "move 799 599", "move 799 20", "move 400 300", "move 799 599"}
	if !reflect.DeepEqual(rec.events, want) {
		t.Fatalf("got %v, want %v", rec.events, want)
	}
}

func TestMoveRelative(t *testing.T) {
	rec := &recorder{}
	s := newSynth(rec)
	s.MoveTo(100, 100)
	s.MoveRelative(-30, 50)
	if got := s.Cursor(); got != (calib.Point{X: 70, Y: 150}) {
		t.Fatalf("got %v, want (70, 150)", got)
	}
}

func TestMoveToPixel(t *testing.T) {
	rec := &recorder{}
	src := fixedSource{
		mons: []calib.Monitor{{
			Bounds:  calib.Rect{W: 1440, H: 900},
			Pixels:  calib.Size{W: 2880, H: 1800},
			Primary: true,
		}},
		cursor: calib.Point{X: 1, Y: 1},
	}
	s := input.New(rec, rec, calib.New(src, calib.DefaultSize), input.Options{StepDelay: -1})
	s.MoveToPixel(1000, 500)
	if got := s.Cursor(); got != (calib.Point{X: 500, Y: 250}) {
		t.Fatalf("got %v, want (500, 250)", got)
	}
	if got := s.CursorPixel(); got != (calib.Point{X: 1000, Y: 500}) {
		t.Fatalf("got pixel %v, want (1000, 500)", got)
	}
}

func TestClickWithModsControl(t *testing.T) {
	rec := &recorder{}
	s := newSynth(rec)
	code := s.CharToKeyCode('a')
	s.ClickWithMods(code, input.ModControl)
	want := []string{
		fmt.Sprintf("kd %d", input.EvdevKeyLeftCtrl),
		fmt.Sprintf("kd %d", code),
		fmt.Sprintf("ku %d", code),
		fmt.Sprintf("ku %d", input.EvdevKeyLeftCtrl),
	}
	if !reflect.DeepEqual(rec.events, want) {
		t.Fatalf("got %v, want %v", rec.events, want)
	}
}

func TestClickWithModsOrder(t *testing.T) {
	rec := &recorder{}
	s := newSynth(rec)
	all := input.ModCommand | input.ModOption | input.ModControl | input.ModShift
	s.ClickWithMods(30, all)
	want := []string{
		"kd 42", "kd 29", "kd 56", "kd 125",
		"kd 30", "ku 30",
		"ku 42", "ku 29", "ku 56", "ku 125",
	}
	if !reflect.DeepEqual(rec.events, want) {
		t.Fatalf("got %v, want %v", rec.events, want)
	}
}

func TestTypeUTF8SkipsUnmappable(t *testing.T) {
	rec := &recorder{}
	s := newSynth(rec)
	s.TypeUTF8("A€B")
	a, b := input.EvdevKeyCode('a'), input.EvdevKeyCode('b')
	shift := input.EvdevKeyLeftShift
	want := []string{
		fmt.Sprintf("kd %d", shift), fmt.Sprintf("kd %d", a), fmt.Sprintf("ku %d", a), fmt.Sprintf("ku %d", shift),
		fmt.Sprintf("kd %d", shift), fmt.Sprintf("kd %d", b), fmt.Sprintf("ku %d", b), fmt.Sprintf("ku %d", shift),
	}
	if !reflect.DeepEqual(rec.events, want) {
		t.Fatalf("got %v, want %v", rec.events, want)
	}
}

func TestTypeUTF8Unicode(t *testing.T) {
	rec := &recorder{unicode: true}
	s := newSynth(rec)
	s.TypeUTF8("h€")
	want := []string{"type h", "type €"}
	if !reflect.DeepEqual(rec.events, want) {
		t.Fatalf("got %v, want %v", rec.events, want)
	}
}

func TestCharToKeyCodeNotFound(t *testing.T) {
	s := newSynth(&recorder{})
	if code := s.CharToKeyCode('€'); code != input.NotFound {
		t.Fatalf("got %d, want NotFound", code)
	}
	if code := s.CharToKeyCode('?'); code != input.EvdevKeyCode('/') {
		t.Fatalf("got %d, want the slash key", code)
	}
}

func TestDragTo(t *testing.T) {
	start := calib.Point{X: 10, Y: 10}
	rec := &recorder{cursor: &start}
	s := newSynth(rec)
	rec.events = nil
	s.DragTo(400, 10, input.ButtonLeft)

	steps := input.DragSteps(start, calib.Point{X: 400, Y: 10})
	if len(rec.events) != steps+2 {
		t.Fatalf("got %d events, want %d", len(rec.events), steps+2)
	}
	if rec.events[0] != "down left" || rec.events[len(rec.events)-1] != "up left" {
		t.Fatalf("drag not bracketed by button events: %v", rec.events)
	}
	if last := rec.events[len(rec.events)-2]; last != "drag 400 10 left" {
		t.Fatalf("got last step %q, want drag 400 10 left", last)
	}
	if s.Cursor() != (calib.Point{X: 400, Y: 10}) {
		t.Fatalf("got cursor %v, want (400, 10)", s.Cursor())
	}
}

func TestDragStepDelay(t *testing.T) {
	var slept []time.Duration
	rec := &recorder{}
	cal := calib.New(nil, calib.Size{W: 800, H: 600})
	s := input.New(rec, rec, cal, input.Options{
		Sleep: func(d time.Duration) { slept = append(slept, d) },
	})
	s.DragTo(1, 1, input.ButtonRight)
	if len(slept) != input.MinDragSteps {
		t.Fatalf("got %d sleeps, want %d", len(slept), input.MinDragSteps)
	}
	for _, d := range slept {
		if d != input.DefaultStepDelay {
			t.Fatalf("got delay %s, want %s", d, input.DefaultStepDelay)
		}
	}
}

func TestHold(t *testing.T) {
	var slept time.Duration
	rec := &recorder{}
	s := input.New(rec, rec, nil, input.Options{Sleep: func(d time.Duration) { slept += d }})
	s.Hold(input.ButtonMiddle, 250*time.Millisecond)
	want := []string{"down middle", "up middle"}
	if !reflect.DeepEqual(rec.events, want) || slept != 250*time.Millisecond {
		t.Fatalf("got %v after %s", rec.events, slept)
	}
}

func TestMultiClick(t *testing.T) {
	rec := &recorder{}
	s := newSynth(rec)
	s.TripleClick(input.ButtonLeft)
	if len(rec.events) != 6 {
		t.Fatalf("got %d events, want 6", len(rec.events))
	}
	rec.events = nil
	s.DoubleClick(input.ButtonRight)
	want := []string{"down right", "up right", "down right", "up right"}
	if !reflect.DeepEqual(rec.events, want) {
		t.Fatalf("got %v, want %v", rec.events, want)
	}
}

func TestScrollZeroIsNoop(t *testing.T) {
	rec := &recorder{}
	s := newSynth(rec)
	s.ScrollLines(0, 0)
	s.ScrollPixels(0, 0)
	s.ScrollLines(0, 3)
	s.ScrollPixels(-2, 0)
	want := []string{"scroll 0 3", "scrollpx -2 0"}
	if !reflect.DeepEqual(rec.events, want) {
		t.Fatalf("got %v, want %v", rec.events, want)
	}
}

func TestSyncCursor(t *testing.T) {
	pos := calib.Point{X: 33, Y: 44}
	rec := &recorder{cursor: &pos}
	s := newSynth(rec)
	if s.Cursor() != pos {
		t.Fatalf("got %v, want cursor synced on construction", s.Cursor())
	}
	pos = calib.Point{X: 1, Y: 2}
	s.SyncCursor()
	if s.Cursor() != pos {
		t.Fatalf("got %v, want %v", s.Cursor(), pos)
	}
}

func TestCloseOnce(t *testing.T) {
	rec := &recorder{}
	s := newSynth(rec)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if rec.closed != 1 {
		t.Fatalf("got %d closes, want 1", rec.closed)
	}
}
