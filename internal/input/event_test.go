package input_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"gopkg.in/yaml.v2"

	"github.com/tesselslate/deskctl/internal/input"
)

func TestEventJSON(t *testing.T) {
	data := `[
		{"type": "move", "x": 10, "y": 20},
		{"type": "click", "x": 5, "y": 6, "btn": "right"},
		{"type": "drag", "x": 100, "y": 0, "btn": 2},
		{"type": "key_down", "char": "s", "mods": ["ctrl", "shift"]},
		{"type": "key_up", "key": 30, "mods": "alt-cmd"},
		{"type": "scroll", "dy": -3},
		{"type": "text", "text": "hi"}
	]`
	var events []input.Event
	if err := json.Unmarshal([]byte(data), &events); err != nil {
		t.Fatal(err)
	}
	want := []input.Event{
		{Type: input.EventMove, X: 10, Y: 20},
		{Type: input.EventClick, X: 5, Y: 6, Button: input.ButtonRight},
		{Type: input.EventDrag, X: 100, Button: input.ButtonMiddle},
		{Type: input.EventKeyDown, Char: "s", Mods: input.ModControl | input.ModShift},
		{Type: input.EventKeyUp, Key: 30, Mods: input.ModOption | input.ModCommand},
		{Type: input.EventScroll, DY: -3},
		{Type: input.EventText, Text: "hi"},
	}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("got %+v, want %+v", events, want)
	}
	for _, e := range events {
		if err := e.Validate(); err != nil {
			t.Fatalf("validate %+v: %s", e, err)
		}
	}
}

func TestEventMarshal(t *testing.T) {
	e := input.Event{Type: input.EventKeyDown, Key: 30, Mods: input.ModShift | input.ModCommand}
	out, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"type":"key_down","key":30,"mods":["shift","cmd"]}`
	if string(out) != want {
		t.Fatalf("got %s, want %s", out, want)
	}
}

func TestEventYAML(t *testing.T) {
	data := `
- type: click
  x: 1
  y: 2
  btn: middle
- type: key_down
  char: enter
  mods: [cmd]
`
	var events []input.Event
	if err := yaml.Unmarshal([]byte(data), &events); err != nil {
		t.Fatal(err)
	}
	want := []input.Event{
		{Type: input.EventClick, X: 1, Y: 2, Button: input.ButtonMiddle},
		{Type: input.EventKeyDown, Char: "enter", Mods: input.ModCommand},
	}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("got %+v, want %+v", events, want)
	}
}

func TestEventValidate(t *testing.T) {
	bad := []input.Event{
		{},
		{Type: "wiggle"},
		{Type: input.EventMove, Text: "x"},
		{Type: input.EventClick, Button: 7},
		{Type: input.EventKeyDown, Char: "abc"},
		{Type: input.EventKeyDown},
		{Type: input.EventKeyUp, Mods: input.ModControl},
		{Type: input.EventKeyUp, Key: 30, Char: "a"},
		{Type: input.EventScroll, DY: 1, X: 4},
		{Type: input.EventText},
	}
	for _, e := range bad {
		if err := e.Validate(); !errors.Is(err, input.ErrInvalidEvent) {
			t.Fatalf("validate %+v: got %v, want ErrInvalidEvent", e, err)
		}
	}
}

func TestDispatch(t *testing.T) {
	rec := &recorder{}
	s := newSynth(rec)
	events := []input.Event{
		{Type: input.EventClick, X: 10, Y: 20, Button: input.ButtonLeft},
		{Type: input.EventKeyDown, Char: "A"},
		{Type: input.EventKeyUp, Char: "A"},
		{Type: input.EventScroll, DX: 1},
	}
	for _, e := range events {
		if err := s.Dispatch(e); err != nil {
			t.Fatal(err)
		}
	}
	a := input.EvdevKeyCode('a')
	want := []string{
		"move 10 20", "down left", "up left",
		fmt.Sprintf("kd %d", input.EvdevKeyLeftShift), fmt.Sprintf("kd %d", a),
		fmt.Sprintf("ku %d", a), fmt.Sprintf("ku %d", input.EvdevKeyLeftShift),
		"scroll 1 0",
	}
	if !reflect.DeepEqual(rec.events, want) {
		t.Fatalf("got %v, want %v", rec.events, want)
	}
}

func TestDispatchUnmappable(t *testing.T) {
	rec := &recorder{}
	s := newSynth(rec)
	err := s.Dispatch(input.Event{Type: input.EventKeyDown, Char: "€"})
	if !errors.Is(err, input.ErrNoKeyCode) {
		t.Fatalf("got %v, want ErrNoKeyCode", err)
	}
	if len(rec.events) != 0 {
		t.Fatalf("got events %v, want none", rec.events)
	}
}

func TestParseChord(t *testing.T) {
	tests := []struct {
		in   string
		mods input.Modifier
		key  rune
	}{
		{"a", 0, 'a'},
		{"ctrl-c", input.ModControl, 'c'},
		{"Ctrl-Shift-Tab", input.ModControl | input.ModShift, '\t'},
		{"ctrl--", input.ModControl, '-'},
		{"cmd-space", input.ModCommand, ' '},
		{"-", 0, '-'},
	}
	for _, tt := range tests {
		mods, key, err := input.ParseChord(tt.in)
		if err != nil {
			t.Fatalf("parse %q: %s", tt.in, err)
		}
		if mods != tt.mods || key != tt.key {
			t.Fatalf("parse %q: got (%s, %q), want (%s, %q)", tt.in, mods, key, tt.mods, tt.key)
		}
	}
	for _, in := range []string{"", "ctrl", "ctrl-ab", "a-b", "hyper-x"} {
		if _, _, err := input.ParseChord(in); err == nil {
			t.Fatalf("parse %q: expected error", in)
		}
	}
}

type countingKeys struct {
	recorder
	lookups int
}

func (c *countingKeys) KeyCode(r rune) int {
	c.lookups++
	return input.EvdevKeyCode(r)
}

func TestKeyCodeCached(t *testing.T) {
	keys := &countingKeys{}
	s := input.New(&recorder{}, keys, nil, input.Options{})
	for i := 0; i < 5; i++ {
		s.CharToKeyCode('x')
		s.CharToKeyCode('€')
	}
	if keys.lookups != 2 {
		t.Fatalf("got %d lookups, want 2", keys.lookups)
	}
}
