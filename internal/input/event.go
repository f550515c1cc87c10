package input

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// EventType is the tag of an Event.
type EventType string

// Event types
const (
	EventMove    EventType = "move"
	EventClick   EventType = "click"
	EventDrag    EventType = "drag"
	EventKeyDown EventType = "key_down"
	EventKeyUp   EventType = "key_up"
	EventScroll  EventType = "scroll"
	EventText    EventType = "text"
)

// Error types
var (
	ErrInvalidEvent = errors.New("invalid input event")
	ErrNoKeyCode    = errors.New("no key code for character")
)

// Event is a serializable description of a single input operation, such as
// one received from a remote client or read from a script. Only the fields
// relevant to its Type may be set.
type Event struct {
	Type EventType `json:"type" yaml:"type"`

	// Pointer position for move, click and drag.
	X int `json:"x,omitempty" yaml:"x,omitempty"`
	Y int `json:"y,omitempty" yaml:"y,omitempty"`

	// Button for click and drag.
	Button Button `json:"btn,omitempty" yaml:"btn,omitempty"`

	// Key is a native key code for key_down and key_up. Char may be given
	// instead, as a single character or a key name such as "enter", and is
	// resolved on the receiving machine.
	Key  int      `json:"key,omitempty" yaml:"key,omitempty"`
	Char string   `json:"char,omitempty" yaml:"char,omitempty"`
	Mods Modifier `json:"mods,omitempty" yaml:"mods,omitempty"`

	// Scroll amount in lines.
	DX int `json:"dx,omitempty" yaml:"dx,omitempty"`
	DY int `json:"dy,omitempty" yaml:"dy,omitempty"`

	// Text for text events.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
}

// Validate checks that the event has a known type and carries no fields
// which do not belong to it.
func (e *Event) Validate() error {
	pos := e.X != 0 || e.Y != 0
	btn := e.Button != 0
	key := e.Key != 0 || e.Char != "" || e.Mods != 0
	scroll := e.DX != 0 || e.DY != 0
	text := e.Text != ""

	var extra bool
	switch e.Type {
	case EventMove:
		extra = btn || key || scroll || text
	case EventClick, EventDrag:
		if e.Button < ButtonLeft || e.Button > ButtonMiddle {
			return fmt.Errorf("%w: unknown button %d", ErrInvalidEvent, e.Button)
		}
		extra = key || scroll || text
	case EventKeyDown, EventKeyUp:
		switch {
		case e.Key == 0 && e.Char == "":
			return fmt.Errorf("%w: %s needs key or char", ErrInvalidEvent, e.Type)
		case e.Key != 0 && e.Char != "":
			return fmt.Errorf("%w: %s has both key and char", ErrInvalidEvent, e.Type)
		}
		if e.Char != "" {
			if _, err := parseChar(e.Char); err != nil {
				return fmt.Errorf("%w: %s", ErrInvalidEvent, err)
			}
		}
		extra = pos || btn || scroll || text
	case EventScroll:
		extra = pos || btn || key || text
	case EventText:
		if !text {
			return fmt.Errorf("%w: empty text", ErrInvalidEvent)
		}
		extra = pos || btn || key || scroll
	case "":
		return fmt.Errorf("%w: missing type", ErrInvalidEvent)
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
	if extra {
		return fmt.Errorf("%w: fields not valid for %s", ErrInvalidEvent, e.Type)
	}
	return nil
}

// Dispatch performs the operation described by the event. Invalid events and
// characters without a key code are reported as errors. Delivery of the
// resulting platform events is not confirmed.
func (s *Synthesizer) Dispatch(e Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	switch e.Type {
	case EventMove:
		s.MoveTo(e.X, e.Y)
	case EventClick:
		s.ClickAt(e.X, e.Y, e.Button)
	case EventDrag:
		s.DragTo(e.X, e.Y, e.Button)
	case EventKeyDown, EventKeyUp:
		code, mods, err := s.resolveKey(e)
		if err != nil {
			return err
		}
		down := e.Type == EventKeyDown
		switch {
		case mods != 0 && down:
			s.KeyDownWithMods(code, mods)
		case mods != 0:
			s.KeyUpWithMods(code, mods)
		case down:
			s.KeyDown(code)
		default:
			s.KeyUp(code)
		}
	case EventScroll:
		s.ScrollLines(e.DX, e.DY)
	case EventText:
		s.TypeUTF8(e.Text)
	}
	return nil
}

func (s *Synthesizer) resolveKey(e Event) (int, Modifier, error) {
	if e.Char == "" {
		return e.Key, e.Mods, nil
	}
	r, _ := parseChar(e.Char)
	code := s.CharToKeyCode(r)
	if code == NotFound {
		return 0, 0, fmt.Errorf("%w: %q", ErrNoKeyCode, e.Char)
	}
	mods := e.Mods
	if NeedsShift(r) {
		mods |= ModShift
	}
	return code, mods, nil
}

func parseChar(str string) (rune, error) {
	if r, ok := keyNames[strings.ToLower(str)]; ok {
		return r, nil
	}
	runes := []rune(str)
	if len(runes) != 1 {
		return 0, fmt.Errorf("invalid key %q", str)
	}
	return runes[0], nil
}

var buttonNames = []string{"left", "right", "middle"}

// ParseButton parses a button name.
func ParseButton(str string) (Button, error) {
	for i, name := range buttonNames {
		if strings.EqualFold(str, name) {
			return Button(i), nil
		}
	}
	return 0, fmt.Errorf("invalid button: %s", str)
}

// String returns the name of the button.
func (b Button) String() string {
	if b >= 0 && int(b) < len(buttonNames) {
		return buttonNames[b]
	}
	return fmt.Sprintf("button%d", int(b))
}

// MarshalJSON implements json.Marshaler.
func (b Button) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// UnmarshalJSON implements json.Unmarshaler. Buttons may be given by name
// or by number (0 left, 1 right, 2 middle).
func (b *Button) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return b.set(raw)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *Button) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	return b.set(raw)
}

func (b *Button) set(raw any) error {
	switch v := raw.(type) {
	case string:
		btn, err := ParseButton(v)
		if err != nil {
			return err
		}
		*b = btn
	case float64:
		*b = Button(v)
	case int:
		*b = Button(v)
	default:
		return fmt.Errorf("invalid button value %v", raw)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (m Modifier) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Names())
}

// UnmarshalJSON implements json.Unmarshaler. Modifiers may be given as a
// list of names, a dash separated string or a raw bitmask.
func (m *Modifier) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return m.set(raw)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *Modifier) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	return m.set(raw)
}

func (m *Modifier) set(raw any) error {
	switch v := raw.(type) {
	case string:
		mods, err := ParseModifiers(v)
		if err != nil {
			return err
		}
		*m = mods
	case []any:
		var mods Modifier
		for _, item := range v {
			name, ok := item.(string)
			if !ok {
				return errors.New("modifier list must contain strings")
			}
			mod, err := ParseModifiers(name)
			if err != nil {
				return err
			}
			mods |= mod
		}
		*m = mods
	case float64:
		*m = Modifier(v)
	case int:
		*m = Modifier(v)
	case nil:
		*m = 0
	default:
		return fmt.Errorf("invalid modifier value %v", raw)
	}
	return nil
}
