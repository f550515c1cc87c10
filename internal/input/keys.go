package input

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/exp/slices"
)

// keyCache maps characters to key codes so that layout lookups (which may
// require a round trip to the display server) happen once per character.
type keyCache struct {
	keys KeyInjector
	data map[rune]int
	mx   sync.RWMutex
}

func newKeyCache(keys KeyInjector) *keyCache {
	return &keyCache{keys: keys}
}

// Get returns the key code for the given character.
func (c *keyCache) Get(r rune) int {
	c.mx.RLock()
	if code, ok := c.data[r]; ok {
		c.mx.RUnlock()
		return code
	}
	c.mx.RUnlock()

	code := c.keys.KeyCode(r)
	c.mx.Lock()
	defer c.mx.Unlock()
	if c.data == nil {
		c.data = make(map[rune]int)
	}
	c.data[r] = code
	return code
}

// shifted maps US layout symbols to the unshifted key which produces them.
var shifted = map[rune]rune{
	'~': '`', '!': '1', '@': '2', '#': '3', '$': '4', '%': '5',
	'^': '6', '&': '7', '*': '8', '(': '9', ')': '0', '_': '-',
	'+': '=', '{': '[', '}': ']', '|': '\\', ':': ';', '"': '\'',
	'<': ',', '>': '.', '?': '/',
}

// NeedsShift returns whether typing the character on a US layout requires
// holding Shift.
func NeedsShift(r rune) bool {
	if r >= 'A' && r <= 'Z' {
		return true
	}
	_, ok := shifted[r]
	return ok
}

// BaseKey returns the unshifted character on the same US layout key as r.
func BaseKey(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return unicode.ToLower(r)
	}
	if base, ok := shifted[r]; ok {
		return base
	}
	return r
}

// Linux evdev key codes (linux/input-event-codes.h).
const (
	EvdevKeyEsc       = 1
	EvdevKeyBackspace = 14
	EvdevKeyTab       = 15
	EvdevKeyEnter     = 28
	EvdevKeyLeftCtrl  = 29
	EvdevKeyLeftShift = 42
	EvdevKeyLeftAlt   = 56
	EvdevKeySpace     = 57
	EvdevKeyLeftMeta  = 125
	EvdevBtnLeft      = 0x110
	EvdevBtnRight     = 0x111
	EvdevBtnMiddle    = 0x112
)

var evdevKeys = map[rune]int{
	'1': 2, '2': 3, '3': 4, '4': 5, '5': 6, '6': 7, '7': 8, '8': 9, '9': 10, '0': 11,
	'-': 12, '=': 13, '\b': EvdevKeyBackspace, '\t': EvdevKeyTab,
	'q': 16, 'w': 17, 'e': 18, 'r': 19, 't': 20, 'y': 21, 'u': 22, 'i': 23, 'o': 24, 'p': 25,
	'[': 26, ']': 27, '\n': EvdevKeyEnter, '\r': EvdevKeyEnter,
	'a': 30, 's': 31, 'd': 32, 'f': 33, 'g': 34, 'h': 35, 'j': 36, 'k': 37, 'l': 38,
	';': 39, '\'': 40, '`': 41, '\\': 43,
	'z': 44, 'x': 45, 'c': 46, 'v': 47, 'b': 48, 'n': 49, 'm': 50,
	',': 51, '.': 52, '/': 53, ' ': EvdevKeySpace,
	'\x1b': EvdevKeyEsc,
}

// EvdevKeyCode resolves a character to a Linux evdev key code using a fixed
// US layout, or returns NotFound.
func EvdevKeyCode(r rune) int {
	if code, ok := evdevKeys[BaseKey(r)]; ok {
		return code
	}
	return NotFound
}

// EvdevKeyCodes returns every key code EvdevKeyCode or EvdevModifier can
// produce, sorted and without duplicates.
func EvdevKeyCodes() []int {
	codes := []int{EvdevKeyLeftShift, EvdevKeyLeftCtrl, EvdevKeyLeftAlt, EvdevKeyLeftMeta}
	for _, code := range evdevKeys {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return slices.Compact(codes)
}

// EvdevModifier returns the evdev key code for a modifier.
func EvdevModifier(m Modifier) (int, bool) {
	switch m {
	case ModShift:
		return EvdevKeyLeftShift, true
	case ModControl:
		return EvdevKeyLeftCtrl, true
	case ModOption:
		return EvdevKeyLeftAlt, true
	case ModCommand:
		return EvdevKeyLeftMeta, true
	}
	return 0, false
}

// EvdevButton returns the evdev code for a mouse button.
func EvdevButton(b Button) int {
	switch b {
	case ButtonRight:
		return EvdevBtnRight
	case ButtonMiddle:
		return EvdevBtnMiddle
	default:
		return EvdevBtnLeft
	}
}

// Modifier names
var modNames = map[string]Modifier{
	"shift":   ModShift,
	"ctrl":    ModControl,
	"control": ModControl,
	"alt":     ModOption,
	"option":  ModOption,
	"opt":     ModOption,
	"cmd":     ModCommand,
	"command": ModCommand,
	"super":   ModCommand,
	"win":     ModCommand,
	"meta":    ModCommand,
}

// Named keys which are not a single printable character.
var keyNames = map[string]rune{
	"enter":     '\n',
	"return":    '\n',
	"tab":       '\t',
	"space":     ' ',
	"esc":       '\x1b',
	"escape":    '\x1b',
	"backspace": '\b',
	"minus":     '-',
}

var errEmptyChord = errors.New("empty key chord")

// ParseModifiers parses a dash separated list of modifier names, such as
// "ctrl-shift".
func ParseModifiers(str string) (Modifier, error) {
	var mods Modifier
	for _, s := range strings.Split(str, "-") {
		if s == "" {
			continue
		}
		m, ok := modNames[strings.ToLower(s)]
		if !ok {
			return 0, fmt.Errorf("invalid modifier: %s", s)
		}
		mods |= m
	}
	return mods, nil
}

// ParseChord parses a key chord such as "ctrl-shift-a" into its modifiers and
// the character of its final key.
func ParseChord(str string) (Modifier, rune, error) {
	if str == "" {
		return 0, 0, errEmptyChord
	}
	// A trailing dash is the minus key ("ctrl--").
	var key rune
	if strings.HasSuffix(str, "--") || str == "-" {
		key = '-'
		str = strings.TrimSuffix(str, "-")
		str = strings.TrimSuffix(str, "-")
	}
	var mods Modifier
	for _, s := range strings.Split(str, "-") {
		if s == "" {
			continue
		}
		lower := strings.ToLower(s)
		if m, ok := modNames[lower]; ok {
			mods |= m
			continue
		}
		if key != 0 {
			return 0, 0, fmt.Errorf("multiple keys in chord: %s", s)
		}
		if r, ok := keyNames[lower]; ok {
			key = r
			continue
		}
		runes := []rune(s)
		if len(runes) != 1 {
			return 0, 0, fmt.Errorf("invalid key component: %s", s)
		}
		key = runes[0]
	}
	if key == 0 {
		return 0, 0, fmt.Errorf("no key in chord %q", str)
	}
	return mods, key, nil
}

// String returns the modifiers in the dash separated form accepted by
// ParseModifiers.
func (m Modifier) String() string {
	return strings.Join(m.Names(), "-")
}

// Names returns the canonical name of each modifier in the set, in press
// order.
func (m Modifier) Names() []string {
	names := make([]string, 0, 4)
	for _, mod := range modifierOrder {
		if m&mod == 0 {
			continue
		}
		switch mod {
		case ModShift:
			names = append(names, "shift")
		case ModControl:
			names = append(names, "ctrl")
		case ModOption:
			names = append(names, "alt")
		case ModCommand:
			names = append(names, "cmd")
		}
	}
	return names
}
