package robot

import (
	"github.com/tesselslate/deskctl/internal/input"
)

// Key codes for robotgo are runes for plain keys. Modifiers live above the
// Unicode range so they cannot collide with a character.
const modBase = 0x110000

var specialKeys = map[rune]string{
	'\n':   "enter",
	'\t':   "tab",
	'\b':   "backspace",
	'\x1b': "esc",
	' ':    "space",
}

var modKeys = map[input.Modifier]string{
	input.ModShift:   "shift",
	input.ModControl: "ctrl",
	input.ModOption:  "alt",
	input.ModCommand: "cmd",
}

// keyCode returns the code of the key which types r on a US layout.
func keyCode(r rune) int {
	r = input.BaseKey(r)
	if _, ok := specialKeys[r]; ok {
		return int(r)
	}
	if r > ' ' && r <= '~' {
		return int(r)
	}
	return input.NotFound
}

func modifierCode(m input.Modifier) (int, bool) {
	if _, ok := modKeys[m]; !ok {
		return 0, false
	}
	return modBase + int(m), true
}

// keyName returns the robotgo name of a key code.
func keyName(code int) (string, bool) {
	if code >= modBase {
		name, ok := modKeys[input.Modifier(code-modBase)]
		return name, ok
	}
	r := rune(code)
	if name, ok := specialKeys[r]; ok {
		return name, true
	}
	if r > ' ' && r <= '~' {
		return string(r), true
	}
	return "", false
}
