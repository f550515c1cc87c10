package x11

import (
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// Keysyms which do not map directly to a character.
const (
	xkBackSpace xproto.Keysym = 0xff08
	xkTab       xproto.Keysym = 0xff09
	xkReturn    xproto.Keysym = 0xff0d
	xkEscape    xproto.Keysym = 0xff1b
	xkShiftL    xproto.Keysym = 0xffe1
	xkControlL  xproto.Keysym = 0xffe3
	xkAltL      xproto.Keysym = 0xffe9
	xkSuperL    xproto.Keysym = 0xffeb

	xkUnicodeOffset xproto.Keysym = 0x01000000
)

// keymap is a snapshot of the server's keycode to keysym mapping, inverted
// for lookups by keysym.
type keymap struct {
	codes map[xproto.Keysym]xproto.Keycode
}

func (k *keymap) load(conn *xgb.Conn, setup *xproto.SetupInfo) error {
	first, last := setup.MinKeycode, setup.MaxKeycode
	count := byte(last - first + 1)
	reply, err := xproto.GetKeyboardMapping(conn, first, count).Reply()
	if err != nil {
		return err
	}
	k.codes = make(map[xproto.Keysym]xproto.Keycode)
	per := int(reply.KeysymsPerKeycode)
	if per == 0 {
		return nil
	}
	// Only the first two columns (unshifted and shifted) of the core mapping
	// are used. Earlier keycodes win so that the main keyboard block is
	// preferred over the keypad.
	for i := 0; i*per < len(reply.Keysyms); i++ {
		code := first + xproto.Keycode(i)
		for col := 0; col < per && col < 2; col++ {
			sym := reply.Keysyms[i*per+col]
			if sym == 0 {
				continue
			}
			if _, ok := k.codes[sym]; !ok {
				k.codes[sym] = code
			}
		}
	}
	return nil
}

// lookup returns the keycode producing the given keysym.
func (k *keymap) lookup(sym xproto.Keysym) (xproto.Keycode, bool) {
	code, ok := k.codes[sym]
	return code, ok
}

// runeKeysym returns the keysym of a character.
func runeKeysym(r rune) xproto.Keysym {
	switch r {
	case '\b':
		return xkBackSpace
	case '\t':
		return xkTab
	case '\n', '\r':
		return xkReturn
	case '\x1b':
		return xkEscape
	}
	// Latin-1 keysyms equal their code points.
	if (r >= 0x20 && r <= 0x7e) || (r >= 0xa0 && r <= 0xff) {
		return xproto.Keysym(r)
	}
	return xkUnicodeOffset | xproto.Keysym(r)
}
