package shortcut

import (
	"fmt"
	"strings"
	"unicode"
)

// Key is a single key press: a key code in the low bits combined with
// modifier flags.
type Key uint32

// Modifier flags.
const (
	ModShift   Key = 0x02000000
	ModControl Key = 0x04000000
	ModAlt     Key = 0x08000000
	ModSuper   Key = 0x10000000

	modifierMask = ModShift | ModControl | ModAlt | ModSuper
)

// Special key codes. Printable keys use their upper-case code point.
const (
	KeyEscape Key = 0x01000000 + iota
	KeyTab
	KeyBacktab
	KeyBackspace
	KeyReturn
	KeyEnter
	KeyInsert
	KeyDelete
	KeyPause
	KeyPrint
	KeySysReq
	KeyClear
)

const (
	KeyHome Key = 0x01000010 + iota
	KeyEnd
	KeyLeft
	KeyUp
	KeyRight
	KeyDown
	KeyPageUp
	KeyPageDown
)

// KeyF1 is the first function key; F2..F35 follow consecutively.
const KeyF1 Key = 0x01000030

const KeyMenu Key = 0x01000055

// MaxChords bounds the number of chords a sequence may carry.
const MaxChords = 4

// Code returns the key without modifiers.
func (k Key) Code() Key {
	return k &^ modifierMask
}

// Modifiers returns only the modifier flags of k.
func (k Key) Modifiers() Key {
	return k & modifierMask
}

var modifierNames = []struct {
	flag  Key
	token string
	label string
}{
	{ModControl, "Control", "Ctrl"},
	{ModSuper, "Super", "Meta"},
	{ModAlt, "Alt", "Alt"},
	{ModShift, "Shift", "Shift"},
}

// String renders the key the way menus display accelerators, e.g. "Ctrl+S".
func (k Key) String() string {
	var parts []string
	for _, mod := range modifierNames {
		if k&mod.flag != 0 {
			parts = append(parts, mod.label)
		}
	}
	if code := k.Code(); code != 0 {
		parts = append(parts, codeLabel(code))
	}
	return strings.Join(parts, "+")
}

func codeLabel(code Key) string {
	for _, entry := range keysymTable {
		if entry.code == code && entry.label != "" {
			return entry.label
		}
	}
	if code < 0x01000000 && unicode.IsPrint(rune(code)) {
		return string(rune(code))
	}
	return fmt.Sprintf("0x%x", uint32(code))
}

// Sequence is an ordered list of key presses forming one shortcut.
type Sequence []Key

// IsEmpty reports whether the sequence contains no key press.
func (s Sequence) IsEmpty() bool {
	for _, k := range s {
		if k != 0 {
			return false
		}
	}
	return true
}

// String renders the sequence as comma separated chords.
func (s Sequence) String() string {
	parts := make([]string, 0, len(s))
	for _, k := range s {
		if k == 0 {
			continue
		}
		parts = append(parts, k.String())
	}
	return strings.Join(parts, ", ")
}

// Parse reads a human readable sequence such as "Ctrl+Shift+S, Alt+F4".
// Unknown key names yield an error.
func Parse(raw string) (Sequence, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var seq Sequence
	for _, chord := range strings.Split(raw, ",") {
		chord = strings.TrimSpace(chord)
		if chord == "" {
			continue
		}
		var key Key
		for _, part := range splitChord(chord) {
			if mod, ok := parseModifierLabel(part); ok {
				key |= mod
				continue
			}
			if key.Code() != 0 {
				return nil, fmt.Errorf("chord %q has more than one key", chord)
			}
			code, ok := parseKeyLabel(part)
			if !ok {
				return nil, fmt.Errorf("unknown key %q", part)
			}
			key |= code
		}
		seq = append(seq, key)
		if len(seq) == MaxChords {
			break
		}
	}
	return seq, nil
}

// splitChord splits on '+' while keeping a trailing "+" key, as in "Ctrl++".
func splitChord(chord string) []string {
	if chord == "+" {
		return []string{"+"}
	}
	parts := strings.Split(chord, "+")
	if strings.HasSuffix(chord, "++") {
		parts = append(parts[:len(parts)-2], "+")
	}
	out := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseModifierLabel(part string) (Key, bool) {
	switch strings.ToLower(part) {
	case "ctrl", "control":
		return ModControl, true
	case "meta", "super", "win", "cmd":
		return ModSuper, true
	case "alt":
		return ModAlt, true
	case "shift":
		return ModShift, true
	}
	return 0, false
}

func parseKeyLabel(part string) (Key, bool) {
	for _, entry := range keysymTable {
		if strings.EqualFold(entry.label, part) || strings.EqualFold(entry.keysym, part) {
			return entry.code, true
		}
	}
	runes := []rune(part)
	if len(runes) == 1 && unicode.IsPrint(runes[0]) {
		return Key(unicode.ToUpper(runes[0])), true
	}
	return 0, false
}
