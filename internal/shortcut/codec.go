// Package shortcut converts key sequences to and from the portable token-list
// form carried by the "shortcut" menu property: a list of chords, each chord a
// list of modifier tokens followed by at most one keysym name.
package shortcut

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Modifier tokens, in the order Encode emits them.
const (
	TokenControl = "Control"
	TokenSuper   = "Super"
	TokenAlt     = "Alt"
	TokenShift   = "Shift"
)

// Encode converts seq to its token-list form. Empty key presses are skipped.
func Encode(seq Sequence) [][]string {
	out := make([][]string, 0, len(seq))
	for _, key := range seq {
		if key == 0 {
			continue
		}
		out = append(out, encodeKey(key))
	}
	return out
}

func encodeKey(key Key) []string {
	var tokens []string
	for _, mod := range modifierNames {
		if key&mod.flag != 0 {
			tokens = append(tokens, mod.token)
		}
	}
	if code := key.Code(); code != 0 {
		tokens = append(tokens, keysymName(code))
	}
	return tokens
}

func keysymName(code Key) string {
	if name, ok := keysymByCode[code]; ok {
		return name
	}
	if code < 0x01000000 && unicode.IsPrint(rune(code)) {
		return string(rune(code))
	}
	return fmt.Sprintf("0x%x", uint32(code))
}

// Decode converts a token-list shortcut back to a key sequence. Chords beyond
// MaxChords are ignored. A terminal token that is not a known keysym is taken
// literally: a single character becomes that character's key, a "0x" token is
// read as a raw code, anything else leaves the chord with modifiers only.
func Decode(chords [][]string) Sequence {
	seq := make(Sequence, 0, len(chords))
	for _, tokens := range chords {
		if len(seq) == MaxChords {
			break
		}
		seq = append(seq, decodeChord(tokens))
	}
	return seq
}

func decodeChord(tokens []string) Key {
	var key Key
	for _, token := range tokens {
		switch token {
		case TokenControl:
			key |= ModControl
			continue
		case TokenSuper:
			key |= ModSuper
			continue
		case TokenAlt:
			key |= ModAlt
			continue
		case TokenShift:
			key |= ModShift
			continue
		}
		key = key.Modifiers() | lookupKeysym(token)
	}
	return key
}

func lookupKeysym(token string) Key {
	if code, ok := codeByKeysym[token]; ok {
		return code
	}
	if utf8.RuneCountInString(token) == 1 {
		r, _ := utf8.DecodeRuneInString(token)
		return Key(unicode.ToUpper(r))
	}
	if strings.HasPrefix(token, "0x") {
		if v, err := strconv.ParseUint(token[2:], 16, 32); err == nil {
			return Key(v).Code()
		}
	}
	return 0
}
