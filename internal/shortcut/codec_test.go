package shortcut

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeOrdersModifiers(t *testing.T) {
	seq := Sequence{ModShift | ModAlt | ModSuper | ModControl | Key('S')}
	assert.Equal(t, [][]string{{"Control", "Super", "Alt", "Shift", "S"}}, Encode(seq))
}

func TestEncodeMultiChord(t *testing.T) {
	seq := Sequence{ModControl | Key('A'), ModAlt | Key('B')}
	assert.Equal(t, [][]string{{"Control", "A"}, {"Alt", "B"}}, Encode(seq))
}

func TestEncodeSpecialKeys(t *testing.T) {
	seq := Sequence{KeyF1 + 4, ModControl | KeyPageDown, Key('+'), ModShift | KeyDelete}
	assert.Equal(t, [][]string{{"F5"}, {"Control", "Next"}, {"plus"}, {"Shift", "Delete"}}, Encode(seq))
}

func TestRoundTrip(t *testing.T) {
	codes := []Key{Key('A'), Key('Z'), Key('0'), Key('9'), Key(' '), Key('/'), KeyEscape, KeyReturn, KeyHome, KeyF1, KeyF1 + 11, KeyMenu}
	mods := []Key{0, ModControl, ModSuper, ModAlt, ModShift, ModControl | ModShift, ModControl | ModAlt | ModSuper | ModShift}
	for _, code := range codes {
		for _, mod := range mods {
			seq := Sequence{mod | code}
			got := Decode(Encode(seq))
			require.Equal(t, seq, got, "key %s", seq)
		}
	}
}

func TestRoundTripUnlistedCode(t *testing.T) {
	seq := Sequence{ModControl | Key(0x01001234)}
	encoded := Encode(seq)
	assert.Equal(t, [][]string{{"Control", "0x1001234"}}, encoded)
	assert.Equal(t, seq, Decode(encoded))
}

func TestDecodeUnknownTerminalDoesNotPanic(t *testing.T) {
	got := Decode([][]string{{"Control", "NoSuchKeysym"}, {"q"}})
	require.Len(t, got, 2)
	assert.Equal(t, ModControl, got[0])
	assert.Equal(t, Key('Q'), got[1])
}

func TestDecodeCapsChords(t *testing.T) {
	chords := [][]string{{"A"}, {"B"}, {"C"}, {"D"}, {"E"}}
	assert.Len(t, Decode(chords), MaxChords)
}

func TestParseAndString(t *testing.T) {
	seq, err := Parse("Ctrl+Shift+S, Alt+F4")
	require.NoError(t, err)
	assert.Equal(t, Sequence{ModControl | ModShift | Key('S'), ModAlt | (KeyF1 + 3)}, seq)
	assert.Equal(t, "Ctrl+Shift+S, Alt+F4", seq.String())

	seq, err = Parse("ctrl++")
	require.NoError(t, err)
	assert.Equal(t, Sequence{ModControl | Key('+')}, seq)

	_, err = Parse("Ctrl+Nope")
	assert.Error(t, err)

	_, err = Parse("Ctrl+A+B")
	assert.Error(t, err)

	seq, err = Parse("  ")
	require.NoError(t, err)
	assert.True(t, seq.IsEmpty())
}
