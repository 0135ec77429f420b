package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelToWire(t *testing.T) {
	cases := map[string]string{
		"&Edit":       "_Edit",
		"A && B":      "A & B",
		"Save &As":    "Save _As",
		"&One &Two":   "_One Two",
		"snake_case":  "snake__case",
		"trailing &":  "trailing ",
		"no mnemonic": "no mnemonic",
		"":            "",
	}
	for in, want := range cases {
		assert.Equal(t, want, LabelToWire(in), "input %q", in)
	}
}

func TestLabelFromWire(t *testing.T) {
	assert.Equal(t, "&Open", LabelFromWire("_Open"))
	assert.Equal(t, "snake_case", LabelFromWire("snake__case"))
	assert.Equal(t, "A && B", LabelFromWire("A & B"))
}

func TestLabelRoundTrip(t *testing.T) {
	for _, label := range []string{"&Edit", "A && B", "x_y &z", "plain", "__init__"} {
		wire := LabelToWire(label)
		back := LabelFromWire(wire)
		assert.Equal(t, wire, LabelToWire(back), "label %q", label)
	}
	assert.Equal(t, "&Edit", LabelFromWire(LabelToWire("&Edit")))
	assert.Equal(t, "A && B", LabelFromWire(LabelToWire("A && B")))
}

func TestIsDefault(t *testing.T) {
	for _, name := range Names {
		assert.True(t, IsDefault(name, Defaults[name]), "default of %s", name)
	}
	assert.False(t, IsDefault(PropEnabled, false))
	assert.False(t, IsDefault(PropToggleState, uint64(1)))
	assert.True(t, IsDefault(PropToggleState, uint64(0)))
	assert.False(t, IsDefault(PropShortcut, []any{[]any{"Control", "S"}}))
	assert.False(t, IsDefault("x-custom", nil))
}

func TestPropertiesAccessorsFallBackToDefaults(t *testing.T) {
	p := Properties{PropLabel: "a1", PropToggleState: uint64(1)}
	assert.Equal(t, "a1", p.String(PropLabel))
	assert.True(t, p.Bool(PropEnabled))
	assert.True(t, p.Bool(PropVisible))
	assert.Equal(t, ToggleOn, p.Int(PropToggleState))
	assert.Equal(t, TypeStandard, p.String(PropType))
	assert.Nil(t, p.Shortcut())
	assert.Equal(t, Properties{PropLabel: "a1"}, p.Filter([]string{PropLabel, PropIconName}))
	assert.Equal(t, []string{PropLabel, PropToggleState}, p.Keys())

	all := p.Filter(nil)
	all[PropLabel] = "changed"
	assert.Equal(t, "a1", p.String(PropLabel))
}

func TestDecodeItemsFromGenericShapes(t *testing.T) {
	raw := []any{
		[]any{uint64(3), map[string]any{"label": "x"}},
		[]any{int64(4), map[any]any{"type": "separator"}},
	}
	items, err := DecodeItems(raw)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, ItemID(3), items[0].ID)
	assert.Equal(t, "x", items[0].Properties.String(PropLabel))
	assert.Equal(t, TypeSeparator, items[1].Properties.String(PropType))

	_, err = DecodeItems([]any{[]any{"bad"}})
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = DecodeItems("nope")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestEncodeDecodeItem(t *testing.T) {
	it := Item{ID: 7, Properties: Properties{PropLabel: "seven"}}
	back, err := DecodeItem(it.Encode())
	require.NoError(t, err)
	assert.Equal(t, it.ID, back.ID)
	assert.Equal(t, "seven", back.Properties.String(PropLabel))
}

func TestArgHelpers(t *testing.T) {
	_, ok := AsInt32(uint64(1 << 40))
	assert.False(t, ok)
	n, ok := AsInt32(int64(-5))
	require.True(t, ok)
	assert.Equal(t, int32(-5), n)

	ids, ok := AsIDs([]any{uint64(1), int64(2)})
	require.True(t, ok)
	assert.Equal(t, []ItemID{1, 2}, ids)

	chords, ok := AsTokenLists([]any{[]any{"Control", "S"}})
	require.True(t, ok)
	assert.Equal(t, [][]string{{"Control", "S"}}, chords)

	_, ok = AsStrings([]any{"a", 1})
	assert.False(t, ok)

	u, ok := AsUint32(uint64(42))
	require.True(t, ok)
	assert.Equal(t, uint32(42), u)
}

func TestLayoutRoundTrip(t *testing.T) {
	l := Layout{ID: 0, Children: []Layout{
		{ID: 1},
		{ID: 2, Children: []Layout{{ID: 3}, {ID: 4}}},
	}}
	doc, err := MarshalLayout(l)
	require.NoError(t, err)
	assert.Contains(t, doc, `<menu id="2">`)

	back, err := ParseLayout(doc)
	require.NoError(t, err)
	assert.Equal(t, []ItemID{1, 2, 3, 4}, back.IDs())
	assert.Equal(t, 4, back.Count())

	_, err = ParseLayout("<menu")
	assert.Error(t, err)
}
