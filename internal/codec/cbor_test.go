package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalDeterministic(t *testing.T) {
	a := map[string]any{"label": "x", "enabled": false, "visible": true}
	b := map[string]any{"visible": true, "label": "x", "enabled": false}

	first, err := Marshal(a)
	require.NoError(t, err)
	second, err := Marshal(b)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second))
}

func TestNormalizeShapes(t *testing.T) {
	out, err := Normalize([]any{
		int32(7),
		int32(-1),
		[]string{"a", "b"},
		map[string]any{"shortcut": [][]string{{"Control", "S"}}},
		[]byte{1, 2},
	})
	require.NoError(t, err)
	require.Len(t, out, 5)

	assert.Equal(t, uint64(7), out[0])
	assert.Equal(t, int64(-1), out[1])
	assert.Equal(t, []any{"a", "b"}, out[2])
	props, ok := out[3].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{[]any{"Control", "S"}}, props["shortcut"])
	assert.Equal(t, []byte{1, 2}, out[4])
}

func TestNormalizeEmpty(t *testing.T) {
	out, err := Normalize(nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestStreamRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	require.NoError(t, enc.Encode(map[string]any{"n": 1}))
	require.NoError(t, enc.Encode(map[string]any{"n": 2}))

	dec := NewDecoder(&buf)
	for _, want := range []uint64{1, 2} {
		var got map[string]any
		require.NoError(t, dec.Decode(&got))
		assert.Equal(t, want, got["n"])
	}
}
