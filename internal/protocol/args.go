package protocol

import "math"

// The As* helpers accept both native Go values and the generic shapes a
// decoder produces (uint64/int64 integers, []any arrays, maps keyed by any).

// AsInt32 reads an integer that fits in 32 bits.
func AsInt32(v any) (int32, bool) {
	switch n := v.(type) {
	case int32:
		return n, true
	case int:
		return fitInt32(int64(n))
	case int8:
		return int32(n), true
	case int16:
		return int32(n), true
	case int64:
		return fitInt32(n)
	case uint8:
		return int32(n), true
	case uint16:
		return int32(n), true
	case uint32:
		if n > math.MaxInt32 {
			return 0, false
		}
		return int32(n), true
	case uint64:
		if n > math.MaxInt32 {
			return 0, false
		}
		return int32(n), true
	case uint:
		if n > math.MaxInt32 {
			return 0, false
		}
		return int32(n), true
	}
	return 0, false
}

func fitInt32(n int64) (int32, bool) {
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, false
	}
	return int32(n), true
}

// AsUint32 reads a non-negative integer that fits in 32 bits.
func AsUint32(v any) (uint32, bool) {
	switch n := v.(type) {
	case uint32:
		return n, true
	case uint64:
		if n > math.MaxUint32 {
			return 0, false
		}
		return uint32(n), true
	}
	i, ok := AsInt32(v)
	if !ok || i < 0 {
		return 0, false
	}
	return uint32(i), true
}

// AsString reads a string.
func AsString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// AsBool reads a boolean.
func AsBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// AsBytes reads a byte string.
func AsBytes(v any) ([]byte, bool) {
	switch b := v.(type) {
	case []byte:
		return b, true
	case nil:
		return nil, true
	}
	return nil, false
}

// AsStrings reads a list of strings.
func AsStrings(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return list, true
	case nil:
		return nil, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// AsIDs reads a list of item ids.
func AsIDs(v any) ([]ItemID, bool) {
	switch list := v.(type) {
	case []ItemID:
		return list, true
	case []int32:
		out := make([]ItemID, len(list))
		for i, id := range list {
			out[i] = ItemID(id)
		}
		return out, true
	case nil:
		return nil, true
	case []any:
		out := make([]ItemID, 0, len(list))
		for _, item := range list {
			id, ok := AsInt32(item)
			if !ok {
				return nil, false
			}
			out = append(out, ItemID(id))
		}
		return out, true
	}
	return nil, false
}

// AsMap reads a string keyed map.
func AsMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Properties:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, item := range m {
			key, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[key] = item
		}
		return out, true
	case nil:
		return map[string]any{}, true
	}
	return nil, false
}

// AsTokenLists reads a shortcut: a list of chords, each a list of tokens.
func AsTokenLists(v any) ([][]string, bool) {
	switch list := v.(type) {
	case [][]string:
		return list, true
	case nil:
		return nil, true
	case []any:
		out := make([][]string, 0, len(list))
		for _, item := range list {
			tokens, ok := AsStrings(item)
			if !ok {
				return nil, false
			}
			out = append(out, tokens)
		}
		return out, true
	}
	return nil, false
}
