// Package codec is the single CBOR configuration shared by the ipc frames and
// the in-process loopback bus.
package codec

import (
	"fmt"
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode uses Core Deterministic Encoding: sorted map keys and the smallest
// integer encoding, so equal values always produce identical bytes.
var encMode cbor.EncMode

// decMode decodes any-typed maps as map[string]any. Item properties are
// always keyed by name.
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Encoder is a CBOR stream encoder.
type Encoder = cbor.Encoder

// Decoder is a CBOR stream decoder.
type Decoder = cbor.Decoder

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return decMode.NewDecoder(r)
}

// Normalize round-trips args through CBOR so a receiver sees the same
// generic shapes it would see after a real transport: unsigned integers as
// uint64, negative ones as int64, lists as []any and maps as map[string]any.
func Normalize(args []any) ([]any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	data, err := Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("codec: normalize: %w", err)
	}
	var out []any
	if err := Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("codec: normalize: %w", err)
	}
	return out, nil
}
