// Package ipc carries the menu bus between processes: CBOR frames over a
// stream connection, authenticated by the service token.
package ipc

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/example/traymenu/internal/codec"
	"github.com/example/traymenu/internal/logging"
)

// ErrUnauthorized reports a rejected hello.
var ErrUnauthorized = errors.New("ipc: unauthorized")

// Kind names a frame type.
type Kind string

const (
	KindHello   Kind = "hello"
	KindWelcome Kind = "welcome"
	KindCall    Kind = "call"
	KindSend    Kind = "send"
	KindReply   Kind = "reply"
	KindError   Kind = "error"
	KindSignal  Kind = "signal"
)

// Frame is one message on the wire. Name holds the method for calls and sends
// and the signal name for signals.
type Frame struct {
	Kind    Kind   `cbor:"kind"`
	Serial  uint32 `cbor:"serial,omitempty"`
	Token   string `cbor:"token,omitempty"`
	Session string `cbor:"session,omitempty"`
	Name    string `cbor:"name,omitempty"`
	Args    []any  `cbor:"args,omitempty"`
	Error   string `cbor:"error,omitempty"`
}

// frameConn serialises frames on one stream.
type frameConn struct {
	enc *codec.Encoder
	dec *codec.Decoder
}

func (c *frameConn) write(direction string, f Frame) error {
	logFrame(direction, f)
	if err := c.enc.Encode(f); err != nil {
		return fmt.Errorf("write %s frame: %w", f.Kind, err)
	}
	return nil
}

func (c *frameConn) read(direction string) (Frame, error) {
	var f Frame
	if err := c.dec.Decode(&f); err != nil {
		return Frame{}, err
	}
	logFrame(direction, f)
	return f, nil
}

func logFrame(direction string, f Frame) {
	if !logging.DebugEnabled() {
		return
	}
	fields := map[string]string{"kind": string(f.Kind)}
	if f.Serial != 0 {
		fields["serial"] = strconv.FormatUint(uint64(f.Serial), 10)
	}
	if f.Token != "" {
		fields["token"] = f.Token
	}
	if f.Session != "" {
		fields["session"] = f.Session
	}
	if f.Name != "" {
		fields["name"] = f.Name
	}
	if f.Error != "" {
		fields["error"] = f.Error
	}
	if len(f.Args) > 0 {
		fields["args"] = logging.SummarizeArgs(f.Args)
	}
	logging.LogFrame(direction, fields, nil)
}
