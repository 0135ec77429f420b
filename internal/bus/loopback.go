package bus

import (
	"log"

	"github.com/example/traymenu/internal/codec"
	"github.com/example/traymenu/internal/logging"
	"github.com/example/traymenu/internal/loop"
)

// Loopback connects an exporter and its importers inside one process. Calls,
// replies and signals are each delivered as separate loop tasks, and every
// argument list passes through the CBOR codec so both ends see the same
// generic shapes a socket transport would produce.
type Loopback struct {
	loop    *loop.Loop
	handler Handler
	signals Signals
	serial  uint32
	closed  bool
	calls   map[string]int
}

// NewLoopback constructs a loopback bus delivering on l.
func NewLoopback(l *loop.Loop) *Loopback {
	return &Loopback{loop: l, calls: make(map[string]int)}
}

// Serve installs the handler answering calls.
func (b *Loopback) Serve(h Handler) {
	b.handler = h
}

// Calls reports how many calls of method have been issued.
func (b *Loopback) Calls(method string) int {
	return b.calls[method]
}

// Call implements Conn.
func (b *Loopback) Call(method string, args ...any) *Pending {
	b.serial++
	b.calls[method]++
	p := NewPending(b.serial, method)
	logging.LogCall("loopback", method, p.Serial, args)

	normalized, err := codec.Normalize(args)
	b.loop.Post(func() {
		if err != nil {
			p.Finish(nil, err)
			return
		}
		values, err := b.dispatch(method, normalized)
		b.loop.Post(func() {
			logging.LogReply("loopback", p.Serial, values, err)
			p.Finish(values, err)
		})
	})
	return p
}

// Send implements Conn.
func (b *Loopback) Send(method string, args ...any) {
	b.calls[method]++
	logging.LogCall("loopback", method, 0, args)
	normalized, err := codec.Normalize(args)
	if err != nil {
		log.Printf("bus: unable to encode %s arguments: %v", method, err)
		return
	}
	b.loop.Post(func() {
		if _, err := b.dispatch(method, normalized); err != nil {
			logging.Debugf("bus: %s failed: %v", method, err)
		}
	})
}

func (b *Loopback) dispatch(method string, args []any) ([]any, error) {
	if b.closed {
		return nil, ErrClosed
	}
	if b.handler == nil {
		return nil, ErrNoHandler
	}
	values, err := b.handler.HandleCall(method, args)
	if err != nil {
		return nil, err
	}
	return codec.Normalize(values)
}

// Subscribe implements Conn.
func (b *Loopback) Subscribe(signal string, fn func(args []any)) (cancel func()) {
	return b.signals.Subscribe(signal, fn)
}

// Emit implements Emitter. Subscribers run in a later loop task.
func (b *Loopback) Emit(signal string, args ...any) {
	if b.closed {
		return
	}
	logging.LogSignal("loopback", signal, args)
	normalized, err := codec.Normalize(args)
	if err != nil {
		log.Printf("bus: unable to encode %s signal: %v", signal, err)
		return
	}
	b.loop.Post(func() {
		if b.closed {
			return
		}
		b.signals.Dispatch(signal, normalized)
	})
}

// Close stops deliveries. Calls issued afterwards fail with ErrClosed.
func (b *Loopback) Close() {
	b.closed = true
	b.signals.Clear()
}
