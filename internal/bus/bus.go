// Package bus is the abstract RPC channel between a menu exporter and its
// importers: asynchronous calls correlated by a Pending handle, fire-and-forget
// sends, and unsolicited signals.
//
// Every callback in this package runs on the loop owning the connection.
// Transports that read from sockets on other goroutines must post onto that
// loop before touching a Pending or dispatching a signal.
package bus

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed reports a call on, or a call outstanding when closing, a
	// connection that is gone.
	ErrClosed = errors.New("bus: connection closed")
	// ErrUnknownMethod is returned by handlers for unsupported methods.
	ErrUnknownMethod = errors.New("bus: unknown method")
	// ErrNoHandler reports a call to a bus nobody serves.
	ErrNoHandler = errors.New("bus: no handler")
)

// Conn is the importer side of the channel.
type Conn interface {
	// Call starts an asynchronous call.
	Call(method string, args ...any) *Pending
	// Send issues a call whose reply is not wanted.
	Send(method string, args ...any)
	// Subscribe registers fn for a signal and returns a function removing
	// the subscription.
	Subscribe(signal string, fn func(args []any)) (cancel func())
}

// Handler serves calls on the exporter side.
type Handler interface {
	HandleCall(method string, args []any) ([]any, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(method string, args []any) ([]any, error)

// HandleCall calls f.
func (f HandlerFunc) HandleCall(method string, args []any) ([]any, error) {
	return f(method, args)
}

// Emitter publishes signals on the exporter side.
type Emitter interface {
	Emit(signal string, args ...any)
}

// RemoteError carries an error message returned by the remote handler.
type RemoteError struct {
	Method  string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("bus: %s failed remotely: %s", e.Method, e.Message)
}
