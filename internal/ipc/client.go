package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/traymenu/internal/bus"
	"github.com/example/traymenu/internal/codec"
	"github.com/example/traymenu/internal/logging"
	"github.com/example/traymenu/internal/loop"
)

// Client is the importer end of an ipc connection. It implements bus.Conn.
// Replies and signals are delivered as tasks on the client's loop.
type Client struct {
	loop    *loop.Loop
	conn    net.Conn
	fc      *frameConn
	session string
	signals bus.Signals

	wmu     sync.Mutex
	mu      sync.Mutex
	serial  uint32
	pending map[uint32]*bus.Pending
	closed  bool
	done    chan struct{}
}

// Dial connects to ep and authenticates with token.
func Dial(ctx context.Context, l *loop.Loop, ep Endpoint, token string) (*Client, error) {
	conn, err := ep.DialContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", ep.String(), err)
	}
	c, err := NewClient(l, conn, token)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

// NewClient performs the hello exchange on conn and starts reading.
func NewClient(l *loop.Loop, conn net.Conn, token string) (*Client, error) {
	c := &Client{
		loop:    l,
		conn:    conn,
		fc:      &frameConn{enc: codec.NewEncoder(conn), dec: codec.NewDecoder(conn)},
		session: uuid.NewString(),
		pending: make(map[uint32]*bus.Pending),
		done:    make(chan struct{}),
	}

	_ = conn.SetDeadline(time.Now().Add(helloTimeout))
	if err := c.fc.write("send", Frame{Kind: KindHello, Token: token, Session: c.session}); err != nil {
		return nil, err
	}
	welcome, err := c.fc.read("recv")
	if err != nil {
		return nil, fmt.Errorf("read welcome: %w", err)
	}
	_ = conn.SetDeadline(time.Time{})

	switch welcome.Kind {
	case KindWelcome:
	case KindError:
		if welcome.Error == ErrUnauthorized.Error() {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("ipc: handshake rejected: %s", welcome.Error)
	default:
		return nil, fmt.Errorf("ipc: unexpected %s frame during handshake", welcome.Kind)
	}

	go c.readLoop()
	return c, nil
}

// Session returns the id the client announced in its hello.
func (c *Client) Session() string { return c.session }

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} { return c.done }

// Call implements bus.Conn.
func (c *Client) Call(method string, args ...any) *bus.Pending {
	c.mu.Lock()
	c.serial++
	p := bus.NewPending(c.serial, method)
	if c.closed {
		c.mu.Unlock()
		c.loop.Post(func() { p.Finish(nil, bus.ErrClosed) })
		return p
	}
	c.pending[p.Serial] = p
	c.mu.Unlock()

	logging.LogCall(c.session, method, p.Serial, args)
	if err := c.write(Frame{Kind: KindCall, Serial: p.Serial, Name: method, Args: args}); err != nil {
		c.mu.Lock()
		delete(c.pending, p.Serial)
		c.mu.Unlock()
		c.loop.Post(func() { p.Finish(nil, err) })
	}
	return p
}

// Send implements bus.Conn.
func (c *Client) Send(method string, args ...any) {
	logging.LogCall(c.session, method, 0, args)
	if err := c.write(Frame{Kind: KindSend, Name: method, Args: args}); err != nil {
		logging.Debugf("ipc: send %s: %v", method, err)
	}
}

// Subscribe implements bus.Conn. Handlers run on the client's loop.
func (c *Client) Subscribe(signal string, fn func(args []any)) (cancel func()) {
	return c.signals.Subscribe(signal, fn)
}

// Close drops the connection. Outstanding calls fail with bus.ErrClosed.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) write(f Frame) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return bus.ErrClosed
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.fc.write("send", f)
}

func (c *Client) readLoop() {
	defer c.shutdown()
	for {
		f, err := c.fc.read("recv")
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				logging.Debugf("ipc: read: %v", err)
			}
			return
		}
		switch f.Kind {
		case KindReply:
			c.finish(f.Serial, f.Args, nil)
		case KindError:
			c.finish(f.Serial, nil, &bus.RemoteError{Method: f.Name, Message: f.Error})
		case KindSignal:
			name, args := f.Name, f.Args
			c.loop.Post(func() {
				logging.LogSignal(c.session, name, args)
				c.signals.Dispatch(name, args)
			})
		default:
			logging.Debugf("ipc: ignoring %s frame", f.Kind)
		}
	}
}

func (c *Client) finish(serial uint32, values []any, err error) {
	c.mu.Lock()
	p, ok := c.pending[serial]
	delete(c.pending, serial)
	c.mu.Unlock()
	if !ok {
		logging.Debugf("ipc: reply for unknown serial %d", serial)
		return
	}
	c.loop.Post(func() {
		logging.LogReply(c.session, serial, values, err)
		p.Finish(values, err)
	})
}

func (c *Client) shutdown() {
	c.mu.Lock()
	c.closed = true
	orphans := c.pending
	c.pending = make(map[uint32]*bus.Pending)
	c.mu.Unlock()
	_ = c.conn.Close()

	c.loop.Post(func() {
		for _, p := range orphans {
			p.Finish(nil, bus.ErrClosed)
		}
	})
	close(c.done)
}
