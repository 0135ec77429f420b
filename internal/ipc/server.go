package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/example/traymenu/internal/bus"
	"github.com/example/traymenu/internal/codec"
	"github.com/example/traymenu/internal/logging"
	"github.com/example/traymenu/internal/loop"
	"github.com/example/traymenu/internal/security"
)

const (
	helloTimeout = 10 * time.Second
	writeTimeout = 10 * time.Second
	// maxQueued bounds the frames waiting for one client.
	maxQueued = 1 << 16
)

// Server exposes a bus.Handler to remote clients. Calls run on the handler's
// loop. Server also implements bus.Emitter: signals go to every authenticated
// client.
type Server struct {
	loop         *loop.Loop
	handler      bus.Handler
	token        string
	writeTimeout time.Duration

	mu      sync.Mutex
	clients map[*peer]struct{}
}

// peer queues outgoing frames without bounding the burst a single loop tick
// may produce. A client is dropped once a write stays blocked past the write
// timeout or its queue reaches maxQueued.
type peer struct {
	conn    net.Conn
	session string

	mu    sync.Mutex
	queue []Frame
	wake  chan struct{}

	once sync.Once
	done chan struct{}
}

// NewServer constructs a server. Calls are run on l and answered by h.
func NewServer(l *loop.Loop, h bus.Handler, token string) *Server {
	return &Server{
		loop:         l,
		handler:      h,
		token:        token,
		writeTimeout: writeTimeout,
		clients:      make(map[*peer]struct{}),
	}
}

// SetWriteTimeout sets how long a single frame write to a client may block
// before the client is considered stalled and disconnected.
func (s *Server) SetWriteTimeout(d time.Duration) {
	s.writeTimeout = d
}

// Handle installs the handler answering calls. It must be called before the
// server accepts connections.
func (s *Server) Handle(h bus.Handler) {
	s.handler = h
}

// Clients returns the number of authenticated clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// ListenAndServe binds the endpoint and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, ep Endpoint) error {
	listener, err := ep.Listen()
	if err != nil {
		return fmt.Errorf("listen on %s: %w", ep.String(), err)
	}
	log.Printf("traymenu: serving menu on %s", ep.String())
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is canceled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	defer listener.Close()

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.closeAll()
				return context.Canceled
			default:
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				log.Printf("ipc: temporary accept error: %v", err)
				time.Sleep(250 * time.Millisecond)
				continue
			}
			s.closeAll()
			return fmt.Errorf("accept connection: %w", err)
		}

		go s.ServeConn(conn)
	}
}

// ServeConn runs one client connection until it closes.
func (s *Server) ServeConn(conn net.Conn) {
	defer conn.Close()

	fc := &frameConn{enc: codec.NewEncoder(conn), dec: codec.NewDecoder(conn)}

	_ = conn.SetReadDeadline(time.Now().Add(helloTimeout))
	hello, err := fc.read("recv")
	if err != nil {
		log.Printf("ipc: failed to decode hello: %v", err)
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	if hello.Kind != KindHello || !security.TokensEqual(s.token, hello.Token) {
		_ = fc.write("send", Frame{Kind: KindError, Error: ErrUnauthorized.Error()})
		log.Printf("ipc: rejected client %s", conn.RemoteAddr())
		return
	}
	if err := fc.write("send", Frame{Kind: KindWelcome, Session: hello.Session}); err != nil {
		log.Printf("ipc: %v", err)
		return
	}

	p := &peer{
		conn:    conn,
		session: hello.Session,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	s.mu.Lock()
	s.clients[p] = struct{}{}
	s.mu.Unlock()
	logging.Debugf("ipc: client %s connected", p.session)

	go s.writeLoop(p, fc)
	s.readLoop(p, fc)

	s.mu.Lock()
	delete(s.clients, p)
	s.mu.Unlock()
	p.close()
	logging.Debugf("ipc: client %s disconnected", p.session)
}

func (s *Server) readLoop(p *peer, fc *frameConn) {
	for {
		f, err := fc.read("recv")
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				logging.Debugf("ipc: read from %s: %v", p.session, err)
			}
			return
		}
		switch f.Kind {
		case KindCall, KindSend:
			s.dispatch(p, f)
		default:
			log.Printf("ipc: unexpected %s frame from %s", f.Kind, p.session)
		}
	}
}

func (s *Server) dispatch(p *peer, f Frame) {
	s.loop.Post(func() {
		if s.handler == nil {
			p.send(Frame{Kind: KindError, Serial: f.Serial, Name: f.Name, Error: bus.ErrNoHandler.Error()})
			return
		}
		values, err := s.handler.HandleCall(f.Name, f.Args)
		if f.Kind == KindSend {
			if err != nil {
				logging.Debugf("ipc: %s failed: %v", f.Name, err)
			}
			return
		}
		if err != nil {
			p.send(Frame{Kind: KindError, Serial: f.Serial, Name: f.Name, Error: err.Error()})
			return
		}
		p.send(Frame{Kind: KindReply, Serial: f.Serial, Args: values})
	})
}

func (s *Server) writeLoop(p *peer, fc *frameConn) {
	for {
		select {
		case <-p.done:
			return
		case <-p.wake:
		}
		for _, f := range p.drain() {
			_ = p.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := fc.write("send", f); err != nil {
				var ne net.Error
				if errors.As(err, &ne) && ne.Timeout() {
					log.Printf("ipc: client %s is not reading, disconnecting", p.session)
				} else {
					logging.Debugf("ipc: write to %s: %v", p.session, err)
				}
				p.close()
				return
			}
		}
	}
}

// Emit implements bus.Emitter.
func (s *Server) Emit(signal string, args ...any) {
	s.mu.Lock()
	peers := make([]*peer, 0, len(s.clients))
	for p := range s.clients {
		peers = append(peers, p)
	}
	s.mu.Unlock()

	for _, p := range peers {
		p.send(Frame{Kind: KindSignal, Name: signal, Args: args})
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for p := range s.clients {
		p.close()
	}
}

// send queues f for the write loop.
func (p *peer) send(f Frame) {
	select {
	case <-p.done:
		return
	default:
	}
	p.mu.Lock()
	if len(p.queue) >= maxQueued {
		p.mu.Unlock()
		log.Printf("ipc: client %s has %d frames pending, disconnecting", p.session, maxQueued)
		p.close()
		return
	}
	p.queue = append(p.queue, f)
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// drain takes every queued frame.
func (p *peer) drain() []Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	frames := p.queue
	p.queue = nil
	return frames
}

func (p *peer) close() {
	p.once.Do(func() {
		close(p.done)
		_ = p.conn.Close()
	})
}
