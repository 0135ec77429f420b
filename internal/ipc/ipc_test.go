package ipc

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/traymenu/internal/bus"
	"github.com/example/traymenu/internal/codec"
	"github.com/example/traymenu/internal/exporter"
	"github.com/example/traymenu/internal/importer"
	"github.com/example/traymenu/internal/loop"
	"github.com/example/traymenu/internal/menu"
	"github.com/example/traymenu/internal/protocol"
)

const waitTimeout = 2 * time.Second

func connect(t *testing.T, l *loop.Loop, srv *Server, token string) (*Client, error) {
	t.Helper()
	clientSide, serverSide := net.Pipe()
	go srv.ServeConn(serverSide)
	c, err := NewClient(l, clientSide, token)
	if err != nil {
		clientSide.Close()
		return nil, err
	}
	t.Cleanup(func() { c.Close() })
	return c, nil
}

func TestParseEndpoint(t *testing.T) {
	assert.Equal(t, Endpoint{Network: "tcp", Address: "127.0.0.1:1"}, ParseEndpoint("127.0.0.1:1"))
	assert.Equal(t, Endpoint{Network: "unix", Address: "/run/menu.sock"}, ParseEndpoint("unix:///run/menu.sock"))
	assert.Equal(t, "tcp://127.0.0.1:1", ParseEndpoint(" tcp://127.0.0.1:1 ").String())

	t.Setenv("TRAYMENU_SERVICE_ADDR", "127.0.0.1:9")
	assert.Equal(t, "127.0.0.1:9", DefaultEndpoint().Address)
}

func TestRejectsBadToken(t *testing.T) {
	l := loop.New()
	srv := NewServer(l, bus.HandlerFunc(func(string, []any) ([]any, error) { return nil, nil }), "secret")

	_, err := connect(t, l, srv, "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 0, srv.Clients())
}

func TestMirrorsMenuOverConnection(t *testing.T) {
	l := loop.New()
	root := menu.NewMenu("root")
	open := root.AddItem("&Open")
	root.AddSeparator()

	clicked := false
	open.OnTriggered(func(*menu.Action) { clicked = true })

	srv := NewServer(l, nil, "secret")
	exp := exporter.New(l, root, srv)
	srv.Handle(exp)

	client, err := connect(t, l, srv, "secret")
	require.NoError(t, err)
	require.NotEmpty(t, client.Session())

	imp := importer.New(l, client)
	mirror := imp.Menu()
	require.True(t, l.WaitFor(func() bool { return mirror.Len() == 2 }, waitTimeout))
	assert.Equal(t, "&Open", mirror.At(0).Text())
	assert.True(t, mirror.At(1).IsSeparator())
	assert.Equal(t, 1, srv.Clients())

	open.SetText("&Open file")
	require.True(t, l.WaitFor(func() bool { return mirror.At(0).Text() == "&Open file" }, waitTimeout))

	root.AddItem("Quit")
	require.True(t, l.WaitFor(func() bool { return mirror.Len() == 3 }, waitTimeout))

	mirror.At(0).Trigger()
	require.True(t, l.WaitFor(func() bool { return clicked }, waitTimeout))
}

func TestRemoteErrorsAreReported(t *testing.T) {
	l := loop.New()
	srv := NewServer(l, bus.HandlerFunc(func(method string, _ []any) ([]any, error) {
		if method == "Echo" {
			return []any{"pong", int32(-3)}, nil
		}
		return nil, bus.ErrUnknownMethod
	}), "secret")
	client, err := connect(t, l, srv, "secret")
	require.NoError(t, err)

	echo := client.Call("Echo")
	bad := client.Call("Nope")
	require.True(t, l.WaitFor(func() bool { return echo.Finished() && bad.Finished() }, waitTimeout))

	require.NoError(t, echo.Err())
	assert.Equal(t, []any{"pong", int64(-3)}, echo.Values())

	var remote *bus.RemoteError
	require.ErrorAs(t, bad.Err(), &remote)
	assert.Equal(t, "Nope", remote.Method)
}

func TestLostConnectionFailsPendingCalls(t *testing.T) {
	l := loop.New()
	clientSide, serverSide := net.Pipe()
	go func() {
		fc := &frameConn{enc: codec.NewEncoder(serverSide), dec: codec.NewDecoder(serverSide)}
		if _, err := fc.read("recv"); err != nil {
			return
		}
		_ = fc.write("send", Frame{Kind: KindWelcome})
		_, _ = fc.read("recv")
		serverSide.Close()
	}()

	client, err := NewClient(l, clientSide, "secret")
	require.NoError(t, err)

	p := client.Call(protocol.MethodGetChildren, int32(0), []string{})
	require.True(t, l.WaitFor(p.Finished, waitTimeout))
	assert.ErrorIs(t, p.Err(), bus.ErrClosed)

	select {
	case <-client.Done():
	case <-time.After(waitTimeout):
		t.Fatal("client did not notice the closed connection")
	}

	late := client.Call(protocol.MethodGetChildren, int32(0), []string{})
	require.True(t, l.WaitFor(late.Finished, waitTimeout))
	assert.ErrorIs(t, late.Err(), bus.ErrClosed)
}

func TestServeStopsOnCancel(t *testing.T) {
	l := loop.New()
	srv := NewServer(l, bus.HandlerFunc(func(string, []any) ([]any, error) { return nil, nil }), "secret")
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, listener) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(waitTimeout):
		t.Fatal("Serve did not return")
	}
}

func TestBulkUpdateKeepsClientConnected(t *testing.T) {
	l := loop.New()
	root := menu.NewMenu("root")
	actions := make([]*menu.Action, 1000)
	for i := range actions {
		actions[i] = root.AddItem(fmt.Sprintf("item %d", i))
	}

	srv := NewServer(l, nil, "secret")
	exp := exporter.New(l, root, srv)
	srv.Handle(exp)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = srv.Serve(ctx, listener) }()

	client, err := Dial(ctx, l, Endpoint{Network: "tcp", Address: listener.Addr().String()}, "secret")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	imp := importer.New(l, client)
	mirror := imp.Menu()
	require.True(t, l.WaitFor(func() bool { return mirror.Len() == len(actions) }, 10*time.Second))

	for i, a := range actions {
		a.SetText(fmt.Sprintf("renamed %d", i))
	}
	require.True(t, l.WaitFor(func() bool {
		for i, a := range mirror.Actions() {
			if a.Text() != fmt.Sprintf("renamed %d", i) {
				return false
			}
		}
		return true
	}, 10*time.Second))

	assert.Equal(t, 1, srv.Clients())
	select {
	case <-client.Done():
		t.Fatal("client was disconnected during the bulk update")
	default:
	}
}

func TestStalledClientIsDisconnected(t *testing.T) {
	l := loop.New()
	srv := NewServer(l, bus.HandlerFunc(func(string, []any) ([]any, error) { return nil, nil }), "secret")
	srv.SetWriteTimeout(50 * time.Millisecond)

	clientSide, serverSide := net.Pipe()
	t.Cleanup(func() { clientSide.Close() })
	go srv.ServeConn(serverSide)

	fc := &frameConn{enc: codec.NewEncoder(clientSide), dec: codec.NewDecoder(clientSide)}
	require.NoError(t, fc.write("send", Frame{Kind: KindHello, Token: "secret", Session: "stuck"}))
	welcome, err := fc.read("recv")
	require.NoError(t, err)
	require.Equal(t, KindWelcome, welcome.Kind)
	require.Eventually(t, func() bool { return srv.Clients() == 1 }, waitTimeout, 5*time.Millisecond)

	for i := 0; i < 10; i++ {
		srv.Emit(protocol.SignalLayoutUpdated, uint32(i), int32(0))
	}
	assert.Eventually(t, func() bool { return srv.Clients() == 0 }, waitTimeout, 10*time.Millisecond)
}
