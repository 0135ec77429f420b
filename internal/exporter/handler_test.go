package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/traymenu/internal/bus"
	"github.com/example/traymenu/internal/loop"
	"github.com/example/traymenu/internal/menu"
	"github.com/example/traymenu/internal/protocol"
)

func TestHandleCallOverLoopback(t *testing.T) {
	l := loop.New()
	b := bus.NewLoopback(l)
	root := menu.NewMenu("root")
	root.AddItem("&File")
	sub := root.AddSubmenu("Sub")
	sub.AddItem("inner")
	exp := New(l, root, b)
	b.Serve(exp)

	children := b.Call(protocol.MethodGetChildren, int32(0), []string{})
	props := b.Call(protocol.MethodGetProperties, int32(1), []string{protocol.PropLabel})
	group := b.Call(protocol.MethodGetGroupProperties, []int32{1, 3}, []string{protocol.PropLabel})
	single := b.Call(protocol.MethodGetProperty, int32(2), protocol.PropChildrenDisplay)
	show := b.Call(protocol.MethodAboutToShow, int32(2))
	l.ProcessEvents()

	for _, p := range []*bus.Pending{children, props, group, single, show} {
		require.True(t, p.Finished())
		require.NoError(t, p.Err(), p.Method)
	}

	items, err := protocol.DecodeItems(children.Value(0))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "_File", items[0].Properties.String(protocol.PropLabel))
	assert.Equal(t, protocol.ChildrenDisplaySubmenu, items[1].Properties.String(protocol.PropChildrenDisplay))

	m, ok := protocol.AsMap(props.Value(0))
	require.True(t, ok)
	assert.Equal(t, map[string]any{protocol.PropLabel: "_File"}, m)

	grouped, err := protocol.DecodeItems(group.Value(0))
	require.NoError(t, err)
	require.Len(t, grouped, 2)
	assert.Equal(t, "inner", grouped[1].Properties.String(protocol.PropLabel))

	assert.Equal(t, protocol.ChildrenDisplaySubmenu, single.Value(0))
	assert.Equal(t, false, show.Value(0))
}

func TestHandleCallRejectsBadArguments(t *testing.T) {
	exp := New(loop.New(), menu.NewMenu("root"), &recorder{})

	_, err := exp.HandleCall(protocol.MethodGetChildren, nil)
	assert.ErrorIs(t, err, protocol.ErrMalformed)
	_, err = exp.HandleCall(protocol.MethodGetProperty, []any{uint64(1)})
	assert.ErrorIs(t, err, protocol.ErrMalformed)
	_, err = exp.HandleCall(protocol.MethodGetGroupProperties, []any{"x"})
	assert.ErrorIs(t, err, protocol.ErrMalformed)
	_, err = exp.HandleCall(protocol.MethodEvent, []any{uint64(1)})
	assert.ErrorIs(t, err, protocol.ErrMalformed)
	_, err = exp.HandleCall("Frobnicate", nil)
	assert.ErrorIs(t, err, bus.ErrUnknownMethod)

	values, err := exp.HandleCall(protocol.MethodGetLayout, []any{uint64(9)})
	require.NoError(t, err)
	assert.Equal(t, []any{uint32(0), ""}, values)

	values, err = exp.HandleCall(protocol.MethodGetProperty, []any{uint64(9), protocol.PropLabel})
	require.NoError(t, err)
	assert.Equal(t, []any{nil}, values)

	exp.Root().AddItem("plain")
	values, err = exp.HandleCall(protocol.MethodGetProperty, []any{uint64(1), protocol.PropVisible})
	require.NoError(t, err)
	assert.Equal(t, []any{true}, values)
	values, err = exp.HandleCall(protocol.MethodGetProperty, []any{uint64(1), "x-custom"})
	require.NoError(t, err)
	assert.Equal(t, []any{nil}, values)
}
