package exporter

import (
	"fmt"

	"github.com/example/traymenu/internal/bus"
	"github.com/example/traymenu/internal/logging"
	"github.com/example/traymenu/internal/protocol"
)

// HandleCall implements bus.Handler, decoding wire arguments and encoding the
// reply of each exporter method.
func (e *Exporter) HandleCall(method string, args []any) ([]any, error) {
	if e.closed {
		return nil, bus.ErrClosed
	}
	logging.LogCall("exporter", method, 0, args)

	switch method {
	case protocol.MethodGetChildren:
		parent, ok := argID(args, 0)
		if !ok {
			return nil, malformed(method)
		}
		names, ok := argNames(args, 1)
		if !ok {
			return nil, malformed(method)
		}
		return []any{protocol.EncodeItems(e.Children(parent, names))}, nil

	case protocol.MethodGetProperty:
		id, ok := argID(args, 0)
		if !ok {
			return nil, malformed(method)
		}
		name, ok := argString(args, 1)
		if !ok {
			return nil, malformed(method)
		}
		value, ok := e.Property(id, name)
		if !ok && protocol.IsKnown(name) && e.items.Contains(id) {
			value = protocol.Defaults[name]
		}
		return []any{value}, nil

	case protocol.MethodGetProperties:
		id, ok := argID(args, 0)
		if !ok {
			return nil, malformed(method)
		}
		names, ok := argNames(args, 1)
		if !ok {
			return nil, malformed(method)
		}
		return []any{map[string]any(e.Properties(id, names))}, nil

	case protocol.MethodGetGroupProperties:
		if len(args) < 1 {
			return nil, malformed(method)
		}
		ids, ok := protocol.AsIDs(args[0])
		if !ok {
			return nil, malformed(method)
		}
		names, ok := argNames(args, 1)
		if !ok {
			return nil, malformed(method)
		}
		return []any{protocol.EncodeItems(e.GroupProperties(ids, names))}, nil

	case protocol.MethodGetLayout:
		parent, ok := argID(args, 0)
		if !ok {
			return nil, malformed(method)
		}
		revision, layout, ok := e.Layout(parent)
		if !ok {
			return []any{uint32(0), ""}, nil
		}
		doc, err := protocol.MarshalLayout(layout)
		if err != nil {
			return nil, err
		}
		return []any{revision, doc}, nil

	case protocol.MethodEvent:
		id, ok := argID(args, 0)
		if !ok {
			return nil, malformed(method)
		}
		eventType, ok := argString(args, 1)
		if !ok {
			return nil, malformed(method)
		}
		e.Event(id, eventType)
		return nil, nil

	case protocol.MethodAboutToShow:
		id, ok := argID(args, 0)
		if !ok {
			return nil, malformed(method)
		}
		return []any{e.AboutToShow(id)}, nil
	}
	return nil, fmt.Errorf("%w: %s", bus.ErrUnknownMethod, method)
}

func malformed(method string) error {
	return fmt.Errorf("%s: %w", method, protocol.ErrMalformed)
}

func argID(args []any, i int) (protocol.ItemID, bool) {
	if i >= len(args) {
		return protocol.RootID, false
	}
	n, ok := protocol.AsInt32(args[i])
	return protocol.ItemID(n), ok
}

func argString(args []any, i int) (string, bool) {
	if i >= len(args) {
		return "", false
	}
	return protocol.AsString(args[i])
}

// argNames reads an optional property name list. A missing or null list
// means every property.
func argNames(args []any, i int) ([]string, bool) {
	if i >= len(args) || args[i] == nil {
		return nil, true
	}
	return protocol.AsStrings(args[i])
}
