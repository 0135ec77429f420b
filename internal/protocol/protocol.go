// Package protocol defines the wire contract between a menu exporter and a
// menu importer: method and signal names, the item representation, the
// property vocabulary with its defaults, and the helpers both sides use to
// read loosely typed wire values.
package protocol

import "errors"

// Interface is the name under which the menu object is published.
const Interface = "com.canonical.dbusmenu"

// ObjectPath is the conventional path of an exported menu.
const ObjectPath = "/MenuBar"

// Methods served by the exporter.
const (
	MethodGetChildren        = "GetChildren"
	MethodGetProperty        = "GetProperty"
	MethodGetProperties      = "GetProperties"
	MethodGetGroupProperties = "GetGroupProperties"
	MethodGetLayout          = "GetLayout"
	MethodEvent              = "Event"
	MethodAboutToShow        = "AboutToShow"
)

// Signals emitted by the exporter.
const (
	SignalItemUpdated             = "ItemUpdated"
	SignalItemPropertyUpdated     = "ItemPropertyUpdated"
	SignalLayoutUpdated           = "LayoutUpdated"
	SignalItemActivationRequested = "ItemActivationRequested"
)

// Event types accepted by MethodEvent.
const (
	EventClicked = "clicked"
	EventHovered = "hovered"
)

// ItemID addresses one menu item. RootID always denotes the root menu and is
// never allocated to a real item.
type ItemID int32

// RootID is the reserved id of the root menu.
const RootID ItemID = 0

// ErrMalformed reports a wire value that does not have the expected shape.
var ErrMalformed = errors.New("protocol: malformed value")

// Item is one (id, properties) pair as carried by GetChildren and
// GetGroupProperties.
type Item struct {
	ID         ItemID
	Properties Properties
}

// Encode converts the item to its wire form: a two element array.
func (it Item) Encode() []any {
	props := it.Properties
	if props == nil {
		props = Properties{}
	}
	return []any{int32(it.ID), map[string]any(props)}
}

// EncodeItems converts a list of items to wire form.
func EncodeItems(items []Item) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = it.Encode()
	}
	return out
}

// DecodeItem reads one wire item.
func DecodeItem(v any) (Item, error) {
	fields, ok := v.([]any)
	if !ok || len(fields) != 2 {
		return Item{}, ErrMalformed
	}
	id, ok := AsInt32(fields[0])
	if !ok {
		return Item{}, ErrMalformed
	}
	props, ok := AsMap(fields[1])
	if !ok {
		return Item{}, ErrMalformed
	}
	return Item{ID: ItemID(id), Properties: Properties(props)}, nil
}

// DecodeItems reads a wire item list.
func DecodeItems(v any) ([]Item, error) {
	list, ok := v.([]any)
	if !ok {
		if v == nil {
			return nil, nil
		}
		return nil, ErrMalformed
	}
	items := make([]Item, 0, len(list))
	for _, raw := range list {
		it, err := DecodeItem(raw)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}
