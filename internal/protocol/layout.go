package protocol

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// Layout is the structural shape of a menu: item ids and their nesting, no
// properties.
type Layout struct {
	XMLName  xml.Name `xml:"menu"`
	ID       ItemID   `xml:"id,attr"`
	Children []Layout `xml:"menu"`
}

// Count returns the number of nodes below l.
func (l Layout) Count() int {
	n := len(l.Children)
	for _, child := range l.Children {
		n += child.Count()
	}
	return n
}

// IDs returns every id below l in depth-first order.
func (l Layout) IDs() []ItemID {
	var ids []ItemID
	for _, child := range l.Children {
		ids = append(ids, child.ID)
		ids = append(ids, child.IDs()...)
	}
	return ids
}

// MarshalLayout serialises l as an indented XML document.
func MarshalLayout(l Layout) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(l); err != nil {
		return "", fmt.Errorf("encode layout: %w", err)
	}
	return buf.String(), nil
}

// ParseLayout reads a document produced by MarshalLayout.
func ParseLayout(doc string) (Layout, error) {
	var l Layout
	if err := xml.Unmarshal([]byte(doc), &l); err != nil {
		return Layout{}, fmt.Errorf("decode layout: %w", err)
	}
	return l, nil
}
