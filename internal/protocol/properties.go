package protocol

import (
	"maps"
	"sort"
)

// Property names.
const (
	PropType            = "type"
	PropLabel           = "label"
	PropEnabled         = "enabled"
	PropVisible         = "visible"
	PropChildrenDisplay = "children-display"
	PropToggleType      = "toggle-type"
	PropToggleState     = "toggle-state"
	PropIconName        = "icon-name"
	PropIconData        = "icon-data"
	PropShortcut        = "shortcut"
)

// Values of PropType.
const (
	TypeStandard  = "standard"
	TypeSeparator = "separator"
	TypeText      = "text"
)

// Values of PropChildrenDisplay. The empty string means no children.
const (
	ChildrenDisplayNone    = ""
	ChildrenDisplaySubmenu = "submenu"
)

// Values of PropToggleType. The empty string means not checkable.
const (
	ToggleNone      = ""
	ToggleCheckmark = "checkmark"
	ToggleRadio     = "radio"
)

// Values of PropToggleState.
const (
	ToggleOff int32 = 0
	ToggleOn  int32 = 1
)

// Names lists the full property vocabulary.
var Names = []string{
	PropType,
	PropLabel,
	PropEnabled,
	PropVisible,
	PropChildrenDisplay,
	PropToggleType,
	PropToggleState,
	PropIconName,
	PropIconData,
	PropShortcut,
}

// Defaults is the value every vocabulary property takes when it is absent
// from a property map. Exporters never send a property holding its default.
var Defaults = map[string]any{
	PropType:            TypeStandard,
	PropLabel:           "",
	PropEnabled:         true,
	PropVisible:         true,
	PropChildrenDisplay: ChildrenDisplayNone,
	PropToggleType:      ToggleNone,
	PropToggleState:     ToggleOff,
	PropIconName:        "",
	PropIconData:        []byte(nil),
	PropShortcut:        [][]string(nil),
}

// IsKnown reports whether name belongs to the vocabulary.
func IsKnown(name string) bool {
	_, ok := Defaults[name]
	return ok
}

// IsDefault reports whether value equals the default of name. Unknown names
// have no default.
func IsDefault(name string, value any) bool {
	switch name {
	case PropType:
		s, ok := AsString(value)
		return ok && (s == TypeStandard || s == "")
	case PropLabel, PropChildrenDisplay, PropToggleType, PropIconName:
		s, ok := AsString(value)
		return ok && s == ""
	case PropEnabled, PropVisible:
		b, ok := AsBool(value)
		return ok && b
	case PropToggleState:
		n, ok := AsInt32(value)
		return ok && n == ToggleOff
	case PropIconData:
		b, ok := AsBytes(value)
		return ok && len(b) == 0
	case PropShortcut:
		chords, ok := AsTokenLists(value)
		return ok && len(chords) == 0
	}
	return false
}

// Properties is a property map as carried on the wire.
type Properties map[string]any

// Has reports whether name is explicitly present.
func (p Properties) Has(name string) bool {
	_, ok := p[name]
	return ok
}

// Value returns the property or its default when absent.
func (p Properties) Value(name string) any {
	if v, ok := p[name]; ok {
		return v
	}
	return Defaults[name]
}

// String returns a string property, falling back to the default.
func (p Properties) String(name string) string {
	if s, ok := AsString(p[name]); ok {
		return s
	}
	s, _ := Defaults[name].(string)
	return s
}

// Bool returns a boolean property, falling back to the default.
func (p Properties) Bool(name string) bool {
	if b, ok := AsBool(p[name]); ok {
		return b
	}
	b, _ := Defaults[name].(bool)
	return b
}

// Int returns an integer property, falling back to the default.
func (p Properties) Int(name string) int32 {
	if n, ok := AsInt32(p[name]); ok {
		return n
	}
	n, _ := Defaults[name].(int32)
	return n
}

// Bytes returns a byte property or nil.
func (p Properties) Bytes(name string) []byte {
	b, _ := AsBytes(p[name])
	return b
}

// Shortcut returns the shortcut token lists or nil.
func (p Properties) Shortcut() [][]string {
	chords, _ := AsTokenLists(p[PropShortcut])
	return chords
}

// Filter returns a copy of the subset of p named in names. An empty names
// list copies every property.
func (p Properties) Filter(names []string) Properties {
	if len(names) == 0 {
		return maps.Clone(p)
	}
	out := make(Properties, len(names))
	for _, name := range names {
		if v, ok := p[name]; ok {
			out[name] = v
		}
	}
	return out
}

// Keys returns the property names in sorted order.
func (p Properties) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
