package exporter

import (
	"github.com/example/traymenu/internal/menu"
	"github.com/example/traymenu/internal/protocol"
	"github.com/example/traymenu/internal/shortcut"
)

// class is the export classification of an action. It decides which part of
// the property vocabulary applies.
type class int

const (
	classGeneric class = iota
	classSeparator
	classTitle
)

func classify(a *menu.Action) class {
	switch a.Kind() {
	case menu.KindSeparator:
		return classSeparator
	case menu.KindTitle:
		return classTitle
	default:
		return classGeneric
	}
}

// snapshot computes the properties of a that differ from their defaults.
func (e *Exporter) snapshot(a *menu.Action) protocol.Properties {
	props := protocol.Properties{}
	switch classify(a) {
	case classSeparator:
		props[protocol.PropType] = protocol.TypeSeparator
		if !a.IsVisible() {
			props[protocol.PropVisible] = false
		}
		return props

	case classTitle:
		props[protocol.PropType] = protocol.TypeText
		setString(props, protocol.PropLabel, protocol.LabelToWire(a.Text()))
		setString(props, protocol.PropIconName, e.iconName(a))
		if !a.IsVisible() {
			props[protocol.PropVisible] = false
		}
		return props
	}

	setString(props, protocol.PropLabel, protocol.LabelToWire(a.Text()))
	if !a.IsEnabled() {
		props[protocol.PropEnabled] = false
	}
	if !a.IsVisible() {
		props[protocol.PropVisible] = false
	}
	setString(props, protocol.PropIconName, e.iconName(a))
	if data := a.IconData(); len(data) > 0 {
		props[protocol.PropIconData] = data
	}
	if a.IsCheckable() {
		toggle := protocol.ToggleCheckmark
		if g := a.Group(); g != nil && g.IsExclusive() {
			toggle = protocol.ToggleRadio
		}
		props[protocol.PropToggleType] = toggle
		if a.IsChecked() {
			props[protocol.PropToggleState] = protocol.ToggleOn
		}
	}
	if seq := a.Shortcut(); !seq.IsEmpty() {
		props[protocol.PropShortcut] = shortcut.Encode(seq)
	}
	if a.Submenu() != nil {
		props[protocol.PropChildrenDisplay] = protocol.ChildrenDisplaySubmenu
	}
	return props
}

func setString(props protocol.Properties, name, value string) {
	if value != "" {
		props[name] = value
	}
}
