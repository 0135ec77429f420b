package importer

import (
	"log"

	"github.com/example/traymenu/internal/menu"
	"github.com/example/traymenu/internal/protocol"
	"github.com/example/traymenu/internal/shortcut"
)

// create builds and registers the mirror of a newly seen item.
func (i *Importer) create(id protocol.ItemID, props protocol.Properties) *menu.Action {
	itemType := props.String(protocol.PropType)

	var a *menu.Action
	if f, ok := i.factories[itemType]; ok {
		a = f(props)
	}
	if a == nil {
		switch itemType {
		case protocol.TypeSeparator:
			a = menu.NewSeparator()
		case protocol.TypeText:
			a = menu.NewTitle("")
		default:
			a = menu.NewAction("")
		}
	}
	if err := i.items.Bind(id, a); err != nil {
		log.Printf("importer: unable to bind item %d: %v", id, err)
		return nil
	}
	a.SetAutoToggle(false)
	a.SetProperty(PropItemID, id)
	a.SetProperty(propType, itemType)
	a.OnTriggered(i.sendClicked)
	i.apply(a, props, protocol.Names)
	return a
}

// compatible reports whether the mirror a can take props in place. An item
// that changed type is rebuilt.
func (i *Importer) compatible(a *menu.Action, props protocol.Properties) bool {
	stored, _ := a.Property(propType).(string)
	return stored == props.String(protocol.PropType)
}

// parentID returns the id of the item whose submenu holds a, or the root id.
func (i *Importer) parentID(a *menu.Action) protocol.ItemID {
	for _, m := range a.Menus() {
		if owner := m.Owner(); owner != nil {
			return i.items.ID(owner)
		}
	}
	return protocol.RootID
}

func (i *Importer) attachSubmenu(id protocol.ItemID, a *menu.Action) {
	sub := menu.NewMenu(menu.PlainText(a.Text()))
	sub.OnAboutToShow(func(*menu.Menu) {
		i.aboutToShow(id)
	})
	a.SetSubmenu(sub)
}

func (i *Importer) detachSubmenu(a *menu.Action) {
	sub := a.Submenu()
	if sub == nil {
		return
	}
	delete(i.groups, sub)
	for _, child := range sub.Actions() {
		i.release(child)
	}
	a.SetSubmenu(nil)
	i.loop.Defer(sub.Destroy)
}

// groupFor returns the exclusive group shared by the radio items of m.
func (i *Importer) groupFor(m *menu.Menu) *menu.Group {
	g, ok := i.groups[m]
	if !ok {
		g = menu.NewGroup()
		i.groups[m] = g
	}
	return g
}

// updateNames lists the properties requested when an item reports a change.
func updateNames(a *menu.Action) []string {
	if a.IsSeparator() {
		return []string{protocol.PropType, protocol.PropVisible}
	}
	names := []string{
		protocol.PropType,
		protocol.PropLabel,
		protocol.PropEnabled,
		protocol.PropVisible,
		protocol.PropChildrenDisplay,
		protocol.PropToggleType,
	}
	if a.IsCheckable() {
		names = append(names, protocol.PropToggleState)
	}
	return append(names, protocol.PropIconName, protocol.PropIconData, protocol.PropShortcut)
}

// apply writes the properties listed in names onto a. A requested property
// missing from props is reset to its default.
func (i *Importer) apply(a *menu.Action, props protocol.Properties, names []string) {
	id := i.items.ID(a)
	for _, name := range names {
		switch name {
		case protocol.PropLabel:
			a.SetText(protocol.LabelFromWire(props.String(name)))
		case protocol.PropEnabled:
			a.SetEnabled(props.Bool(name))
		case protocol.PropVisible:
			a.SetVisible(props.Bool(name))
		case protocol.PropChildrenDisplay:
			if a.IsSeparator() {
				continue
			}
			if props.String(name) == protocol.ChildrenDisplaySubmenu {
				if a.Submenu() == nil {
					i.attachSubmenu(id, a)
				}
			} else {
				i.detachSubmenu(a)
			}
		case protocol.PropToggleType:
			if a.Kind() != menu.KindStandard {
				continue
			}
			i.applyToggleType(a, props.String(name))
		case protocol.PropToggleState:
			if a.IsCheckable() {
				a.SetChecked(props.Int(name) == protocol.ToggleOn)
			}
		case protocol.PropIconName:
			i.applyIcon(a, props.String(name))
		case protocol.PropIconData:
			if data := props.Bytes(name); len(data) > 0 {
				a.SetIconData(data)
			} else if a.IconName() == "" {
				a.SetIconData(nil)
			}
		case protocol.PropShortcut:
			if a.Kind() == menu.KindStandard {
				a.SetShortcut(shortcut.Decode(props.Shortcut()))
			}
		}
	}
}

func (i *Importer) applyToggleType(a *menu.Action, toggle string) {
	a.SetCheckable(toggle != protocol.ToggleNone)
	if toggle != protocol.ToggleRadio {
		if g := a.Group(); g != nil {
			g.Remove(a)
		}
		return
	}
	if a.Group() != nil {
		return
	}
	if menus := a.Menus(); len(menus) > 0 {
		i.groupFor(menus[0]).Add(a)
	}
}

// joinRadioGroup puts a radio item that was just placed in m into the group
// of m. Freshly created mirrors are not in any menu yet when their toggle type
// is applied.
func (i *Importer) joinRadioGroup(m *menu.Menu, a *menu.Action, props protocol.Properties) {
	if a.Kind() != menu.KindStandard || a.Group() != nil {
		return
	}
	if props.String(protocol.PropToggleType) == protocol.ToggleRadio {
		i.groupFor(m).Add(a)
	}
}

// applyIcon sets the icon name and, through the icon loader, the icon image.
// Repeating the current name does nothing.
func (i *Importer) applyIcon(a *menu.Action, name string) {
	previous, _ := a.Property(propIcon).(string)
	if previous == name && a.IconName() == name {
		return
	}
	a.SetProperty(propIcon, name)
	a.SetIconName(name)
	if i.iconLoader == nil {
		return
	}
	if name == "" {
		a.SetIconData(nil)
		return
	}
	a.SetIconData(i.iconLoader(name))
}
