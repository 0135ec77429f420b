package menu

import (
	"bytes"

	"github.com/example/traymenu/internal/shortcut"
)

// Kind classifies what an action renders as.
type Kind int

const (
	// KindStandard is a regular, possibly checkable or submenu-holding entry.
	KindStandard Kind = iota
	// KindSeparator is a horizontal divider.
	KindSeparator
	// KindTitle is a non-interactive header.
	KindTitle
)

func (k Kind) String() string {
	switch k {
	case KindSeparator:
		return "separator"
	case KindTitle:
		return "title"
	default:
		return "standard"
	}
}

// Action is one entry of a Menu. The same action may be added to several
// menus; every menu holding it notifies its observers when the action changes.
type Action struct {
	kind       Kind
	text       string
	tooltip    string
	enabled    bool
	visible    bool
	checkable  bool
	checked    bool
	autoToggle bool
	group      *Group
	iconName   string
	iconData   []byte
	shortcut   shortcut.Sequence
	submenu    *Menu
	props      map[string]any

	menus     []*Menu
	triggered hooks[func(*Action)]
	destroy   hooks[func(*Action)]
	destroyed bool
}

// NewAction constructs an enabled, visible standard action.
func NewAction(text string) *Action {
	return &Action{
		kind:       KindStandard,
		text:       text,
		enabled:    true,
		visible:    true,
		autoToggle: true,
	}
}

// NewSeparator constructs a separator action.
func NewSeparator() *Action {
	a := NewAction("")
	a.kind = KindSeparator
	return a
}

// NewTitle constructs a header action.
func NewTitle(text string) *Action {
	a := NewAction(text)
	a.kind = KindTitle
	return a
}

func (a *Action) Kind() Kind                  { return a.kind }
func (a *Action) Text() string                { return a.text }
func (a *Action) ToolTip() string             { return a.tooltip }
func (a *Action) IsEnabled() bool             { return a.enabled }
func (a *Action) IsVisible() bool             { return a.visible }
func (a *Action) IsCheckable() bool           { return a.checkable }
func (a *Action) IsChecked() bool             { return a.checkable && a.checked }
func (a *Action) IsSeparator() bool           { return a.kind == KindSeparator }
func (a *Action) Group() *Group               { return a.group }
func (a *Action) IconName() string            { return a.iconName }
func (a *Action) IconData() []byte            { return a.iconData }
func (a *Action) Shortcut() shortcut.Sequence { return a.shortcut }
func (a *Action) Submenu() *Menu              { return a.submenu }
func (a *Action) IsDestroyed() bool           { return a.destroyed }

// Menus returns the menus currently holding a.
func (a *Action) Menus() []*Menu {
	out := make([]*Menu, len(a.menus))
	copy(out, a.menus)
	return out
}

func (a *Action) SetText(text string) {
	if a.text == text {
		return
	}
	a.text = text
	a.changed()
}

func (a *Action) SetToolTip(tip string) {
	if a.tooltip == tip {
		return
	}
	a.tooltip = tip
	a.changed()
}

func (a *Action) SetEnabled(enabled bool) {
	if a.enabled == enabled {
		return
	}
	a.enabled = enabled
	a.changed()
}

func (a *Action) SetVisible(visible bool) {
	if a.visible == visible {
		return
	}
	a.visible = visible
	a.changed()
}

// SetCheckable makes the action toggleable. Turning it off clears the checked
// state.
func (a *Action) SetCheckable(checkable bool) {
	if a.checkable == checkable {
		return
	}
	a.checkable = checkable
	if !checkable {
		a.checked = false
	}
	a.changed()
}

// SetChecked updates the check state of a checkable action. Checking a member
// of an exclusive group unchecks the other members.
func (a *Action) SetChecked(checked bool) {
	if !a.checkable || a.checked == checked {
		return
	}
	a.checked = checked
	a.changed()
	if checked && a.group != nil && a.group.exclusive {
		a.group.uncheckOthers(a)
	}
}

// SetAutoToggle controls whether Trigger flips the check state. Mirrors of a
// remote menu turn it off so only the remote side decides the state.
func (a *Action) SetAutoToggle(on bool) {
	a.autoToggle = on
}

func (a *Action) SetIconName(name string) {
	if a.iconName == name {
		return
	}
	a.iconName = name
	a.changed()
}

func (a *Action) SetIconData(data []byte) {
	if bytes.Equal(a.iconData, data) {
		return
	}
	a.iconData = append([]byte(nil), data...)
	if len(data) == 0 {
		a.iconData = nil
	}
	a.changed()
}

func (a *Action) SetShortcut(seq shortcut.Sequence) {
	if equalSequence(a.shortcut, seq) {
		return
	}
	a.shortcut = append(shortcut.Sequence(nil), seq...)
	a.changed()
}

// SetSubmenu attaches m as the action's child menu, detaching any previous
// one. Passing nil removes the submenu.
func (a *Action) SetSubmenu(m *Menu) {
	if a.submenu == m {
		return
	}
	if a.submenu != nil && a.submenu.owner == a {
		a.submenu.owner = nil
	}
	a.submenu = m
	if m != nil {
		m.owner = a
	}
	a.changed()
}

// SetProperty stores an arbitrary value on the action without emitting a
// change notification.
func (a *Action) SetProperty(name string, value any) {
	if a.props == nil {
		a.props = make(map[string]any)
	}
	if value == nil {
		delete(a.props, name)
		return
	}
	a.props[name] = value
}

// Property returns a value stored with SetProperty.
func (a *Action) Property(name string) any {
	return a.props[name]
}

// OnTriggered registers fn to run whenever the action is triggered.
func (a *Action) OnTriggered(fn func(*Action)) (cancel func()) {
	return a.triggered.add(fn)
}

// OnBeforeDestroy registers fn to run when Destroy starts, while the action is
// still fully intact.
func (a *Action) OnBeforeDestroy(fn func(*Action)) (cancel func()) {
	return a.destroy.add(fn)
}

// Trigger activates the action: disabled, separator and destroyed actions
// ignore it. Checkable actions flip their state first unless auto-toggle is
// off; a checked member of an exclusive group stays checked.
func (a *Action) Trigger() {
	if a.destroyed || !a.enabled || a.kind == KindSeparator {
		return
	}
	if a.checkable && a.autoToggle {
		if !(a.checked && a.group != nil && a.group.exclusive) {
			a.SetChecked(!a.checked)
		}
	}
	for _, fn := range a.triggered.snapshot() {
		fn(a)
		if a.destroyed {
			return
		}
	}
}

// Destroy runs the before-destroy hooks and then detaches the action from its
// group and every menu. The action must not be used afterwards.
func (a *Action) Destroy() {
	if a.destroyed {
		return
	}
	for _, fn := range a.destroy.snapshot() {
		fn(a)
	}
	a.destroyed = true
	if a.group != nil {
		a.group.Remove(a)
	}
	for _, m := range a.Menus() {
		m.RemoveAction(a)
	}
	if a.submenu != nil && a.submenu.owner == a {
		a.submenu.owner = nil
	}
	a.triggered.clear()
	a.destroy.clear()
}

func (a *Action) changed() {
	if a.destroyed {
		return
	}
	for _, m := range a.Menus() {
		m.notify(Event{Type: EventChanged, Menu: m, Action: a})
	}
}

func (a *Action) attach(m *Menu) {
	for _, existing := range a.menus {
		if existing == m {
			return
		}
	}
	a.menus = append(a.menus, m)
}

func (a *Action) detach(m *Menu) {
	for i, existing := range a.menus {
		if existing == m {
			a.menus = append(a.menus[:i], a.menus[i+1:]...)
			return
		}
	}
}

func equalSequence(a, b shortcut.Sequence) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
