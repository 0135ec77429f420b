// Package menu is the observable menu tree shared by the exporting and the
// importing side. Nodes are plain structs with no internal locking; all calls
// must come from the goroutine running the owning loop.
package menu

// EventType identifies a structural or property notification.
type EventType int

const (
	// EventAdded reports an action inserted into the menu.
	EventAdded EventType = iota + 1
	// EventChanged reports a property change on an action of the menu.
	EventChanged
	// EventRemoved reports an action taken out of the menu.
	EventRemoved
	// EventDestroyed reports the menu itself being destroyed.
	EventDestroyed
)

func (t EventType) String() string {
	switch t {
	case EventAdded:
		return "added"
	case EventChanged:
		return "changed"
	case EventRemoved:
		return "removed"
	case EventDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Event is delivered synchronously to menu observers.
type Event struct {
	Type   EventType
	Menu   *Menu
	Action *Action
	Index  int
}

// Observer receives menu events.
type Observer func(Event)

// Menu is an ordered list of actions. A menu attached to an action with
// Action.SetSubmenu becomes that action's child menu.
type Menu struct {
	title       string
	actions     []*Action
	owner       *Action
	observers   hooks[Observer]
	aboutToShow hooks[func(*Menu)]
	destroyed   bool
}

// NewMenu constructs an empty menu.
func NewMenu(title string) *Menu {
	return &Menu{title: title}
}

func (m *Menu) Title() string { return m.title }

// Owner returns the action this menu is the submenu of, if any.
func (m *Menu) Owner() *Action { return m.owner }

func (m *Menu) IsDestroyed() bool { return m.destroyed }

// Len returns the number of actions.
func (m *Menu) Len() int { return len(m.actions) }

// Actions returns a copy of the action list.
func (m *Menu) Actions() []*Action {
	out := make([]*Action, len(m.actions))
	copy(out, m.actions)
	return out
}

// At returns the action at index or nil when out of range.
func (m *Menu) At(index int) *Action {
	if index < 0 || index >= len(m.actions) {
		return nil
	}
	return m.actions[index]
}

// IndexOf returns the position of a or -1.
func (m *Menu) IndexOf(a *Action) int {
	for i, existing := range m.actions {
		if existing == a {
			return i
		}
	}
	return -1
}

// Subscribe registers an observer for this menu's events.
func (m *Menu) Subscribe(fn Observer) (cancel func()) {
	return m.observers.add(fn)
}

// ObserverCount reports how many observers are registered.
func (m *Menu) ObserverCount() int {
	return m.observers.len()
}

// OnAboutToShow registers fn to run right before the menu is displayed. Hooks
// may populate the menu.
func (m *Menu) OnAboutToShow(fn func(*Menu)) (cancel func()) {
	return m.aboutToShow.add(fn)
}

// EmitAboutToShow runs the about-to-show hooks.
func (m *Menu) EmitAboutToShow() {
	if m.destroyed {
		return
	}
	for _, fn := range m.aboutToShow.snapshot() {
		fn(m)
		if m.destroyed {
			return
		}
	}
}

// AddAction appends a to the menu.
func (m *Menu) AddAction(a *Action) {
	m.InsertAction(len(m.actions), a)
}

// InsertAction places a at index. An action already in the menu is moved.
func (m *Menu) InsertAction(index int, a *Action) {
	if m.destroyed || a == nil || a.destroyed {
		return
	}
	if current := m.IndexOf(a); current >= 0 {
		if current == index {
			return
		}
		m.RemoveAction(a)
	}
	if index < 0 {
		index = 0
	}
	if index > len(m.actions) {
		index = len(m.actions)
	}
	m.actions = append(m.actions, nil)
	copy(m.actions[index+1:], m.actions[index:])
	m.actions[index] = a
	a.attach(m)
	m.notify(Event{Type: EventAdded, Menu: m, Action: a, Index: index})
}

// AddItem creates, appends and returns a standard action.
func (m *Menu) AddItem(text string) *Action {
	a := NewAction(text)
	m.AddAction(a)
	return a
}

// AddSeparator creates, appends and returns a separator.
func (m *Menu) AddSeparator() *Action {
	a := NewSeparator()
	m.AddAction(a)
	return a
}

// AddSubmenu creates an action holding a new submenu and returns the submenu.
func (m *Menu) AddSubmenu(title string) *Menu {
	sub := NewMenu(title)
	a := NewAction(title)
	a.SetSubmenu(sub)
	m.AddAction(a)
	return sub
}

// RemoveAction takes a out of the menu without destroying it. It reports
// whether a was present.
func (m *Menu) RemoveAction(a *Action) bool {
	index := m.IndexOf(a)
	if index < 0 {
		return false
	}
	m.actions = append(m.actions[:index], m.actions[index+1:]...)
	a.detach(m)
	m.notify(Event{Type: EventRemoved, Menu: m, Action: a, Index: index})
	return true
}

// Clear removes every action without destroying them.
func (m *Menu) Clear() {
	for len(m.actions) > 0 {
		m.RemoveAction(m.actions[len(m.actions)-1])
	}
}

// Destroy notifies observers, destroys every action of the menu together with
// their submenus, and detaches the menu from its owning action.
func (m *Menu) Destroy() {
	if m.destroyed {
		return
	}
	m.notify(Event{Type: EventDestroyed, Menu: m})
	for _, a := range m.Actions() {
		sub := a.submenu
		a.Destroy()
		if sub != nil && sub != m {
			sub.Destroy()
		}
	}
	m.destroyed = true
	if m.owner != nil {
		owner := m.owner
		m.owner = nil
		if owner.submenu == m {
			owner.SetSubmenu(nil)
		}
	}
	m.observers.clear()
	m.aboutToShow.clear()
}

func (m *Menu) notify(ev Event) {
	if m.destroyed {
		return
	}
	for _, fn := range m.observers.snapshot() {
		fn(ev)
	}
}

// PlainText strips mnemonic markers from a label: "&&" becomes "&" and a
// single '&' is dropped.
func PlainText(label string) string {
	out := make([]rune, 0, len(label))
	runes := []rune(label)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '&' {
			if i+1 < len(runes) && runes[i+1] == '&' {
				out = append(out, '&')
				i++
			}
			continue
		}
		out = append(out, runes[i])
	}
	return string(out)
}
