package menu

// Group ties checkable actions together. In an exclusive group at most one
// member is checked at a time.
type Group struct {
	exclusive bool
	actions   []*Action
}

// NewGroup constructs an exclusive group.
func NewGroup() *Group {
	return &Group{exclusive: true}
}

func (g *Group) IsExclusive() bool { return g.exclusive }

// Actions returns the group members.
func (g *Group) Actions() []*Action {
	out := make([]*Action, len(g.actions))
	copy(out, g.actions)
	return out
}

// SetExclusive toggles exclusivity. Members are notified because the change
// alters how they present their toggle.
func (g *Group) SetExclusive(exclusive bool) {
	if g.exclusive == exclusive {
		return
	}
	g.exclusive = exclusive
	for _, a := range g.Actions() {
		a.changed()
	}
}

// Add moves a into the group.
func (g *Group) Add(a *Action) {
	if a.group == g {
		return
	}
	if a.group != nil {
		a.group.Remove(a)
	}
	a.group = g
	g.actions = append(g.actions, a)
	a.changed()
	if g.exclusive && a.IsChecked() {
		g.uncheckOthers(a)
	}
}

// Remove takes a out of the group.
func (g *Group) Remove(a *Action) {
	for i, existing := range g.actions {
		if existing == a {
			g.actions = append(g.actions[:i], g.actions[i+1:]...)
			a.group = nil
			a.changed()
			return
		}
	}
}

// Checked returns the first checked member, if any.
func (g *Group) Checked() *Action {
	for _, a := range g.actions {
		if a.IsChecked() {
			return a
		}
	}
	return nil
}

func (g *Group) uncheckOthers(keep *Action) {
	for _, a := range g.Actions() {
		if a != keep && a.IsChecked() {
			a.SetChecked(false)
		}
	}
}
