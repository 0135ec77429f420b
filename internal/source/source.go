// Package source builds the exported menu from configured items and keeps it
// in step as the configuration changes.
package source

import (
	"log"

	"github.com/mitchellh/hashstructure"

	"github.com/example/traymenu/internal/config"
	"github.com/example/traymenu/internal/logging"
	"github.com/example/traymenu/internal/menu"
	"github.com/example/traymenu/internal/shortcut"
)

// Source reconciles configuration items into a menu.Menu tree. Actions are
// reused by item id, so an edited item reaches observers as a property change
// and only real additions and removals are structural. Source must be used
// from the loop that owns the tree.
type Source struct {
	root    *menu.Menu
	items   map[string]config.MenuItem
	actions map[string]*menu.Action
	digests map[string]uint64
	groups  map[string]*menu.Group
	digest  uint64

	launch func(config.MenuItem) error
	open   func(string) error
}

// New returns a source populating root.
func New(root *menu.Menu) *Source {
	return &Source{
		root:    root,
		items:   make(map[string]config.MenuItem),
		actions: make(map[string]*menu.Action),
		digests: make(map[string]uint64),
		groups:  make(map[string]*menu.Group),
		launch:  executeCommand,
		open:    openURL,
	}
}

// Root returns the menu the source populates.
func (s *Source) Root() *menu.Menu { return s.root }

// SetLauncher replaces the function starting command items.
func (s *Source) SetLauncher(fn func(config.MenuItem) error) { s.launch = fn }

// SetURLOpener replaces the function opening url items.
func (s *Source) SetURLOpener(fn func(string) error) { s.open = fn }

// Action returns the action built for a configured item.
func (s *Source) Action(id string) (*menu.Action, bool) {
	a, ok := s.actions[id]
	return a, ok
}

// Apply reconciles the tree with cfg and reports whether anything was
// reconsidered. Items whose parent is missing are not shown.
func (s *Source) Apply(cfg *config.Config) bool {
	digest, err := hashstructure.Hash(cfg.Items, nil)
	if err == nil && digest != 0 && digest == s.digest {
		logging.Debugf("source: configuration unchanged (digest=%d)", digest)
		return false
	}
	s.digest = digest

	wanted := make(map[string]config.MenuItem, len(cfg.Items))
	for _, item := range cfg.Items {
		wanted[item.ID] = item
	}
	for id, a := range s.actions {
		if item, ok := wanted[id]; !ok || kindOf(item) != a.Kind() {
			s.drop(id)
		}
	}
	s.items = wanted

	visited := make(map[string]bool, len(cfg.Items))
	s.sync(s.root, "", cfg, visited)
	for id := range s.actions {
		if !visited[id] {
			s.drop(id)
		}
	}
	logging.Debugf("source: applied %d items (digest=%d)", len(visited), digest)
	return true
}

func (s *Source) sync(m *menu.Menu, parentID string, cfg *config.Config, visited map[string]bool) {
	children := cfg.Children(parentID)
	actions := make([]*menu.Action, 0, len(children))
	keep := make(map[*menu.Action]bool, len(children))
	for _, item := range children {
		if visited[item.ID] {
			continue
		}
		visited[item.ID] = true
		a := s.ensure(item)
		actions = append(actions, a)
		keep[a] = true
	}

	for _, a := range m.Actions() {
		if !keep[a] {
			m.RemoveAction(a)
		}
	}
	for i, a := range actions {
		for _, other := range a.Menus() {
			if other != m {
				other.RemoveAction(a)
			}
		}
		if m.IndexOf(a) != i {
			m.InsertAction(i, a)
		}
	}

	for _, item := range children {
		a := s.actions[item.ID]
		if sub := a.Submenu(); sub != nil {
			s.sync(sub, item.ID, cfg, visited)
		}
	}
}

func (s *Source) ensure(item config.MenuItem) *menu.Action {
	a, ok := s.actions[item.ID]
	if !ok {
		a = newAction(item)
		id := item.ID
		a.OnTriggered(func(*menu.Action) { s.activate(id) })
		s.actions[id] = a
	}

	digest, err := hashstructure.Hash(item, nil)
	if ok && err == nil && s.digests[item.ID] == digest {
		return a
	}
	s.digests[item.ID] = digest
	s.update(a, item)
	return a
}

func (s *Source) update(a *menu.Action, item config.MenuItem) {
	a.SetVisible(!item.Hidden)
	if a.IsSeparator() {
		return
	}
	a.SetText(item.Label)
	a.SetToolTip(item.Description)
	a.SetIconName(item.Icon)
	if a.Kind() == menu.KindTitle {
		return
	}

	a.SetEnabled(item.IsEnabled())
	a.SetCheckable(item.Checkable)
	s.setGroup(a, item)
	a.SetChecked(item.Checked)

	seq, err := shortcut.Parse(item.Shortcut)
	if err != nil {
		log.Printf("source: item %s has an invalid shortcut: %v", item.ID, err)
	}
	a.SetShortcut(seq)

	switch {
	case item.Type == config.MenuItemMenu && a.Submenu() == nil:
		a.SetSubmenu(menu.NewMenu(item.Label))
	case item.Type != config.MenuItemMenu && a.Submenu() != nil:
		sub := a.Submenu()
		a.SetSubmenu(nil)
		sub.Clear()
		sub.Destroy()
	}
}

func (s *Source) setGroup(a *menu.Action, item config.MenuItem) {
	var g *menu.Group
	if item.Group != "" {
		key := item.ParentID + "\x00" + item.Group
		g = s.groups[key]
		if g == nil {
			g = menu.NewGroup()
			s.groups[key] = g
		}
	}
	switch {
	case a.Group() == g:
	case g == nil:
		a.Group().Remove(a)
	default:
		g.Add(a)
	}
}

func (s *Source) drop(id string) {
	a, ok := s.actions[id]
	if !ok {
		return
	}
	delete(s.actions, id)
	delete(s.digests, id)
	sub := a.Submenu()
	a.Destroy()
	if sub != nil {
		// Children may survive under another parent; unwanted ones are
		// dropped on their own.
		sub.Clear()
		sub.Destroy()
	}
}

func (s *Source) activate(id string) {
	item, ok := s.items[id]
	if !ok {
		return
	}
	switch item.Type {
	case config.MenuItemCommand:
		logging.Debugf("source: launching %s for item %s", item.Command, id)
		if err := s.launch(item); err != nil {
			log.Printf("source: failed to launch %q: %v", item.Command, err)
		}
	case config.MenuItemURL:
		logging.Debugf("source: opening %s for item %s", item.URL, id)
		if err := s.open(item.URL); err != nil {
			log.Printf("source: failed to open %q: %v", item.URL, err)
		}
	}
}

func kindOf(item config.MenuItem) menu.Kind {
	switch item.Type {
	case config.MenuItemDivider:
		return menu.KindSeparator
	case config.MenuItemTitle:
		return menu.KindTitle
	default:
		return menu.KindStandard
	}
}

func newAction(item config.MenuItem) *menu.Action {
	switch kindOf(item) {
	case menu.KindSeparator:
		return menu.NewSeparator()
	case menu.KindTitle:
		return menu.NewTitle(item.Label)
	default:
		return menu.NewAction(item.Label)
	}
}
