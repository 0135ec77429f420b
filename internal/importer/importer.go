// Package importer rebuilds a remote menu as a local menu.Menu mirror and
// keeps it in sync with the exporter publishing it.
package importer

import (
	"log"
	"time"

	"github.com/example/traymenu/internal/bus"
	"github.com/example/traymenu/internal/itemtable"
	"github.com/example/traymenu/internal/logging"
	"github.com/example/traymenu/internal/loop"
	"github.com/example/traymenu/internal/menu"
	"github.com/example/traymenu/internal/protocol"
)

// Properties stored on every mirror action.
const (
	PropItemID = "_dbusmenu_id"
	propIcon   = "_dbusmenu_icon"
	propType   = "_dbusmenu_type"
)

const (
	// DefaultAboutToShowTimeout bounds the wait for an AboutToShow reply.
	DefaultAboutToShowTimeout = 50 * time.Millisecond
	// DefaultRefreshTimeout bounds the wait for the children fetch that may
	// follow it.
	DefaultRefreshTimeout = 500 * time.Millisecond
)

// Factory builds the mirror action of an item whose type was registered with
// RegisterFactory. Returning nil falls back to the generic classification.
type Factory func(props protocol.Properties) *menu.Action

// task is one in-flight call awaiting its reply.
type task struct {
	id   protocol.ItemID
	done func(*bus.Pending)
}

// Importer mirrors the menu served on conn. All methods must be called on the
// loop passed to New.
type Importer struct {
	loop  *loop.Loop
	conn  bus.Conn
	root  *menu.Menu
	items *itemtable.Table[*menu.Action, *menu.Menu]

	tasks           map[*bus.Pending]task
	refreshedByShow map[protocol.ItemID]struct{}
	layouts         *loop.Batch[protocol.ItemID]
	groups          map[*menu.Menu]*menu.Group
	factories       map[string]Factory
	signals         []func()

	iconLoader  func(name string) []byte
	menuUpdated []func(*menu.Menu)
	ready       []func()
	activation  []func(*menu.Action)

	aboutToShowTimeout time.Duration
	refreshTimeout     time.Duration
	closed             bool
}

// New subscribes to the exporter signals on conn and starts fetching the root
// menu.
func New(l *loop.Loop, conn bus.Conn) *Importer {
	i := &Importer{
		loop:               l,
		conn:               conn,
		tasks:              make(map[*bus.Pending]task),
		refreshedByShow:    make(map[protocol.ItemID]struct{}),
		groups:             make(map[*menu.Menu]*menu.Group),
		factories:          make(map[string]Factory),
		aboutToShowTimeout: DefaultAboutToShowTimeout,
		refreshTimeout:     DefaultRefreshTimeout,
	}
	i.items = itemtable.New[*menu.Action, *menu.Menu](nil, func(a *menu.Action) *menu.Menu { return a.Submenu() })
	i.layouts = loop.NewBatch(l, i.flushLayouts)

	i.signals = append(i.signals,
		conn.Subscribe(protocol.SignalItemUpdated, i.itemUpdated),
		conn.Subscribe(protocol.SignalItemPropertyUpdated, i.itemPropertyUpdated),
		conn.Subscribe(protocol.SignalLayoutUpdated, i.layoutUpdated),
		conn.Subscribe(protocol.SignalItemActivationRequested, i.activationRequested),
	)
	i.refresh(protocol.RootID)
	return i
}

// Menu returns the root mirror. It is the same instance for the lifetime of
// the importer and may be empty until the first fetch completes.
func (i *Importer) Menu() *menu.Menu {
	if i.root == nil {
		i.root = menu.NewMenu("")
		i.root.OnAboutToShow(func(*menu.Menu) {
			i.aboutToShow(protocol.RootID)
			if i.closed {
				return
			}
			for _, fn := range i.ready {
				fn()
			}
		})
	}
	return i.root
}

// Action returns the mirror action for id.
func (i *Importer) Action(id protocol.ItemID) (*menu.Action, bool) {
	return i.items.Node(id)
}

// ItemID returns the remote id of a mirror action.
func (i *Importer) ItemID(a *menu.Action) protocol.ItemID {
	return i.items.ID(a)
}

// SetTimeouts overrides the bounded waits of the about-to-show flow.
func (i *Importer) SetTimeouts(aboutToShow, refresh time.Duration) {
	i.aboutToShowTimeout = aboutToShow
	i.refreshTimeout = refresh
}

// SetIconLoader installs the function resolving icon names to image data.
func (i *Importer) SetIconLoader(fn func(name string) []byte) {
	i.iconLoader = fn
}

// RegisterFactory maps an item type to a custom mirror builder.
func (i *Importer) RegisterFactory(itemType string, f Factory) {
	i.factories[itemType] = f
}

// OnMenuUpdated registers fn to run after a children fetch was applied to a
// mirror menu.
func (i *Importer) OnMenuUpdated(fn func(*menu.Menu)) {
	i.menuUpdated = append(i.menuUpdated, fn)
}

// OnMenuReadyToBeShown registers fn to run when the about-to-show flow of the
// root mirror has finished.
func (i *Importer) OnMenuReadyToBeShown(fn func()) {
	i.ready = append(i.ready, fn)
}

// OnActionActivationRequested registers fn to run when the exporter asks for
// a mirror action to be activated.
func (i *Importer) OnActionActivationRequested(fn func(*menu.Action)) {
	i.activation = append(i.activation, fn)
}

// Close unsubscribes from the exporter and drops every in-flight call. The
// mirror tree may still be on screen, so it is destroyed with loop.Defer.
func (i *Importer) Close() {
	if i.closed {
		return
	}
	i.closed = true
	for _, cancel := range i.signals {
		cancel()
	}
	i.signals = nil
	i.tasks = make(map[*bus.Pending]task)
	i.layouts.Discard()
	if root := i.root; root != nil {
		i.loop.Defer(root.Destroy)
	}
}

// Closed reports whether Close has been called.
func (i *Importer) Closed() bool { return i.closed }

func (i *Importer) call(id protocol.ItemID, done func(*bus.Pending), method string, args ...any) *bus.Pending {
	p := i.conn.Call(method, args...)
	i.tasks[p] = task{id: id, done: done}
	p.OnFinish(i.dispatch)
	return p
}

// dispatch consumes the task of a finished call. Calls whose importer is gone
// are dropped.
func (i *Importer) dispatch(p *bus.Pending) {
	t, ok := i.tasks[p]
	if !ok {
		logging.Debugf("importer: dropping reply #%d to %s", p.Serial, p.Method)
		return
	}
	delete(i.tasks, p)
	if i.closed {
		return
	}
	t.done(p)
}

// refresh fetches the children of id with their full snapshots.
func (i *Importer) refresh(id protocol.ItemID) *bus.Pending {
	return i.call(id, func(p *bus.Pending) {
		i.childrenFetched(id, p)
	}, protocol.MethodGetChildren, int32(id), []string{})
}

func (i *Importer) childrenFetched(id protocol.ItemID, p *bus.Pending) {
	delete(i.refreshedByShow, id)
	if err := p.Err(); err != nil {
		log.Printf("importer: GetChildren(%d) failed: %v", id, err)
		return
	}
	items, err := protocol.DecodeItems(p.Value(0))
	if err != nil {
		log.Printf("importer: GetChildren(%d) returned a malformed reply: %v", id, err)
		return
	}

	var m *menu.Menu
	if id == protocol.RootID {
		m = i.Menu()
	} else {
		parent, ok := i.items.Node(id)
		if !ok {
			logging.Debugf("importer: no mirror for item %d", id)
			return
		}
		if parent.Submenu() == nil && len(items) > 0 {
			i.attachSubmenu(id, parent)
		}
		m = parent.Submenu()
		if m == nil {
			logging.Debugf("importer: item %d has no submenu", id)
			return
		}
	}
	i.applyChildren(m, items)
	for _, fn := range i.menuUpdated {
		fn(m)
	}
}

// applyChildren makes m hold exactly the fetched items, in order, reusing the
// mirror of every id that is already known.
func (i *Importer) applyChildren(m *menu.Menu, items []protocol.Item) {
	wanted := make(map[protocol.ItemID]struct{}, len(items))
	for _, it := range items {
		wanted[it.ID] = struct{}{}
	}
	for _, a := range m.Actions() {
		if _, ok := wanted[i.items.ID(a)]; !ok {
			m.RemoveAction(a)
			i.retire(a)
		}
	}

	for index, it := range items {
		if it.ID == protocol.RootID {
			continue
		}
		a, ok := i.items.Node(it.ID)
		if ok && !i.compatible(a, it.Properties) {
			for _, holder := range a.Menus() {
				holder.RemoveAction(a)
			}
			i.retire(a)
			ok = false
		}
		if ok {
			i.apply(a, it.Properties, protocol.Names)
		} else {
			a = i.create(it.ID, it.Properties)
			if a == nil {
				continue
			}
		}
		for _, holder := range a.Menus() {
			if holder != m {
				holder.RemoveAction(a)
			}
		}
		if index > m.Len() {
			index = m.Len()
		}
		if m.At(index) != a {
			m.InsertAction(index, a)
		}
		i.joinRadioGroup(m, a, it.Properties)
	}
}

// retire forgets a and its descendants now and destroys them later.
func (i *Importer) retire(a *menu.Action) {
	i.release(a)
	sub := a.Submenu()
	i.loop.Defer(func() {
		a.Destroy()
		if sub != nil {
			sub.Destroy()
		}
	})
}

func (i *Importer) release(a *menu.Action) {
	id, ok := i.items.Release(a)
	if ok {
		delete(i.refreshedByShow, id)
	}
	if sub := a.Submenu(); sub != nil {
		delete(i.groups, sub)
		for _, child := range sub.Actions() {
			i.release(child)
		}
	}
}

func (i *Importer) flushLayouts(ids []protocol.ItemID) {
	if i.closed {
		return
	}
	for _, id := range ids {
		if id != protocol.RootID && !i.items.Contains(id) {
			logging.Debugf("importer: layout of unknown item %d", id)
			continue
		}
		i.refresh(id)
	}
}

// aboutToShow runs the show-time refresh of the menu below id: an AboutToShow
// round trip, then a children fetch when the exporter asks for one or the
// mirror is still empty. Both waits are bounded; on timeout the current state
// is shown.
func (i *Importer) aboutToShow(id protocol.ItemID) {
	if i.closed {
		return
	}
	needRefresh := false
	p := i.call(id, func(p *bus.Pending) {
		if err := p.Err(); err != nil {
			log.Printf("importer: AboutToShow(%d) failed: %v", id, err)
			return
		}
		needRefresh, _ = protocol.AsBool(p.Value(0))
	}, protocol.MethodAboutToShow, int32(id))

	if !i.loop.WaitFor(p.Finished, i.aboutToShowTimeout) {
		log.Printf("importer: application did not answer AboutToShow(%d) before timeout", id)
	}
	// Anything may have run during the wait, including Close.
	if i.closed {
		return
	}
	m := i.Menu()
	if id != protocol.RootID {
		a, ok := i.items.Node(id)
		if !ok || a.Submenu() == nil {
			return
		}
		m = a.Submenu()
	}
	if !needRefresh && m.Len() > 0 {
		return
	}

	i.refreshedByShow[id] = struct{}{}
	rp := i.refresh(id)
	if !i.loop.WaitFor(rp.Finished, i.refreshTimeout) {
		log.Printf("importer: application did not answer GetChildren(%d) before timeout", id)
	}
}

func (i *Importer) sendClicked(a *menu.Action) {
	if i.closed {
		return
	}
	id := i.items.ID(a)
	if id == protocol.RootID {
		return
	}
	i.conn.Send(protocol.MethodEvent, int32(id), protocol.EventClicked, "", uint32(time.Now().Unix()))
}

// FetchLayout requests the structure below parent.
func (i *Importer) FetchLayout(parent protocol.ItemID, fn func(revision uint32, layout protocol.Layout, err error)) {
	i.call(parent, func(p *bus.Pending) {
		if err := p.Err(); err != nil {
			fn(0, protocol.Layout{}, err)
			return
		}
		revision, _ := protocol.AsUint32(p.Value(0))
		doc, ok := protocol.AsString(p.Value(1))
		if !ok {
			fn(0, protocol.Layout{}, protocol.ErrMalformed)
			return
		}
		if doc == "" {
			fn(revision, protocol.Layout{ID: parent}, nil)
			return
		}
		layout, err := protocol.ParseLayout(doc)
		fn(revision, layout, err)
	}, protocol.MethodGetLayout, int32(parent))
}
