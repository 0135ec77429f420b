// Package exporter publishes a menu.Menu tree over a bus. It assigns every
// action a stable item id, keeps a minimal property snapshot per item, and
// turns tree notifications into coalesced ItemUpdated and LayoutUpdated
// signals.
package exporter

import (
	"log"
	"time"

	"github.com/mitchellh/hashstructure"

	"github.com/example/traymenu/internal/bus"
	"github.com/example/traymenu/internal/itemtable"
	"github.com/example/traymenu/internal/logging"
	"github.com/example/traymenu/internal/loop"
	"github.com/example/traymenu/internal/menu"
	"github.com/example/traymenu/internal/protocol"
)

// published is the last state of an item the importers were told about.
type published struct {
	digest uint64
	props  protocol.Properties
}

// Exporter observes a root menu and serves it. All methods must be called on
// the loop passed to New.
type Exporter struct {
	loop  *loop.Loop
	emit  bus.Emitter
	root  *menu.Menu
	items *itemtable.Table[*menu.Action, *menu.Menu]

	revision  uint32
	published map[protocol.ItemID]published
	submenus  map[protocol.ItemID]*menu.Menu
	observed  map[*menu.Menu]func()
	hooks     map[*menu.Action]func()

	updates *loop.Batch[protocol.ItemID]
	layouts *loop.Batch[protocol.ItemID]

	iconName     func(*menu.Action) string
	propertyPush bool
	closed       bool
}

// New starts exporting root. Every action already in the tree is registered
// immediately; later additions register as they happen.
func New(l *loop.Loop, root *menu.Menu, emit bus.Emitter) *Exporter {
	e := &Exporter{
		loop:      l,
		emit:      emit,
		root:      root,
		published: make(map[protocol.ItemID]published),
		submenus:  make(map[protocol.ItemID]*menu.Menu),
		observed:  make(map[*menu.Menu]func()),
		hooks:     make(map[*menu.Action]func()),
		iconName:  (*menu.Action).IconName,
	}
	e.items = itemtable.New(root, func(a *menu.Action) *menu.Menu { return a.Submenu() })
	e.updates = loop.NewBatch(l, e.flushUpdates)
	e.layouts = loop.NewBatch(l, e.flushLayouts)
	e.observe(root)
	return e
}

// Root returns the exported menu.
func (e *Exporter) Root() *menu.Menu { return e.root }

// Revision returns the structural revision counter.
func (e *Exporter) Revision() uint32 { return e.revision }

// ItemID returns the id of a, or RootID when a is not exported.
func (e *Exporter) ItemID(a *menu.Action) protocol.ItemID { return e.items.ID(a) }

// SetIconNameFunc overrides how an action's icon name is derived. Every item
// is re-evaluated.
func (e *Exporter) SetIconNameFunc(fn func(*menu.Action) string) {
	if fn == nil {
		fn = (*menu.Action).IconName
	}
	e.iconName = fn
	e.items.Each(func(id protocol.ItemID, a *menu.Action) {
		e.refresh(id, a)
	})
}

// SetPropertyPush makes the exporter send ItemPropertyUpdated instead of
// ItemUpdated when exactly one property of an item changed.
func (e *Exporter) SetPropertyPush(on bool) {
	e.propertyPush = on
}

// Close stops observing the tree. Pending notifications are dropped and later
// queries return empty results.
func (e *Exporter) Close() {
	if e.closed {
		return
	}
	e.closed = true
	for m, cancel := range e.observed {
		cancel()
		delete(e.observed, m)
	}
	for a, cancel := range e.hooks {
		cancel()
		delete(e.hooks, a)
	}
	e.updates.Discard()
	e.layouts.Discard()
}

func (e *Exporter) observe(m *menu.Menu) {
	if m == nil || m.IsDestroyed() {
		return
	}
	if _, ok := e.observed[m]; ok {
		return
	}
	e.observed[m] = m.Subscribe(func(ev menu.Event) { e.handleEvent(ev) })
	for _, a := range m.Actions() {
		e.track(a)
	}
}

func (e *Exporter) unobserve(m *menu.Menu) {
	cancel, ok := e.observed[m]
	if !ok {
		return
	}
	cancel()
	delete(e.observed, m)
	for _, a := range m.Actions() {
		if !e.heldElsewhere(a, m) {
			e.untrack(a)
		}
	}
}

// heldElsewhere reports whether a is still in an observed menu other than m.
func (e *Exporter) heldElsewhere(a *menu.Action, m *menu.Menu) bool {
	for _, other := range a.Menus() {
		if other == m {
			continue
		}
		if _, ok := e.observed[other]; ok {
			return true
		}
	}
	return false
}

func (e *Exporter) track(a *menu.Action) protocol.ItemID {
	if id := e.items.ID(a); id != protocol.RootID {
		return id
	}
	id, err := e.items.Allocate(a)
	if err != nil {
		log.Printf("exporter: unable to register action %q: %v", a.Text(), err)
		return protocol.RootID
	}
	e.hooks[a] = a.OnBeforeDestroy(e.actionDestroyed)

	props := e.snapshot(a)
	e.items.SetSnapshot(id, props)
	e.published[id] = published{digest: digest(props), props: props}

	if sub := a.Submenu(); sub != nil {
		e.submenus[id] = sub
		e.observe(sub)
	}
	logging.Debugf("exporter: registered item %d %q", id, a.Text())
	return id
}

func (e *Exporter) untrack(a *menu.Action) {
	if cancel, ok := e.hooks[a]; ok {
		cancel()
		delete(e.hooks, a)
	}
	id, ok := e.items.Release(a)
	if !ok {
		return
	}
	delete(e.published, id)
	sub := e.submenus[id]
	delete(e.submenus, id)
	if sub != nil {
		e.unobserve(sub)
	}
	logging.Debugf("exporter: retired item %d", id)
}

// actionDestroyed runs while a is still intact, so nothing can reach its id
// once the action is gone.
func (e *Exporter) actionDestroyed(a *menu.Action) {
	e.untrack(a)
}

func (e *Exporter) handleEvent(ev menu.Event) {
	if e.closed {
		return
	}
	switch ev.Type {
	case menu.EventAdded:
		if id := e.track(ev.Action); id == protocol.RootID {
			return
		}
		e.structureChanged(ev.Menu)
	case menu.EventRemoved:
		if !e.heldElsewhere(ev.Action, ev.Menu) {
			e.untrack(ev.Action)
		}
		e.structureChanged(ev.Menu)
	case menu.EventChanged:
		e.actionChanged(ev.Action)
	case menu.EventDestroyed:
		e.unobserve(ev.Menu)
	}
}

func (e *Exporter) structureChanged(m *menu.Menu) {
	e.revision++
	if id, ok := e.menuID(m); ok {
		e.layouts.Add(id)
	}
}

func (e *Exporter) actionChanged(a *menu.Action) {
	id := e.items.ID(a)
	if id == protocol.RootID {
		return
	}
	if sub := a.Submenu(); sub != e.submenus[id] {
		if old := e.submenus[id]; old != nil {
			e.unobserve(old)
		}
		if sub != nil {
			e.submenus[id] = sub
			e.observe(sub)
		} else {
			delete(e.submenus, id)
		}
		e.revision++
		e.layouts.Add(id)
	}
	e.refresh(id, a)
}

// refresh recomputes the snapshot of id and queues an update when it changed.
func (e *Exporter) refresh(id protocol.ItemID, a *menu.Action) {
	props := e.snapshot(a)
	old, _ := e.items.Snapshot(id)
	if digest(props) == digest(old) {
		return
	}
	e.items.SetSnapshot(id, props)
	e.updates.Add(id)
}

func (e *Exporter) flushUpdates(ids []protocol.ItemID) {
	if e.closed {
		return
	}
	for _, id := range ids {
		a, ok := e.items.Node(id)
		if !ok || a.IsDestroyed() {
			continue
		}
		props := e.snapshot(a)
		e.items.SetSnapshot(id, props)
		sum := digest(props)
		prev := e.published[id]
		if sum == prev.digest {
			continue
		}
		e.published[id] = published{digest: sum, props: props}

		if name, value, ok := singleChange(prev.props, props); e.propertyPush && ok {
			e.emit.Emit(protocol.SignalItemPropertyUpdated, int32(id), name, value)
			continue
		}
		e.emit.Emit(protocol.SignalItemUpdated, int32(id))
	}
}

func (e *Exporter) flushLayouts(ids []protocol.ItemID) {
	if e.closed {
		return
	}
	for _, id := range ids {
		if id != protocol.RootID && !e.items.Contains(id) {
			continue
		}
		e.emit.Emit(protocol.SignalLayoutUpdated, e.revision, int32(id))
	}
}

// menuID returns the id under which m is exported.
func (e *Exporter) menuID(m *menu.Menu) (protocol.ItemID, bool) {
	if m == e.root {
		return protocol.RootID, true
	}
	owner := m.Owner()
	if owner == nil {
		return protocol.RootID, false
	}
	id := e.items.ID(owner)
	return id, id != protocol.RootID
}

func (e *Exporter) resolve(id protocol.ItemID) (*menu.Menu, bool) {
	if e.closed {
		return nil, false
	}
	m, ok := e.items.ResolveMenu(id)
	if !ok || m.IsDestroyed() {
		return nil, false
	}
	return m, true
}

func (e *Exporter) nodeFor(id protocol.ItemID) (*menu.Action, bool) {
	if e.closed {
		return nil, false
	}
	a, ok := e.items.Node(id)
	if !ok || a.IsDestroyed() {
		return nil, false
	}
	return a, true
}

// Children returns the direct children of parent, each with its snapshot
// filtered to names. An empty names list returns full snapshots. Pending item
// updates are flushed first.
func (e *Exporter) Children(parent protocol.ItemID, names []string) []protocol.Item {
	e.updates.Flush()
	m, ok := e.resolve(parent)
	if !ok {
		logging.Debugf("exporter: children of unknown item %d", parent)
		return nil
	}
	items := make([]protocol.Item, 0, m.Len())
	for _, a := range m.Actions() {
		id := e.items.ID(a)
		if id == protocol.RootID {
			continue
		}
		props, _ := e.items.Snapshot(id)
		items = append(items, protocol.Item{ID: id, Properties: props.Filter(names)})
	}
	return items
}

// Property returns one cached property value. Unknown items and properties
// report false.
func (e *Exporter) Property(id protocol.ItemID, name string) (any, bool) {
	if _, ok := e.nodeFor(id); !ok {
		return nil, false
	}
	props, _ := e.items.Snapshot(id)
	v, ok := props[name]
	return v, ok
}

// Properties returns the cached snapshot of id filtered to names.
func (e *Exporter) Properties(id protocol.ItemID, names []string) protocol.Properties {
	if _, ok := e.nodeFor(id); !ok {
		return protocol.Properties{}
	}
	props, _ := e.items.Snapshot(id)
	return props.Filter(names)
}

// GroupProperties is the batch form of Properties. Unknown ids are skipped.
func (e *Exporter) GroupProperties(ids []protocol.ItemID, names []string) []protocol.Item {
	items := make([]protocol.Item, 0, len(ids))
	for _, id := range ids {
		if _, ok := e.nodeFor(id); !ok {
			logging.Debugf("exporter: skipping unknown item %d", id)
			continue
		}
		props, _ := e.items.Snapshot(id)
		items = append(items, protocol.Item{ID: id, Properties: props.Filter(names)})
	}
	return items
}

// Layout returns the structure below parent, stamped with the current
// revision. An unknown parent yields false.
func (e *Exporter) Layout(parent protocol.ItemID) (uint32, protocol.Layout, bool) {
	m, ok := e.resolve(parent)
	if !ok {
		return 0, protocol.Layout{}, false
	}
	return e.revision, e.layoutOf(parent, m), true
}

func (e *Exporter) layoutOf(id protocol.ItemID, m *menu.Menu) protocol.Layout {
	l := protocol.Layout{ID: id}
	for _, a := range m.Actions() {
		childID := e.items.ID(a)
		if childID == protocol.RootID {
			continue
		}
		child := protocol.Layout{ID: childID}
		if sub := e.submenus[childID]; sub != nil && sub != m && !sub.IsDestroyed() {
			child = e.layoutOf(childID, sub)
		}
		l.Children = append(l.Children, child)
	}
	return l
}

// Event handles an interaction reported by an importer. Stale ids are
// ignored.
func (e *Exporter) Event(id protocol.ItemID, eventType string) {
	switch eventType {
	case protocol.EventClicked:
		a, ok := e.nodeFor(id)
		if !ok {
			logging.Debugf("exporter: click on unknown item %d", id)
			return
		}
		a.Trigger()
	case protocol.EventHovered:
		if m, ok := e.resolve(id); ok {
			m.EmitAboutToShow()
		}
	default:
		logging.Debugf("exporter: ignoring %q event for item %d", eventType, id)
	}
}

// AboutToShow runs the about-to-show hooks of the menu below id and reports
// whether they added, removed or changed any of its items.
func (e *Exporter) AboutToShow(id protocol.ItemID) bool {
	m, ok := e.resolve(id)
	if !ok {
		return false
	}
	changed := false
	cancel := m.Subscribe(func(ev menu.Event) {
		switch ev.Type {
		case menu.EventAdded, menu.EventRemoved, menu.EventChanged:
			changed = true
		}
	})
	defer cancel()
	m.EmitAboutToShow()
	return changed
}

// ActivateAction asks importers to activate a, as when a global shortcut
// fires in the exporting process.
func (e *Exporter) ActivateAction(a *menu.Action) {
	id := e.items.ID(a)
	if e.closed || id == protocol.RootID {
		return
	}
	e.emit.Emit(protocol.SignalItemActivationRequested, int32(id), uint32(time.Now().Unix()))
}

func digest(props protocol.Properties) uint64 {
	sum, err := hashstructure.Hash(map[string]any(props), nil)
	if err != nil {
		log.Printf("exporter: unable to hash properties: %v", err)
		return 0
	}
	return sum
}

// singleChange reports the one property that differs between prev and next.
// A property dropped from next is reported with its default value; defaults
// that cannot be sent as a value rule out a single change.
func singleChange(prev, next protocol.Properties) (string, any, bool) {
	var name string
	var value any
	count := 0
	for _, key := range protocol.Names {
		a, inPrev := prev[key]
		b, inNext := next[key]
		if inPrev == inNext && (!inPrev || digestOf(a) == digestOf(b)) {
			continue
		}
		count++
		name = key
		if inNext {
			value = b
		} else {
			value = protocol.Defaults[key]
		}
	}
	if count != 1 || value == nil {
		return "", nil, false
	}
	if def, ok := value.([]byte); ok && def == nil {
		return "", nil, false
	}
	if def, ok := value.([][]string); ok && def == nil {
		return "", nil, false
	}
	return name, value, true
}

func digestOf(v any) uint64 {
	sum, err := hashstructure.Hash(v, nil)
	if err != nil {
		return 0
	}
	return sum
}
