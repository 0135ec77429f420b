package menu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []Event
}

func (r *recorder) observe(ev Event) {
	r.events = append(r.events, ev)
}

func (r *recorder) types() []EventType {
	out := make([]EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func TestMenuStructuralEvents(t *testing.T) {
	m := NewMenu("root")
	rec := &recorder{}
	m.Subscribe(rec.observe)

	a1 := m.AddItem("a1")
	a2 := m.AddItem("a2")
	m.InsertAction(0, a2)
	require.Equal(t, []*Action{a2, a1}, m.Actions())

	a1.SetText("renamed")
	a1.SetText("renamed")
	m.RemoveAction(a2)

	assert.Equal(t, []EventType{EventAdded, EventAdded, EventRemoved, EventAdded, EventChanged, EventRemoved}, rec.types())
	assert.Equal(t, 0, rec.events[3].Index)
	assert.Empty(t, a2.Menus())
}

func TestExclusiveGroupTrigger(t *testing.T) {
	m := NewMenu("root")
	a1 := m.AddItem("a1")
	a2 := m.AddItem("a2")
	a1.SetCheckable(true)
	a2.SetCheckable(true)
	g := NewGroup()
	g.Add(a1)
	g.Add(a2)
	a1.SetChecked(true)

	rec := &recorder{}
	m.Subscribe(rec.observe)
	a2.Trigger()

	assert.False(t, a1.IsChecked())
	assert.True(t, a2.IsChecked())
	assert.Equal(t, []EventType{EventChanged, EventChanged}, rec.types())

	// A checked radio stays checked.
	a2.Trigger()
	assert.True(t, a2.IsChecked())
	assert.Same(t, a2, g.Checked())
}

func TestNonExclusiveGroupToggles(t *testing.T) {
	a := NewAction("a")
	a.SetCheckable(true)
	g := NewGroup()
	g.SetExclusive(false)
	g.Add(a)
	a.Trigger()
	assert.True(t, a.IsChecked())
	a.Trigger()
	assert.False(t, a.IsChecked())
}

func TestAutoToggleOff(t *testing.T) {
	a := NewAction("a")
	a.SetCheckable(true)
	a.SetAutoToggle(false)
	triggered := 0
	a.OnTriggered(func(*Action) { triggered++ })
	a.Trigger()
	assert.False(t, a.IsChecked())
	assert.Equal(t, 1, triggered)
}

func TestDisabledActionIgnoresTrigger(t *testing.T) {
	a := NewAction("a")
	a.SetEnabled(false)
	called := false
	a.OnTriggered(func(*Action) { called = true })
	a.Trigger()
	assert.False(t, called)
}

func TestDestroyRunsHooksBeforeDetaching(t *testing.T) {
	m := NewMenu("root")
	a := m.AddItem("a")
	rec := &recorder{}
	m.Subscribe(rec.observe)

	var sawMenus int
	a.OnBeforeDestroy(func(a *Action) { sawMenus = len(a.Menus()) })
	a.Destroy()

	assert.Equal(t, 1, sawMenus)
	assert.True(t, a.IsDestroyed())
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, []EventType{EventRemoved}, rec.types())
}

func TestMenuDestroyCascades(t *testing.T) {
	root := NewMenu("root")
	sub := root.AddSubmenu("sub")
	leaf := sub.AddItem("leaf")
	holder := sub.Owner()
	require.NotNil(t, holder)

	rec := &recorder{}
	sub.Subscribe(rec.observe)
	sub.Destroy()

	assert.True(t, leaf.IsDestroyed())
	assert.Nil(t, holder.Submenu())
	assert.Equal(t, EventDestroyed, rec.types()[0])
	assert.False(t, holder.IsDestroyed())
}

func TestAboutToShowHooks(t *testing.T) {
	m := NewMenu("lazy")
	cancel := m.OnAboutToShow(func(m *Menu) {
		if m.Len() == 0 {
			m.AddItem("filled")
		}
	})
	m.EmitAboutToShow()
	m.EmitAboutToShow()
	assert.Equal(t, 1, m.Len())
	cancel()
	m.Clear()
	m.EmitAboutToShow()
	assert.Equal(t, 0, m.Len())
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Edit", PlainText("&Edit"))
	assert.Equal(t, "A & B", PlainText("A && B"))
	assert.Equal(t, "Save As", PlainText("Save &As"))
}
