package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/traymenu/internal/config"
	"github.com/example/traymenu/internal/loop"
	"github.com/example/traymenu/internal/menu"
)

func labels(m *menu.Menu) []string {
	var out []string
	for _, a := range m.Actions() {
		if a.IsSeparator() {
			out = append(out, "-")
			continue
		}
		out = append(out, a.Text())
	}
	return out
}

func TestApplyBuildsTree(t *testing.T) {
	root := menu.NewMenu("root")
	src := New(root)
	cfg := &config.Config{Items: DefaultItems()}

	require.True(t, src.Apply(cfg))
	assert.Equal(t, []string{"traymenu", "Visit &Project", "-", "&View"}, labels(root))
	assert.Equal(t, menu.KindTitle, root.At(0).Kind())
	assert.Equal(t, "Ctrl+P", root.At(1).Shortcut().String())
	assert.Equal(t, "Open the project page", root.At(1).ToolTip())

	view := root.At(3).Submenu()
	require.NotNil(t, view)
	assert.Equal(t, []string{"Compact", "Comfortable"}, labels(view))
	compact, comfortable := view.At(0), view.At(1)
	require.NotNil(t, compact.Group())
	assert.Same(t, compact.Group(), comfortable.Group())
	assert.True(t, compact.Group().IsExclusive())
	assert.True(t, compact.IsChecked())

	comfortable.Trigger()
	assert.False(t, compact.IsChecked())
	assert.True(t, comfortable.IsChecked())
}

func TestApplySkipsUnchangedConfiguration(t *testing.T) {
	src := New(menu.NewMenu("root"))
	cfg := &config.Config{Items: DefaultItems()}
	require.True(t, src.Apply(cfg))
	assert.False(t, src.Apply(&config.Config{Items: append([]config.MenuItem(nil), cfg.Items...)}))
}

func TestEditsBecomePropertyChanges(t *testing.T) {
	root := menu.NewMenu("root")
	src := New(root)
	items := DefaultItems()
	src.Apply(&config.Config{Items: items})
	docs, _ := src.Action("docs")

	var events []menu.EventType
	root.Subscribe(func(ev menu.Event) { events = append(events, ev.Type) })

	edited := append([]config.MenuItem(nil), items...)
	edited[1].Label = "Docs"
	off := false
	edited[1].Enabled = &off
	src.Apply(&config.Config{Items: edited})

	again, _ := src.Action("docs")
	assert.Same(t, docs, again)
	assert.Equal(t, "Docs", docs.Text())
	assert.False(t, docs.IsEnabled())
	require.NotEmpty(t, events)
	for _, ev := range events {
		assert.Equal(t, menu.EventChanged, ev)
	}
}

func TestRemovalReorderAndKindChange(t *testing.T) {
	root := menu.NewMenu("root")
	src := New(root)
	items := []config.MenuItem{
		{ID: "a", Type: config.MenuItemText, Label: "A", Order: 10},
		{ID: "b", Type: config.MenuItemText, Label: "B", Order: 20},
		{ID: "m", Type: config.MenuItemMenu, Label: "M", Order: 30},
		{ID: "c", Type: config.MenuItemText, Label: "C", ParentID: "m"},
	}
	src.Apply(&config.Config{Items: items})
	a, _ := src.Action("a")
	sub := root.At(2).Submenu()
	require.NotNil(t, sub)

	next := []config.MenuItem{
		{ID: "b", Type: config.MenuItemText, Label: "B", Order: 10},
		{ID: "a", Type: config.MenuItemDivider, Order: 20},
		{ID: "c", Type: config.MenuItemText, Label: "C", Order: 30},
	}
	src.Apply(&config.Config{Items: next})

	assert.Equal(t, []string{"B", "-", "C"}, labels(root))
	assert.True(t, a.IsDestroyed())
	assert.True(t, sub.IsDestroyed())
	_, ok := src.Action("m")
	assert.False(t, ok)
}

func TestOrphansAreDropped(t *testing.T) {
	root := menu.NewMenu("root")
	src := New(root)
	src.Apply(&config.Config{Items: []config.MenuItem{
		{ID: "a", Type: config.MenuItemText, Label: "A"},
		{ID: "x", Type: config.MenuItemText, Label: "X", ParentID: "missing"},
	}})
	assert.Equal(t, []string{"A"}, labels(root))
	_, ok := src.Action("x")
	assert.False(t, ok)
}

func TestTriggerRunsItemSideEffects(t *testing.T) {
	root := menu.NewMenu("root")
	src := New(root)
	var launched []string
	var opened []string
	src.SetLauncher(func(item config.MenuItem) error {
		launched = append(launched, item.Command)
		return errors.New("boom")
	})
	src.SetURLOpener(func(raw string) error {
		opened = append(opened, raw)
		return nil
	})
	src.Apply(&config.Config{Items: []config.MenuItem{
		{ID: "cmd", Type: config.MenuItemCommand, Label: "Run", Command: "true", Order: 1},
		{ID: "url", Type: config.MenuItemURL, Label: "Web", URL: "https://example.com", Order: 2},
		{ID: "txt", Type: config.MenuItemText, Label: "Text", Order: 3},
	}})

	for _, a := range root.Actions() {
		a.Trigger()
	}
	assert.Equal(t, []string{"true"}, launched)
	assert.Equal(t, []string{"https://example.com"}, opened)
}

func TestOrderingHelpers(t *testing.T) {
	items := []config.MenuItem{
		{ID: "a", Order: 5},
		{ID: "b", Order: 1},
		{ID: "c", Order: 3, ParentID: "p"},
	}
	EnsureSequentialOrder(items)
	assert.Equal(t, 20, items[0].Order)
	assert.Equal(t, 10, items[1].Order)
	assert.Equal(t, 10, items[2].Order)
	assert.Equal(t, 30, NextOrder(items, ""))
	assert.Equal(t, 10, NextOrder(items, "empty"))
}

func TestOpenURLRejectsInvalidInput(t *testing.T) {
	assert.Error(t, openURL(""))
	assert.Error(t, openURL("not a url"))
	assert.Error(t, executeCommand(config.MenuItem{ID: "x"}))
}

func TestRunnerSeedsAndRefreshes(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := config.NewStore(fs, "/cfg/traymenu/config.enc")
	l := loop.New()
	root := menu.NewMenu("root")
	runner := NewRunner(l, New(root), store, "secret")
	runner.SetRefreshInterval(time.Hour)

	require.NoError(t, runner.SyncOnce())
	l.ProcessEvents()
	assert.Equal(t, 4, root.Len())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Start(ctx) }()

	cfg, err := store.Load("secret")
	require.NoError(t, err)
	cfg.Items = append(cfg.Items, config.MenuItem{ID: "new", Type: config.MenuItemText, Label: "New", Order: 100})
	require.NoError(t, store.Save(cfg, "secret"))
	runner.Refresh()

	assert.True(t, l.WaitFor(func() bool { return root.Len() == 5 }, 2*time.Second))
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRunnerRejectsInvalidConfiguration(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := config.NewStore(fs, "/cfg/config.enc")
	require.NoError(t, store.Save(&config.Config{Items: []config.MenuItem{{ID: "x", Type: "bogus"}}}, "secret"))

	runner := NewRunner(loop.New(), New(menu.NewMenu("root")), store, "secret")
	assert.ErrorContains(t, runner.SyncOnce(), "invalid configuration")
}
