package config

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, "/cfg/traymenu/config.enc")

	cfg, err := store.Load("pass")
	require.NoError(t, err)
	assert.Empty(t, cfg.Items)

	cfg.Items = []MenuItem{{ID: "a", Type: MenuItemText, Label: "Hello"}}
	require.NoError(t, store.Save(cfg, "pass"))

	raw, err := afero.ReadFile(fs, store.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Hello")
	exists, _ := afero.Exists(fs, store.Path()+".tmp")
	assert.False(t, exists)

	back, err := store.Load("pass")
	require.NoError(t, err)
	assert.Equal(t, cfg.Items, back.Items)

	_, err = store.Load("wrong")
	assert.Error(t, err)
	_, err = store.Load("")
	assert.Error(t, err)
}

func TestPathHonoursEnvironment(t *testing.T) {
	t.Setenv("TRAYMENU_CONFIG_PATH", "/tmp/custom.enc")
	path, err := Path()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.enc", path)
}

func TestResolveSecret(t *testing.T) {
	t.Setenv("TRAYMENU_SECRET", "")
	_, err := ResolveSecret()
	assert.ErrorIs(t, err, ErrNoSecret)

	t.Setenv("TRAYMENU_SECRET", " s3 ")
	secret, err := ResolveSecret()
	require.NoError(t, err)
	assert.Equal(t, "s3", secret)
}

func TestChildrenDeleteAndValidate(t *testing.T) {
	cfg := &Config{Items: []MenuItem{
		{ID: "m", Type: MenuItemMenu, Label: "Tools", Order: 1},
		{ID: "t", Type: MenuItemText, Label: "Top", Order: 0},
		{ID: "c1", Type: MenuItemURL, Label: "Docs", URL: "https://example.com", ParentID: "m", Order: 2},
		{ID: "c2", Type: MenuItemMenu, Label: "More", ParentID: "m", Order: 1},
		{ID: "g", Type: MenuItemText, Label: "Deep", ParentID: "c2"},
	}}
	require.NoError(t, cfg.Validate())

	var ids []string
	for _, item := range cfg.Children("") {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{"t", "m"}, ids)

	removed, err := cfg.Delete("m")
	require.NoError(t, err)
	assert.Equal(t, 4, removed)
	assert.Len(t, cfg.Items, 1)

	_, err = cfg.Delete("m")
	assert.ErrorIs(t, err, ErrNotFound)

	cfg.Items = append(cfg.Items, MenuItem{ID: "x", Type: MenuItemText, Label: "x", ParentID: "t"})
	assert.ErrorContains(t, cfg.Validate(), "not a menu")
}

func TestItemValidate(t *testing.T) {
	assert.Error(t, MenuItem{Type: MenuItemCommand, Label: "x"}.Validate())
	assert.Error(t, MenuItem{Type: "bogus"}.Validate())
	assert.Error(t, MenuItem{Type: MenuItemText, Label: "x", Checked: true}.Validate())
	assert.NoError(t, MenuItem{Type: MenuItemDivider}.Validate())
	assert.NoError(t, MenuItem{Type: MenuItemText, Label: "x", Checkable: true, Group: "g"}.Validate())

	off := false
	assert.False(t, MenuItem{Enabled: &off}.IsEnabled())
	assert.True(t, MenuItem{}.IsEnabled())
}

func TestImportYAML(t *testing.T) {
	doc := `
items:
  - label: "&File"
    items:
      - label: Open
        type: command
        command: xdg-open
        shortcut: Ctrl+O
      - type: divider
      - label: Dark
        checkable: true
        checked: true
        group: theme
  - id: docs
    label: Docs
    type: url
    url: https://example.com
`
	items, err := ImportYAML(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, items, 5)

	file := items[0]
	assert.Equal(t, MenuItemMenu, file.Type)
	assert.NotEmpty(t, file.ID)
	for _, child := range items[1:4] {
		assert.Equal(t, file.ID, child.ParentID)
	}
	assert.Equal(t, 2, items[3].Order)
	assert.Equal(t, "docs", items[4].ID)
	assert.Equal(t, 1, items[4].Order)

	cfg := &Config{Items: items}
	assert.NoError(t, cfg.Validate())

	_, err = ImportYAML(strings.NewReader("items:\n  - label: x\n    type: url\n"))
	assert.Error(t, err)
	_, err = ImportYAML(strings.NewReader("items:\n  - label: x\n    colour: red\n"))
	assert.Error(t, err)
}
