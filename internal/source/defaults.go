package source

import (
	"time"

	"github.com/example/traymenu/internal/config"
)

// DefaultItems returns baseline menu options when no configuration exists.
func DefaultItems() []config.MenuItem {
	now := time.Now().UTC().Format(time.RFC3339)
	items := []config.MenuItem{
		{
			ID:          "welcome",
			Type:        config.MenuItemTitle,
			Label:       "traymenu",
			Description: "traymenu is running",
		},
		{
			ID:          "docs",
			Type:        config.MenuItemURL,
			Label:       "Visit &Project",
			URL:         "https://example.com",
			Description: "Open the project page",
			Shortcut:    "Ctrl+P",
		},
		{
			ID:   "divider",
			Type: config.MenuItemDivider,
		},
		{
			ID:    "view",
			Type:  config.MenuItemMenu,
			Label: "&View",
		},
		{
			ID:        "view-compact",
			Type:      config.MenuItemText,
			Label:     "Compact",
			ParentID:  "view",
			Checkable: true,
			Checked:   true,
			Group:     "density",
		},
		{
			ID:        "view-comfortable",
			Type:      config.MenuItemText,
			Label:     "Comfortable",
			ParentID:  "view",
			Checkable: true,
			Group:     "density",
		},
	}
	for i := range items {
		items[i].CreatedUTC = now
		items[i].UpdatedUTC = now
	}
	EnsureSequentialOrder(items)
	return items
}
