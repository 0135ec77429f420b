package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/example/traymenu/internal/config"
	"github.com/example/traymenu/internal/shortcut"
	"github.com/example/traymenu/internal/source"
)

type itemFlags struct {
	itemType    string
	label       string
	command     string
	args        string
	workDir     string
	url         string
	description string
	parent      string
	order       int
	checkable   bool
	checked     bool
	group       string
	disabled    bool
	hidden      bool
	icon        string
	shortcut    string
}

func (f *itemFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.itemType, "type", string(config.MenuItemText), "menu item type: text, title, divider, command, url, menu")
	fs.StringVar(&f.label, "label", "", "display label, '&' marks the mnemonic")
	fs.StringVar(&f.command, "command", "", "command or executable path")
	fs.StringVar(&f.args, "args", "", "comma-separated command arguments")
	fs.StringVar(&f.workDir, "workdir", "", "working directory for command execution")
	fs.StringVar(&f.url, "url", "", "target URL")
	fs.StringVar(&f.description, "description", "", "tooltip description")
	fs.StringVar(&f.parent, "parent", "", "id of the parent menu item")
	fs.IntVar(&f.order, "order", 0, "position among siblings (default: last)")
	fs.BoolVar(&f.checkable, "checkable", false, "item can be checked")
	fs.BoolVar(&f.checked, "checked", false, "item starts checked")
	fs.StringVar(&f.group, "group", "", "exclusive group name for radio items")
	fs.BoolVar(&f.disabled, "disabled", false, "item is disabled")
	fs.BoolVar(&f.hidden, "hidden", false, "item is hidden")
	fs.StringVar(&f.icon, "icon", "", "icon name")
	fs.StringVar(&f.shortcut, "shortcut", "", "keyboard shortcut, e.g. Ctrl+Shift+S")
}

// apply copies every flag set on the command line onto item.
func (f *itemFlags) apply(fs *pflag.FlagSet, item *config.MenuItem) {
	changed := fs.Changed
	if changed("type") {
		item.Type = config.MenuItemType(strings.ToLower(f.itemType))
		if item.Type != config.MenuItemCommand {
			item.Command, item.Arguments, item.WorkingDir = "", nil, ""
		}
		if item.Type != config.MenuItemURL {
			item.URL = ""
		}
	}
	if changed("label") {
		item.Label = f.label
	}
	if changed("command") {
		item.Command = f.command
	}
	if changed("args") {
		item.Arguments = parseList(f.args)
	}
	if changed("workdir") {
		item.WorkingDir = f.workDir
	}
	if changed("url") {
		item.URL = f.url
	}
	if changed("description") {
		item.Description = f.description
	}
	if changed("parent") {
		item.ParentID = f.parent
	}
	if changed("order") {
		item.Order = f.order
	}
	if changed("checkable") {
		item.Checkable = f.checkable
	}
	if changed("checked") {
		item.Checked = f.checked
	}
	if changed("group") {
		item.Group = f.group
	}
	if changed("disabled") {
		enabled := !f.disabled
		item.Enabled = &enabled
	}
	if changed("hidden") {
		item.Hidden = f.hidden
	}
	if changed("icon") {
		item.Icon = f.icon
	}
	if changed("shortcut") {
		item.Shortcut = f.shortcut
	}
}

func validateItem(cfg *config.Config, item config.MenuItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if _, err := shortcut.Parse(item.Shortcut); err != nil {
		return fmt.Errorf("invalid shortcut: %w", err)
	}
	if item.ParentID != "" {
		parent, ok := cfg.Find(item.ParentID)
		if !ok {
			return fmt.Errorf("parent %s not found", item.ParentID)
		}
		if parent.Type != config.MenuItemMenu {
			return fmt.Errorf("parent %s is not a menu", item.ParentID)
		}
	}
	return nil
}

// `traymenu add`
func addCmd(c *cli) *cobra.Command {
	var flags itemFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a menu item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, secret, err := c.loadConfig()
			if err != nil {
				return err
			}

			now := time.Now().UTC().Format(time.RFC3339)
			item := config.MenuItem{
				ID:         uuid.NewString(),
				Type:       config.MenuItemText,
				CreatedUTC: now,
				UpdatedUTC: now,
			}
			flags.apply(cmd.Flags(), &item)
			if !cmd.Flags().Changed("order") {
				item.Order = source.NextOrder(cfg.Items, item.ParentID)
			}
			if err := validateItem(cfg, item); err != nil {
				return err
			}

			cfg.Items = append(cfg.Items, item)
			if err := store.Save(cfg, secret); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added menu item %s of type %s\n", item.ID, item.Type)
			return nil
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

// `traymenu update`
func updateCmd(c *cli) *cobra.Command {
	var flags itemFlags
	var id string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update a menu item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return errors.New("missing --id for update")
			}
			store, cfg, secret, err := c.loadConfig()
			if err != nil {
				return err
			}
			item, ok := cfg.Find(id)
			if !ok {
				return fmt.Errorf("item with id %s not found", id)
			}

			flags.apply(cmd.Flags(), &item)
			if item.ParentID == item.ID {
				return errors.New("an item cannot be its own parent")
			}
			item.UpdatedUTC = time.Now().UTC().Format(time.RFC3339)
			if err := validateItem(cfg, item); err != nil {
				return err
			}

			cfg.Upsert(item)
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := store.Save(cfg, secret); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated menu item %s\n", item.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "identifier of the menu item to update")
	flags.register(cmd.Flags())
	return cmd
}

// `traymenu delete`
func deleteCmd(c *cli) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a menu item and everything below it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return errors.New("missing --id for delete")
			}
			store, cfg, secret, err := c.loadConfig()
			if err != nil {
				return err
			}
			removed, err := cfg.Delete(id)
			if err != nil {
				return err
			}
			if err := store.Save(cfg, secret); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted menu item %s (%d removed)\n", id, removed)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "identifier of the menu item to delete")
	return cmd
}

// `traymenu list`
func listCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured menu items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, _, err := c.loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(cfg.Items) == 0 {
				fmt.Fprintln(out, "No menu items configured")
				return nil
			}

			fmt.Fprintf(out, "%-38s %-8s %-24s %-20s\n", "ID", "Type", "Label", "Updated (UTC)")
			var walk func(parent string, depth int)
			walk = func(parent string, depth int) {
				for _, item := range cfg.Children(parent) {
					label := strings.Repeat("  ", depth) + item.Label
					fmt.Fprintf(out, "%-38s %-8s %-24s %-20s\n", item.ID, item.Type, truncate(label, 24), item.UpdatedUTC)
					walk(item.ID, depth+1)
				}
			}
			walk("", 0)
			return nil
		},
	}
}

// `traymenu import`
func importCmd(c *cli) *cobra.Command {
	var replace bool
	cmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import menu items from a YAML definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, secret, err := c.loadConfig()
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			items, err := config.ImportYAML(f)
			if err != nil {
				return err
			}
			if replace {
				cfg.Items = nil
			}
			for _, item := range items {
				cfg.Upsert(item)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := store.Save(cfg, secret); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d menu items\n", len(items))
			return nil
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "replace the existing configuration instead of merging")
	return cmd
}

func parseList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}
