package config

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Definition is the nested, hand-written form of a menu item accepted by
// ImportYAML.
type Definition struct {
	ID          string       `yaml:"id,omitempty"`
	Type        MenuItemType `yaml:"type,omitempty"`
	Label       string       `yaml:"label,omitempty"`
	Command     string       `yaml:"command,omitempty"`
	Arguments   []string     `yaml:"arguments,omitempty"`
	WorkingDir  string       `yaml:"workingDir,omitempty"`
	URL         string       `yaml:"url,omitempty"`
	Description string       `yaml:"description,omitempty"`
	Checkable   bool         `yaml:"checkable,omitempty"`
	Checked     bool         `yaml:"checked,omitempty"`
	Group       string       `yaml:"group,omitempty"`
	Enabled     *bool        `yaml:"enabled,omitempty"`
	Hidden      bool         `yaml:"hidden,omitempty"`
	Icon        string       `yaml:"icon,omitempty"`
	Shortcut    string       `yaml:"shortcut,omitempty"`
	Items       []Definition `yaml:"items,omitempty"`
}

type document struct {
	Items []Definition `yaml:"items"`
}

// ImportYAML reads a nested menu definition and flattens it into items with
// parent ids and orders assigned. Items without an id get a fresh one, items
// without a type become text, or menu when they have children.
func ImportYAML(r io.Reader) ([]MenuItem, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	var out []MenuItem
	var flatten func(defs []Definition, parent string) error
	flatten = func(defs []Definition, parent string) error {
		for i, def := range defs {
			item := MenuItem{
				ID:          def.ID,
				Order:       i,
				Type:        def.Type,
				Label:       def.Label,
				Command:     def.Command,
				Arguments:   def.Arguments,
				WorkingDir:  def.WorkingDir,
				URL:         def.URL,
				Description: def.Description,
				ParentID:    parent,
				Checkable:   def.Checkable,
				Checked:     def.Checked,
				Group:       def.Group,
				Enabled:     def.Enabled,
				Hidden:      def.Hidden,
				Icon:        def.Icon,
				Shortcut:    def.Shortcut,
				CreatedUTC:  now,
				UpdatedUTC:  now,
			}
			if item.ID == "" {
				item.ID = uuid.NewString()
			}
			if item.Type == "" {
				item.Type = MenuItemText
				if len(def.Items) > 0 {
					item.Type = MenuItemMenu
				}
			}
			if len(def.Items) > 0 && item.Type != MenuItemMenu {
				return fmt.Errorf("item %q has children but type %s", item.Label, item.Type)
			}
			if err := item.Validate(); err != nil {
				return fmt.Errorf("item %q: %w", item.Label, err)
			}
			out = append(out, item)
			if err := flatten(def.Items, item.ID); err != nil {
				return err
			}
		}
		return nil
	}
	if err := flatten(doc.Items, ""); err != nil {
		return nil, err
	}
	return out, nil
}
