package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/example/traymenu/internal/bus"
	"github.com/example/traymenu/internal/importer"
	"github.com/example/traymenu/internal/ipc"
	"github.com/example/traymenu/internal/loop"
	"github.com/example/traymenu/internal/menu"
	"github.com/example/traymenu/internal/protocol"
)

// dumpNode is one mirrored item as printed by dump.
type dumpNode struct {
	ID       protocol.ItemID `yaml:"id"`
	Label    string          `yaml:"label,omitempty"`
	Type     string          `yaml:"type"`
	Disabled bool            `yaml:"disabled,omitempty"`
	Hidden   bool            `yaml:"hidden,omitempty"`
	Toggle   string          `yaml:"toggle,omitempty"`
	Checked  bool            `yaml:"checked,omitempty"`
	Shortcut string          `yaml:"shortcut,omitempty"`
	Icon     string          `yaml:"icon,omitempty"`
	Items    []dumpNode      `yaml:"items,omitempty"`
}

// `traymenu dump`
func dumpCmd(c *cli) *cobra.Command {
	var (
		format  string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Mirror the exported menu once and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "yaml" {
				return fmt.Errorf("unknown format %q", format)
			}
			token, err := c.token()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			l := loop.New()
			client, err := ipc.Dial(ctx, l, c.endpoint(), token)
			if err != nil {
				return err
			}
			defer client.Close()

			nodes, err := mirrorOnce(l, client, timeout)
			if err != nil {
				return err
			}
			return writeDump(cmd.OutOrStdout(), format, nodes)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or yaml")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "how long to wait for the exporter")
	return cmd
}

// mirrorOnce imports the menu served on conn, opens every submenu once and
// returns the resulting tree. It drives l itself and must not be called while
// l is running elsewhere.
func mirrorOnce(l *loop.Loop, conn bus.Conn, timeout time.Duration) ([]dumpNode, error) {
	imp := importer.New(l, conn)
	defer func() {
		imp.Close()
		l.ProcessEvents()
	}()
	imp.SetTimeouts(timeout, timeout)

	root := imp.Menu()
	loaded := false
	imp.OnMenuUpdated(func(m *menu.Menu) {
		if m == root {
			loaded = true
		}
	})
	if !l.WaitFor(func() bool { return loaded }, timeout) {
		return nil, errors.New("exporter did not publish a menu before timeout")
	}
	return collect(imp, root), nil
}

func collect(imp *importer.Importer, m *menu.Menu) []dumpNode {
	var nodes []dumpNode
	for _, a := range m.Actions() {
		node := dumpNode{
			ID:       imp.ItemID(a),
			Label:    menu.PlainText(a.Text()),
			Type:     a.Kind().String(),
			Disabled: !a.IsEnabled(),
			Hidden:   !a.IsVisible(),
			Checked:  a.IsChecked(),
			Icon:     a.IconName(),
		}
		if !a.Shortcut().IsEmpty() {
			node.Shortcut = a.Shortcut().String()
		}
		switch {
		case a.IsCheckable() && a.Group() != nil && a.Group().IsExclusive():
			node.Toggle = protocol.ToggleRadio
		case a.IsCheckable():
			node.Toggle = protocol.ToggleCheckmark
		}
		if sub := a.Submenu(); sub != nil {
			sub.EmitAboutToShow()
			if imp.Closed() || sub.IsDestroyed() {
				nodes = append(nodes, node)
				continue
			}
			node.Type = "submenu"
			node.Items = collect(imp, sub)
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func writeDump(w io.Writer, format string, nodes []dumpNode) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(nodes); err != nil {
			return err
		}
		return enc.Close()
	}
	writeText(w, nodes, 0)
	return nil
}

func writeText(w io.Writer, nodes []dumpNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		if n.Type == menu.KindSeparator.String() {
			fmt.Fprintf(w, "%s----\n", indent)
			continue
		}
		var flags []string
		switch n.Toggle {
		case protocol.ToggleRadio:
			flags = append(flags, mark(n.Checked, "(*)", "( )"))
		case protocol.ToggleCheckmark:
			flags = append(flags, mark(n.Checked, "[x]", "[ ]"))
		}
		line := strings.TrimSpace(strings.Join(flags, " ") + " " + n.Label)
		if n.Shortcut != "" {
			line += "\t" + n.Shortcut
		}
		if n.Disabled {
			line += " (disabled)"
		}
		if n.Hidden {
			line += " (hidden)"
		}
		fmt.Fprintf(w, "%s%s\n", indent, line)
		writeText(w, n.Items, depth+1)
	}
}

func mark(on bool, yes, no string) string {
	if on {
		return yes
	}
	return no
}
