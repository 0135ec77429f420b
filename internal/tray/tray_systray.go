//go:build cgo || windows

package tray

import (
	"context"
	"runtime"
	"sync"

	"github.com/getlantern/systray"

	"github.com/example/traymenu/internal/protocol"
)

type systrayController struct {
	mu      sync.Mutex
	entries []trayEntry
}

type trayEntry struct {
	item   *systray.MenuItem
	cancel context.CancelFunc
}

func newTrayController() trayController {
	return &systrayController{}
}

func (c *systrayController) Run(ctx context.Context, updates <-chan Update, click func(protocol.ItemID)) error {
	done := make(chan struct{})

	go systray.Run(func() {
		quit := systray.AddMenuItem("Quit", "Exit the tray")
		go func() {
			for {
				select {
				case <-ctx.Done():
					systray.Quit()
					return
				case <-quit.ClickedCh:
					systray.Quit()
					return
				}
			}
		}()

		go c.listen(ctx, updates, click)
	}, func() {
		c.shutdown()
		close(done)
	})

	select {
	case <-ctx.Done():
		systray.Quit()
		<-done
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (c *systrayController) listen(ctx context.Context, updates <-chan Update, click func(protocol.ItemID)) {
	for {
		select {
		case <-ctx.Done():
			systray.Quit()
			return
		case update, ok := <-updates:
			if !ok {
				systray.Quit()
				return
			}
			c.apply(ctx, update, click)
		}
	}
}

func (c *systrayController) apply(ctx context.Context, update Update, click func(protocol.ItemID)) {
	if len(update.Icon) > 0 {
		systray.SetIcon(update.Icon)
		if runtime.GOOS == "darwin" {
			setTemplateIcon(update.Icon)
		}
	}
	if update.Tooltip != "" {
		systray.SetTooltip(update.Tooltip)
	}

	c.mu.Lock()
	old := c.entries
	c.entries = nil
	c.mu.Unlock()

	// systray cannot remove items, so the previous generation is hidden.
	for _, entry := range old {
		entry.cancel()
		if entry.item != nil {
			entry.item.Hide()
		}
	}

	fresh := c.addEntries(ctx, update.Entries, nil, click)

	c.mu.Lock()
	c.entries = fresh
	c.mu.Unlock()
}

func (c *systrayController) addEntries(ctx context.Context, entries []Entry, parent *systray.MenuItem, click func(protocol.ItemID)) []trayEntry {
	out := make([]trayEntry, 0, len(entries))
	for _, e := range entries {
		if !e.Visible {
			continue
		}
		if e.Separator {
			if parent == nil {
				systray.AddSeparator()
				continue
			}
			mi := parent.AddSubMenuItem("—", "")
			mi.Disable()
			out = append(out, trayEntry{item: mi, cancel: func() {}})
			continue
		}

		mi := makeMenuItem(parent, e)
		if e.Checkable && e.Checked {
			mi.Check()
		}
		if !e.Enabled || e.Title {
			mi.Disable()
		}

		ctxItem, cancel := context.WithCancel(ctx)
		out = append(out, trayEntry{item: mi, cancel: cancel})
		if len(e.Children) > 0 || e.Title {
			go drainClicks(ctxItem, mi.ClickedCh)
			out = append(out, c.addEntries(ctx, e.Children, mi, click)...)
			continue
		}
		go func(ch <-chan struct{}, id protocol.ItemID) {
			for {
				select {
				case <-ctxItem.Done():
					return
				case _, ok := <-ch:
					if !ok {
						return
					}
					click(id)
				}
			}
		}(mi.ClickedCh, e.ID)
	}
	return out
}

func makeMenuItem(parent *systray.MenuItem, e Entry) *systray.MenuItem {
	if parent == nil {
		return systray.AddMenuItem(e.Label, e.Shortcut)
	}
	return parent.AddSubMenuItem(e.Label, e.Shortcut)
}

func drainClicks(ctx context.Context, ch <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
		}
	}
}

func (c *systrayController) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entry := range c.entries {
		entry.cancel()
	}
	c.entries = nil
}
