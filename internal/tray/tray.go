// Package tray shows an imported menu in the system tray.
package tray

import (
	"context"
	"log"
	"time"

	"github.com/mitchellh/hashstructure"

	"github.com/example/traymenu/internal/importer"
	"github.com/example/traymenu/internal/logging"
	"github.com/example/traymenu/internal/loop"
	"github.com/example/traymenu/internal/menu"
	"github.com/example/traymenu/internal/protocol"
)

// Entry is a render-ready copy of one mirror action.
type Entry struct {
	ID        protocol.ItemID
	Label     string
	Shortcut  string
	Separator bool
	Title     bool
	Enabled   bool
	Visible   bool
	Checkable bool
	Checked   bool
	Radio     bool
	Children  []Entry
}

// Update is one complete tray state handed to the renderer.
type Update struct {
	Entries []Entry
	Icon    []byte
	Tooltip string
}

// highlightDuration is how long an activation request stays in the tooltip.
const highlightDuration = 5 * time.Second

type trayController interface {
	Run(ctx context.Context, updates <-chan Update, click func(protocol.ItemID)) error
}

// Snapshot copies the visible state of m. ids resolves an action to its item
// id.
func Snapshot(m *menu.Menu, ids func(*menu.Action) protocol.ItemID) []Entry {
	if m == nil {
		return nil
	}
	entries := make([]Entry, 0, m.Len())
	for _, a := range m.Actions() {
		e := Entry{
			ID:        ids(a),
			Label:     menu.PlainText(a.Text()),
			Separator: a.IsSeparator(),
			Title:     a.Kind() == menu.KindTitle,
			Enabled:   a.IsEnabled(),
			Visible:   a.IsVisible(),
			Checkable: a.IsCheckable(),
			Checked:   a.IsChecked(),
			Radio:     a.Group() != nil && a.Group().IsExclusive(),
		}
		if !a.Shortcut().IsEmpty() {
			e.Shortcut = a.Shortcut().String()
		}
		if sub := a.Submenu(); sub != nil {
			e.Children = Snapshot(sub, ids)
		}
		entries = append(entries, e)
	}
	return entries
}

// Runner keeps a tray renderer in step with an importer's mirror. Submenus are
// populated eagerly because the tray cannot ask before showing them.
type Runner struct {
	loop    *loop.Loop
	imp     *importer.Importer
	icon    []byte
	tooltip string

	tray       trayController
	updates    chan Update
	render     *loop.Batch[protocol.ItemID]
	observed   map[*menu.Menu]func()
	lastDigest uint64

	// The tray cannot pop its menu open, so an activation request is shown
	// in the tooltip for highlightFor instead.
	highlighted    string
	highlightFor   time.Duration
	highlightTimer *loop.Timer
}

// NewRunner constructs a runner for the mirror of imp. imp must belong to l.
func NewRunner(l *loop.Loop, imp *importer.Importer, icon []byte, tooltip string) *Runner {
	r := &Runner{
		loop:     l,
		imp:      imp,
		icon:     normalizedIcon(icon),
		tooltip:  tooltip,
		tray:     newTrayController(),
		updates:  make(chan Update, 1),
		observed: make(map[*menu.Menu]func()),

		highlightFor: highlightDuration,
	}
	r.render = loop.NewBatch(l, func([]protocol.ItemID) { r.publish() })
	return r
}

// Start runs the loop and the tray until ctx is canceled or the tray exits.
func (r *Runner) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	trayErr := make(chan error, 1)
	go func() {
		trayErr <- r.tray.Run(ctx, r.updates, r.click)
		cancel()
	}()

	r.loop.Post(r.attach)
	err := r.loop.Run(ctx)
	r.detach()
	close(r.updates)

	select {
	case terr := <-trayErr:
		if terr != nil {
			return terr
		}
	default:
	}
	return err
}

func (r *Runner) attach() {
	r.imp.OnMenuUpdated(func(m *menu.Menu) {
		r.prepare(m)
		r.render.Add(protocol.RootID)
	})
	r.imp.OnActionActivationRequested(r.highlight)
	root := r.imp.Menu()
	r.prepare(root)
	root.EmitAboutToShow()
	r.render.Add(protocol.RootID)
}

// prepare observes m and schedules about-to-show for its submenus.
func (r *Runner) prepare(m *menu.Menu) {
	if _, ok := r.observed[m]; !ok {
		r.observed[m] = m.Subscribe(func(ev menu.Event) {
			if ev.Type == menu.EventDestroyed {
				delete(r.observed, ev.Menu)
			}
			r.render.Add(protocol.RootID)
		})
	}
	for _, a := range m.Actions() {
		sub := a.Submenu()
		if sub == nil {
			continue
		}
		if _, ok := r.observed[sub]; ok {
			continue
		}
		r.prepare(sub)
		r.loop.Post(func() {
			if !sub.IsDestroyed() && !r.imp.Closed() {
				sub.EmitAboutToShow()
			}
		})
	}
}

// highlight surfaces a in the tooltip until the highlight expires.
func (r *Runner) highlight(a *menu.Action) {
	logging.Debugf("tray: activation requested for %q", a.Text())
	r.highlightTimer.Stop()
	label := menu.PlainText(a.Text())
	r.highlighted = label
	r.render.Add(protocol.RootID)
	r.highlightTimer = r.loop.AfterFunc(r.highlightFor, func() {
		if r.highlighted == label {
			r.highlighted = ""
			r.render.Add(protocol.RootID)
		}
	})
}

func (r *Runner) currentTooltip() string {
	switch {
	case r.highlighted == "":
		return r.tooltip
	case r.tooltip == "":
		return r.highlighted
	default:
		return r.tooltip + ": " + r.highlighted
	}
}

func (r *Runner) detach() {
	for m, cancel := range r.observed {
		cancel()
		delete(r.observed, m)
	}
	r.highlightTimer.Stop()
	r.render.Discard()
}

func (r *Runner) publish() {
	entries := Snapshot(r.imp.Menu(), r.imp.ItemID)
	tooltip := r.currentTooltip()
	digest, err := hashstructure.Hash(struct {
		Entries []Entry
		Tooltip string
	}{entries, tooltip}, nil)
	if err != nil {
		log.Printf("tray: unable to digest menu: %v", err)
	}
	if err == nil && digest == r.lastDigest {
		return
	}
	r.lastDigest = digest
	logging.Debugf("tray: publishing %d entries (digest=%d)", len(entries), digest)

	update := Update{Entries: entries, Icon: cloneIcon(r.icon), Tooltip: tooltip}
	select {
	case r.updates <- update:
	default:
		select {
		case <-r.updates:
		default:
		}
		select {
		case r.updates <- update:
		default:
		}
	}
}

// click is called by the renderer from its own goroutine.
func (r *Runner) click(id protocol.ItemID) {
	r.loop.Post(func() {
		a, ok := r.imp.Action(id)
		if !ok {
			logging.Debugf("tray: click on stale item %d", id)
			return
		}
		a.Trigger()
	})
}
