package source

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/example/traymenu/internal/config"
	"github.com/example/traymenu/internal/logging"
	"github.com/example/traymenu/internal/loop"
)

const defaultRefreshInterval = 30 * time.Second

// Runner loads the configuration from its store and applies it to a Source on
// the source's loop: once at start, whenever the config file changes, on a
// refresh ticker and on request.
type Runner struct {
	loop   *loop.Loop
	source *Source
	store  *config.Store
	secret string

	refreshInterval time.Duration
	refreshRequests chan struct{}
	seedDefaults    bool
}

// NewRunner constructs a runner. When the stored configuration is empty it is
// seeded with DefaultItems.
func NewRunner(l *loop.Loop, src *Source, store *config.Store, secret string) *Runner {
	return &Runner{
		loop:            l,
		source:          src,
		store:           store,
		secret:          secret,
		refreshInterval: defaultRefreshInterval,
		refreshRequests: make(chan struct{}, 1),
		seedDefaults:    true,
	}
}

// SetRefreshInterval changes the polling period. It must be called before
// Start.
func (r *Runner) SetRefreshInterval(d time.Duration) {
	if d > 0 {
		r.refreshInterval = d
	}
}

// SetSeedDefaults controls whether an empty configuration is seeded.
func (r *Runner) SetSeedDefaults(on bool) { r.seedDefaults = on }

// Refresh asks a running runner to reload the configuration.
func (r *Runner) Refresh() {
	select {
	case r.refreshRequests <- struct{}{}:
	default:
	}
}

// Start performs an initial sync and then keeps the menu in step until ctx is
// canceled.
func (r *Runner) Start(ctx context.Context) error {
	logging.Debugf("menu runner initialising with refresh interval %s", r.refreshInterval)
	if err := r.SyncOnce(); err != nil {
		log.Printf("initial sync failed: %v", err)
	}

	var events <-chan fsnotify.Event
	var errs <-chan error
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("unable to create config watcher: %v", err)
	} else {
		defer watcher.Close()
		if err := watcher.Add(filepath.Dir(r.store.Path())); err != nil {
			log.Printf("unable to watch %s: %v", filepath.Dir(r.store.Path()), err)
		} else {
			events, errs = watcher.Events, watcher.Errors
		}
	}
	target := filepath.Clean(r.store.Path())

	ticker := time.NewTicker(r.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.SyncOnce(); err != nil {
				log.Printf("menu refresh failed: %v", err)
			}
		case <-r.refreshRequests:
			logging.Debugf("manual refresh requested")
			if err := r.SyncOnce(); err != nil {
				log.Printf("manual menu refresh failed: %v", err)
			}
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if event.Op&fsnotify.Chmod == fsnotify.Chmod || filepath.Clean(event.Name) != target {
				continue
			}
			logging.Debugf("config file changed (%s)", event.Op)
			if err := r.SyncOnce(); err != nil {
				log.Printf("menu reload failed: %v", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logging.Debugf("config watcher error: %v", err)
		}
	}
}

// SyncOnce loads the configuration and posts it to the source's loop.
func (r *Runner) SyncOnce() error {
	cfg, err := r.store.Load(r.secret)
	if err != nil {
		return err
	}
	logging.Debugf("loaded %d menu items from configuration", len(cfg.Items))

	if len(cfg.Items) == 0 && r.seedDefaults {
		cfg.Items = DefaultItems()
		if err := r.store.Save(cfg, r.secret); err != nil {
			return fmt.Errorf("seed defaults: %w", err)
		}
		log.Printf("created a fresh configuration with %d default items", len(cfg.Items))
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	r.loop.Post(func() { r.source.Apply(cfg) })
	return nil
}
