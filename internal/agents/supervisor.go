package agents

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/example/traymenu/internal/logging"
)

const defaultRestartDelay = 2 * time.Second

// Supervisor starts a tray client for every session reported by its
// Sessions, stops it when the session ends and restarts clients that fail.
type Supervisor struct {
	sessions Sessions
	launch   LaunchFunc
	target   Target

	mu           sync.Mutex
	ctx          context.Context
	restartDelay time.Duration
	agents       map[string]*agent
}

type agent struct {
	session Session
	proc    Process
	cancel  context.CancelFunc
}

// NewSupervisor constructs a supervisor. It takes ownership of sessions.
func NewSupervisor(sessions Sessions, launch LaunchFunc, target Target) *Supervisor {
	return &Supervisor{
		sessions:     sessions,
		launch:       launch,
		target:       target,
		restartDelay: defaultRestartDelay,
		agents:       make(map[string]*agent),
	}
}

// SetRestartDelay changes how long a failed client waits before restarting.
func (s *Supervisor) SetRestartDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d > 0 {
		s.restartDelay = d
	}
}

// Running returns the number of live clients.
func (s *Supervisor) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.agents)
}

// Run supervises until ctx is canceled or the session watch ends. Every
// client is stopped before it returns.
func (s *Supervisor) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.sessions.Close()

	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	defer s.stopAll()

	if current, err := s.sessions.List(); err != nil {
		log.Printf("agents: unable to enumerate sessions: %v", err)
	} else {
		for _, sess := range current {
			s.start(sess)
		}
	}

	events, err := s.sessions.Watch(ctx.Done())
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return ctx.Err()
			}
			s.handle(ev)
		}
	}
}

func (s *Supervisor) handle(ev Event) {
	logging.Debugf("agents: session %s %s", ev.Session.ID, ev.Type)
	switch ev.Type {
	case EventAdded, EventUpdated:
		s.start(ev.Session)
	case EventRemoved:
		s.stop(ev.Session.ID)
	case EventError:
		log.Printf("agents: session watch: %v", ev.Err)
	}
}

func (s *Supervisor) start(sess Session) {
	s.mu.Lock()
	if s.ctx == nil || s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	existing, ok := s.agents[sess.ID]
	if ok && existing.session.Equal(sess) {
		s.mu.Unlock()
		return
	}
	delete(s.agents, sess.ID)
	s.mu.Unlock()

	if existing != nil {
		s.halt(existing)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithCancel(s.ctx)
	proc, err := s.launch(ctx, sess, s.target)
	if err != nil {
		cancel()
		log.Printf("agents: launch tray for %s: %v", sess.User, err)
		return
	}
	a := &agent{session: sess, proc: proc, cancel: cancel}
	s.agents[sess.ID] = a
	log.Printf("agents: started tray for %s (session %s)", sess.User, sess.ID)
	go s.monitor(a)
}

func (s *Supervisor) stop(id string) {
	s.mu.Lock()
	a, ok := s.agents[id]
	delete(s.agents, id)
	s.mu.Unlock()
	if ok {
		s.halt(a)
	}
}

func (s *Supervisor) stopAll() {
	s.mu.Lock()
	running := make([]*agent, 0, len(s.agents))
	for id, a := range s.agents {
		delete(s.agents, id)
		running = append(running, a)
	}
	s.mu.Unlock()

	for _, a := range running {
		s.halt(a)
	}
}

func (s *Supervisor) halt(a *agent) {
	a.cancel()
	if err := a.proc.Stop(); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("agents: stop tray for %s: %v", a.session.User, err)
	}
}

// monitor restarts a client that exited with an error while its session is
// still tracked.
func (s *Supervisor) monitor(a *agent) {
	<-a.proc.Done()
	err := a.proc.Err()

	s.mu.Lock()
	current, tracked := s.agents[a.session.ID]
	if tracked && current == a {
		delete(s.agents, a.session.ID)
	}
	ctx, delay := s.ctx, s.restartDelay
	s.mu.Unlock()
	a.cancel()

	if ctx.Err() != nil || !tracked || current != a || err == nil {
		return
	}
	log.Printf("agents: tray for %s exited: %v", a.session.User, err)
	time.AfterFunc(delay, func() { s.start(a.session) })
}
