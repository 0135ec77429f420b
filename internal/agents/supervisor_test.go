package agents

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	list   []Session
	events chan Event
	closed chan struct{}
	once   sync.Once
}

func newFakeSessions(list ...Session) *fakeSessions {
	return &fakeSessions{list: list, events: make(chan Event, 10), closed: make(chan struct{})}
}

func (m *fakeSessions) List() ([]Session, error) {
	return append([]Session(nil), m.list...), nil
}

func (m *fakeSessions) Watch(stop <-chan struct{}) (<-chan Event, error) {
	ch := make(chan Event)
	go func() {
		defer close(ch)
		for {
			select {
			case <-stop:
				return
			case ev := <-m.events:
				select {
				case ch <- ev:
				case <-stop:
					return
				}
			}
		}
	}()
	return ch, nil
}

func (m *fakeSessions) Close() error {
	m.once.Do(func() { close(m.closed) })
	return nil
}

type fakeProcess struct {
	mu    sync.Mutex
	done  chan struct{}
	err   error
	stops int
}

func newFakeProcess() *fakeProcess {
	return &fakeProcess{done: make(chan struct{})}
}

func (p *fakeProcess) Done() <-chan struct{} { return p.done }

func (p *fakeProcess) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *fakeProcess) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
	p.exitLocked(context.Canceled)
	return nil
}

func (p *fakeProcess) Exit(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exitLocked(err)
}

func (p *fakeProcess) exitLocked(err error) {
	select {
	case <-p.done:
	default:
		p.err = err
		close(p.done)
	}
}

func (p *fakeProcess) Stops() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stops
}

type launches struct {
	mu      sync.Mutex
	procs   []*fakeProcess
	targets []Target
}

func (l *launches) launch(ctx context.Context, sess Session, target Target) (Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p := newFakeProcess()
	l.procs = append(l.procs, p)
	l.targets = append(l.targets, target)
	return p, nil
}

func (l *launches) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.procs)
}

func (l *launches) proc(i int) *fakeProcess {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.procs[i]
}

func startSupervisor(t *testing.T, sessions *fakeSessions, l *launches) (*Supervisor, context.CancelFunc, chan error) {
	t.Helper()
	sup := NewSupervisor(sessions, l.launch, Target{Addr: "127.0.0.1:1", Token: "tok"})
	sup.SetRestartDelay(20 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()
	t.Cleanup(cancel)
	return sup, cancel, done
}

func TestSupervisorLaunchesInitialSessions(t *testing.T) {
	l := &launches{}
	sup, _, _ := startSupervisor(t, newFakeSessions(Session{ID: "1", User: "alice"}), l)

	require.Eventually(t, func() bool { return l.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	l.mu.Lock()
	assert.Equal(t, Target{Addr: "127.0.0.1:1", Token: "tok"}, l.targets[0])
	l.mu.Unlock()
	assert.Eventually(t, func() bool { return sup.Running() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestSupervisorStopsOnSessionRemoval(t *testing.T) {
	sess := Session{ID: "2", User: "bob"}
	sessions := newFakeSessions(sess)
	l := &launches{}
	sup, _, _ := startSupervisor(t, sessions, l)
	require.Eventually(t, func() bool { return l.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	sessions.events <- Event{Type: EventRemoved, Session: sess}

	require.Eventually(t, func() bool { return l.proc(0).Stops() > 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return sup.Running() == 0 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, l.count())
}

func TestSupervisorRestartsAfterFailure(t *testing.T) {
	l := &launches{}
	startSupervisor(t, newFakeSessions(Session{ID: "3", User: "carol"}), l)
	require.Eventually(t, func() bool { return l.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	l.proc(0).Exit(errors.New("exit status 1"))

	assert.Eventually(t, func() bool { return l.count() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestSupervisorDoesNotRestartCleanExit(t *testing.T) {
	l := &launches{}
	sup, _, _ := startSupervisor(t, newFakeSessions(Session{ID: "4", User: "dan"}), l)
	require.Eventually(t, func() bool { return l.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	l.proc(0).Exit(nil)

	require.Eventually(t, func() bool { return sup.Running() == 0 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, l.count())
}

func TestSupervisorRelaunchesUpdatedSession(t *testing.T) {
	sess := Session{ID: "5", User: "erin", Display: ":0"}
	sessions := newFakeSessions(sess)
	l := &launches{}
	startSupervisor(t, sessions, l)
	require.Eventually(t, func() bool { return l.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	sessions.events <- Event{Type: EventUpdated, Session: sess}
	sess.Display = ":1"
	sessions.events <- Event{Type: EventUpdated, Session: sess}

	require.Eventually(t, func() bool { return l.count() == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, l.proc(0).Stops())
}

func TestSupervisorStopsEverythingOnCancel(t *testing.T) {
	sessions := newFakeSessions(Session{ID: "6"}, Session{ID: "7"})
	l := &launches{}
	_, cancel, done := startSupervisor(t, sessions, l)
	require.Eventually(t, func() bool { return l.count() == 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop")
	}
	assert.Equal(t, 1, l.proc(0).Stops())
	assert.Equal(t, 1, l.proc(1).Stops())
	select {
	case <-sessions.closed:
	default:
		t.Fatal("sessions were not closed")
	}
}

func TestDiff(t *testing.T) {
	a := Session{ID: "a", Env: map[string]string{"DISPLAY": ":0"}}
	b := Session{ID: "b"}
	changed := a
	changed.Env = map[string]string{"DISPLAY": ":1"}

	events := diff(map[string]Session{"a": a, "b": b}, map[string]Session{"a": changed, "c": {ID: "c"}})
	types := map[string]EventType{}
	for _, ev := range events {
		types[ev.Session.ID] = ev.Type
	}
	assert.Equal(t, map[string]EventType{"a": EventUpdated, "b": EventRemoved, "c": EventAdded}, types)
	assert.Equal(t, EventRemoved, events[len(events)-1].Type)

	assert.Empty(t, diff(map[string]Session{"a": a}, map[string]Session{"a": a}))
}

func TestSessionEnvCarriesTokenFile(t *testing.T) {
	env := sessionEnv([]string{"PATH=/bin"}, Session{RuntimeDir: "/run/user/1000", Display: ":0"}, "/tmp/tok")
	assert.Equal(t, "PATH=/bin", env[0])
	assert.Contains(t, env, "XDG_RUNTIME_DIR=/run/user/1000")
	assert.Contains(t, env, "DISPLAY=:0")
	assert.Equal(t, "TRAYMENU_SERVICE_TOKEN_FILE=/tmp/tok", env[len(env)-1])
}

func TestWriteTokenFile(t *testing.T) {
	_, err := writeTokenFile(Session{RuntimeDir: t.TempDir()}, "")
	assert.Error(t, err)

	dir := t.TempDir()
	path, err := writeTokenFile(Session{RuntimeDir: dir}, "secret-token")
	require.NoError(t, err)
	assert.FileExists(t, path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", string(data))
}
