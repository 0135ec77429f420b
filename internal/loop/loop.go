package loop

import (
	"context"
	"sync"
	"time"
)

// Loop is a single-threaded task queue. Menu trees, item tables and pending
// call maps are only touched from tasks run by the loop, so none of them need
// locks. Post is the only method that may be called from other goroutines.
type Loop struct {
	mu       sync.Mutex
	queue    []func()
	deferred []func()
	wake     chan struct{}

	// depth counts active WaitFor calls. Only the loop goroutine touches it.
	depth int
}

// New constructs an empty loop.
func New() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post queues fn to run on the loop. Safe for concurrent use.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Defer queues fn to run once control is back at the outermost level of the
// loop: from ProcessEvents or Run, never from inside WaitFor. Objects that may
// still be in use by a caller blocked in WaitFor are destroyed this way. Safe
// for concurrent use.
func (l *Loop) Defer(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.deferred = append(l.deferred, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Timer is a pending AfterFunc task.
type Timer struct {
	t *time.Timer
}

// Stop prevents the task from being posted. It reports whether the timer was
// still pending.
func (t *Timer) Stop() bool {
	if t == nil || t.t == nil {
		return false
	}
	return t.t.Stop()
}

// AfterFunc posts fn to the loop once d has elapsed.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Timer {
	if d <= 0 {
		l.Post(fn)
		return &Timer{}
	}
	return &Timer{t: time.AfterFunc(d, func() { l.Post(fn) })}
}

// Pending reports the number of queued tasks, deferred ones included.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue) + len(l.deferred)
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

func (l *Loop) nextDeferred() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.deferred) == 0 {
		return nil, false
	}
	fn := l.deferred[0]
	l.deferred[0] = nil
	l.deferred = l.deferred[1:]
	return fn, true
}

// ProcessEvents runs queued tasks on the calling goroutine until the queue is
// empty, including tasks posted by the tasks it runs. Deferred tasks run once
// the regular queue is drained, unless ProcessEvents was reached from inside
// WaitFor. It returns the number of tasks executed.
func (l *Loop) ProcessEvents() int {
	count := 0
	for {
		fn, ok := l.next()
		if !ok && l.depth == 0 {
			fn, ok = l.nextDeferred()
		}
		if !ok {
			return count
		}
		fn()
		count++
	}
}

// Run processes tasks until ctx is canceled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.ProcessEvents()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// WaitFor re-enters the loop, running queued tasks until done reports true or
// timeout elapses. It reports whether done became true. Deferred tasks are
// held back until the outermost level.
//
// Any task may run while waiting, including one that tears down the caller.
// Callers must re-check their own liveness before touching state after
// WaitFor returns.
func (l *Loop) WaitFor(done func() bool, timeout time.Duration) bool {
	l.depth++
	defer func() { l.depth-- }()

	deadline := time.Now().Add(timeout)
	for {
		if done() {
			return true
		}
		if fn, ok := l.next(); ok {
			fn()
			continue
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return done()
		}
		timer := time.NewTimer(remaining)
		select {
		case <-l.wake:
		case <-timer.C:
		}
		timer.Stop()
	}
}
