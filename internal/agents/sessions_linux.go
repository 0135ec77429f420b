//go:build linux

package agents

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

const pollInterval = 5 * time.Second

var sessionProps = []string{"Name", "UID", "GID", "Display", "Remote", "Active", "Type", "RuntimePath", "TTY"}

// logind polls loginctl for active local sessions.
type logind struct {
	run      func(ctx context.Context, args ...string) ([]byte, error)
	interval time.Duration

	mu     sync.Mutex
	closed bool
	stop   chan struct{}
}

// NewSessions returns a logind backed session tracker.
func NewSessions() (Sessions, error) {
	path, err := exec.LookPath("loginctl")
	if err != nil {
		return nil, fmt.Errorf("loginctl not found: %w", err)
	}
	return &logind{
		run: func(ctx context.Context, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, path, args...).CombinedOutput()
		},
		interval: pollInterval,
		stop:     make(chan struct{}),
	}, nil
}

func (m *logind) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.stop)
	}
	return nil
}

func (m *logind) List() ([]Session, error) {
	current, err := m.enumerate(context.Background())
	if err != nil {
		return nil, err
	}
	out := make([]Session, 0, len(current))
	for _, sess := range current {
		out = append(out, sess)
	}
	return out, nil
}

func (m *logind) Watch(stop <-chan struct{}) (<-chan Event, error) {
	events := make(chan Event, 8)
	go m.poll(stop, events)
	return events, nil
}

func (m *logind) poll(stop <-chan struct{}, events chan<- Event) {
	defer close(events)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
		case <-m.stop:
		}
		cancel()
	}()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	previous := map[string]Session{}
	for {
		current, err := m.enumerate(ctx)
		var batch []Event
		if err != nil {
			batch = []Event{{Type: EventError, Err: err}}
		} else {
			batch = diff(previous, current)
			previous = current
		}
		for _, ev := range batch {
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (m *logind) enumerate(ctx context.Context) (map[string]Session, error) {
	raw, err := m.run(ctx, "list-sessions", "--no-legend")
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	out := make(map[string]Session)
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		id := fields[0]
		props, err := m.properties(ctx, id)
		if err != nil {
			log.Printf("agents: session %s properties: %v", id, err)
			continue
		}
		if sess, ok := sessionFromProperties(id, props); ok {
			out[id] = sess
		}
	}
	return out, scanner.Err()
}

func (m *logind) properties(ctx context.Context, id string) (map[string]string, error) {
	args := []string{"show-session", id}
	for _, name := range sessionProps {
		args = append(args, "-p", name)
	}
	raw, err := m.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	props := parseProperties(raw)
	if props["Name"] == "" {
		return nil, errors.New("session name missing")
	}
	return props, nil
}

// parseProperties reads loginctl's Key=Value lines.
func parseProperties(raw []byte) map[string]string {
	props := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if ok {
			props[key] = strings.TrimSpace(value)
		}
	}
	return props
}

// sessionFromProperties keeps active local sessions only.
func sessionFromProperties(id string, props map[string]string) (Session, bool) {
	if !strings.EqualFold(props["Active"], "yes") || strings.EqualFold(props["Remote"], "yes") {
		return Session{}, false
	}
	uid, err := strconv.ParseUint(props["UID"], 10, 32)
	if err != nil {
		return Session{}, false
	}
	gid, err := strconv.ParseUint(props["GID"], 10, 32)
	if err != nil {
		return Session{}, false
	}

	runtimeDir := props["RuntimePath"]
	if runtimeDir == "" {
		runtimeDir = "/run/user/" + props["UID"]
	}
	display := props["Display"]
	if display == "" && props["Type"] == "x11" && props["TTY"] != "" {
		display = ":0"
	}
	env := map[string]string{
		"XDG_RUNTIME_DIR":          runtimeDir,
		"DBUS_SESSION_BUS_ADDRESS": "unix:path=" + runtimeDir + "/bus",
	}
	if display != "" {
		env["DISPLAY"] = display
	}
	return Session{
		ID:         id,
		User:       props["Name"],
		UID:        uint32(uid),
		GID:        uint32(gid),
		RuntimeDir: runtimeDir,
		Display:    display,
		Env:        env,
	}, true
}
