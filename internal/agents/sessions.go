// Package agents keeps one tray client running in every interactive desktop
// session for as long as the menu service runs.
package agents

import (
	"errors"
	"maps"
)

// EventType classifies a session change.
type EventType int

const (
	EventAdded EventType = iota + 1
	EventRemoved
	// EventUpdated reports a session whose display or environment changed.
	EventUpdated
	// EventError carries a transient enumeration failure.
	EventError
)

func (t EventType) String() string {
	switch t {
	case EventAdded:
		return "added"
	case EventRemoved:
		return "removed"
	case EventUpdated:
		return "updated"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Session is an interactive desktop session that can host a tray client.
type Session struct {
	ID         string
	User       string
	UID        uint32
	GID        uint32
	RuntimeDir string
	Display    string
	Env        map[string]string
}

// Equal reports whether both values describe the same running session.
func (s Session) Equal(other Session) bool {
	return s.ID == other.ID &&
		s.User == other.User &&
		s.UID == other.UID &&
		s.GID == other.GID &&
		s.RuntimeDir == other.RuntimeDir &&
		s.Display == other.Display &&
		maps.Equal(s.Env, other.Env)
}

// Event is one observed session change.
type Event struct {
	Type    EventType
	Session Session
	Err     error
}

// Sessions enumerates and watches interactive sessions.
type Sessions interface {
	List() ([]Session, error)
	Watch(stop <-chan struct{}) (<-chan Event, error)
	Close() error
}

// ErrUnavailable reports a platform without session tracking.
var ErrUnavailable = errors.New("agents: session tracking unavailable on this platform")

// diff lists the events that turn previous into current. Removals come last.
func diff(previous, current map[string]Session) []Event {
	var events []Event
	for id, sess := range current {
		old, ok := previous[id]
		switch {
		case !ok:
			events = append(events, Event{Type: EventAdded, Session: sess})
		case !sess.Equal(old):
			events = append(events, Event{Type: EventUpdated, Session: sess})
		}
	}
	for id, sess := range previous {
		if _, ok := current[id]; !ok {
			events = append(events, Event{Type: EventRemoved, Session: sess})
		}
	}
	return events
}
