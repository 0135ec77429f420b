package bus

// Signals is a subscriber registry keyed by signal name. It is not safe for
// concurrent use.
type Signals struct {
	nextID int
	subs   map[string][]subscription
}

type subscription struct {
	id int
	fn func([]any)
}

// Subscribe registers fn for signal.
func (s *Signals) Subscribe(signal string, fn func(args []any)) (cancel func()) {
	if s.subs == nil {
		s.subs = make(map[string][]subscription)
	}
	s.nextID++
	id := s.nextID
	s.subs[signal] = append(s.subs[signal], subscription{id: id, fn: fn})
	return func() { s.remove(signal, id) }
}

func (s *Signals) remove(signal string, id int) {
	list := s.subs[signal]
	for i, sub := range list {
		if sub.id == id {
			s.subs[signal] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(s.subs[signal]) == 0 {
		delete(s.subs, signal)
	}
}

// Dispatch delivers args to every subscriber of signal registered before the
// call.
func (s *Signals) Dispatch(signal string, args []any) int {
	list := append([]subscription(nil), s.subs[signal]...)
	for _, sub := range list {
		sub.fn(args)
	}
	return len(list)
}

// Count returns the number of subscribers of signal.
func (s *Signals) Count(signal string) int {
	return len(s.subs[signal])
}

// Clear drops every subscription.
func (s *Signals) Clear() {
	s.subs = nil
}
