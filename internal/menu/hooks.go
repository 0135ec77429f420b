package menu

// hooks is an ordered set of callbacks that can be removed individually, even
// while they are being run.
type hooks[F any] struct {
	next    int
	entries []hookEntry[F]
}

type hookEntry[F any] struct {
	id int
	fn F
}

func (h *hooks[F]) add(fn F) func() {
	h.next++
	id := h.next
	h.entries = append(h.entries, hookEntry[F]{id: id, fn: fn})
	return func() { h.remove(id) }
}

func (h *hooks[F]) remove(id int) {
	for i, entry := range h.entries {
		if entry.id == id {
			h.entries = append(h.entries[:i:i], h.entries[i+1:]...)
			return
		}
	}
}

func (h *hooks[F]) snapshot() []F {
	out := make([]F, len(h.entries))
	for i, entry := range h.entries {
		out[i] = entry.fn
	}
	return out
}

func (h *hooks[F]) len() int {
	return len(h.entries)
}

func (h *hooks[F]) clear() {
	h.entries = nil
}
