package loop

// Batch is an ordered pending set flushed on the next loop tick. Any number of
// Add calls within one quantum produce a single flush carrying every key, in
// first-insertion order.
type Batch[K comparable] struct {
	loop      *Loop
	flush     func([]K)
	keys      []K
	seen      map[K]struct{}
	scheduled bool
}

// NewBatch constructs a batch that calls flush on l.
func NewBatch[K comparable](l *Loop, flush func([]K)) *Batch[K] {
	return &Batch[K]{
		loop:  l,
		flush: flush,
		seen:  make(map[K]struct{}),
	}
}

// Add inserts key into the pending set and schedules a flush if none is
// scheduled yet.
func (b *Batch[K]) Add(key K) {
	if _, ok := b.seen[key]; !ok {
		b.seen[key] = struct{}{}
		b.keys = append(b.keys, key)
	}
	if b.scheduled {
		return
	}
	b.scheduled = true
	b.loop.Post(b.Flush)
}

// Contains reports whether key is waiting for the next flush.
func (b *Batch[K]) Contains(key K) bool {
	_, ok := b.seen[key]
	return ok
}

// Len returns the number of pending keys.
func (b *Batch[K]) Len() int {
	return len(b.keys)
}

// Flush delivers the pending keys immediately. A scheduled tick that finds the
// set empty does nothing.
func (b *Batch[K]) Flush() {
	b.scheduled = false
	if len(b.keys) == 0 {
		return
	}
	keys := b.keys
	b.keys = nil
	b.seen = make(map[K]struct{})
	b.flush(keys)
}

// Discard drops every pending key without flushing.
func (b *Batch[K]) Discard() {
	b.keys = nil
	b.seen = make(map[K]struct{})
}
