package bus

// Pending is the handle of one in-flight call. It completes exactly once.
type Pending struct {
	Serial uint32
	Method string

	finished bool
	values   []any
	err      error
	onFinish []func(*Pending)
}

// NewPending returns an unfinished handle. Transports call Finish on it.
func NewPending(serial uint32, method string) *Pending {
	return &Pending{Serial: serial, Method: method}
}

// Finished reports whether the reply, or an error, has arrived.
func (p *Pending) Finished() bool { return p.finished }

// Values returns the reply values. It is nil until Finished.
func (p *Pending) Values() []any { return p.values }

// Err returns the call error, if any.
func (p *Pending) Err() error { return p.err }

// Value returns reply value i or nil.
func (p *Pending) Value(i int) any {
	if i < 0 || i >= len(p.values) {
		return nil
	}
	return p.values[i]
}

// OnFinish registers fn to run when the call completes. When the call has
// already completed fn runs immediately.
func (p *Pending) OnFinish(fn func(*Pending)) {
	if p.finished {
		fn(p)
		return
	}
	p.onFinish = append(p.onFinish, fn)
}

// Finish completes the call. Later calls are ignored.
func (p *Pending) Finish(values []any, err error) {
	if p.finished {
		return
	}
	p.finished = true
	p.values = values
	p.err = err
	callbacks := p.onFinish
	p.onFinish = nil
	for _, fn := range callbacks {
		fn(p)
	}
}
