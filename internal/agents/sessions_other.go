//go:build !linux

package agents

// NewSessions is only implemented on Linux.
func NewSessions() (Sessions, error) {
	return nil, ErrUnavailable
}
