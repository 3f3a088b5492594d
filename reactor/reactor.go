// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral multiplexer factory.

package reactor

import (
	"fmt"
	"time"

	"github.com/momentics/hioload-relay/api"
)

// Kind names a multiplexer implementation.
type Kind string

const (
	KindEpoll Kind = "epoll"
	KindPoll  Kind = "poll"
)

// DefaultMaxEvents bounds how many readiness events one epoll wait returns.
const DefaultMaxEvents = 128

// ParseKind validates a multiplexer name. The empty string selects the
// platform default.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "":
		return DefaultKind(), nil
	case KindEpoll, KindPoll:
		return Kind(s), nil
	}
	return "", fmt.Errorf("reactor: unknown multiplexer %q: %w", s, api.ErrInvalidArgument)
}

// New constructs the requested multiplexer.
func New(kind Kind) (api.Multiplexer, error) {
	switch kind {
	case KindEpoll:
		return newEpoll(DefaultMaxEvents)
	case KindPoll:
		return newPoll()
	case "":
		return New(DefaultKind())
	}
	return nil, fmt.Errorf("reactor: unknown multiplexer %q: %w", kind, api.ErrInvalidArgument)
}

// timeoutMillis converts a wait timeout to the millisecond form the
// syscalls take; negative means block.
func timeoutMillis(d time.Duration) int {
	if d < 0 {
		return -1
	}
	ms := d.Milliseconds()
	if ms == 0 && d > 0 {
		ms = 1
	}
	return int(ms)
}
