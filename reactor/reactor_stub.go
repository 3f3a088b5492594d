//go:build !linux
// +build !linux

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
//
// epoll is Linux-only; other platforms fall back to poll(2).

package reactor

import (
	"fmt"

	"github.com/momentics/hioload-relay/api"
)

// DefaultKind returns the preferred multiplexer on this platform.
func DefaultKind() Kind { return KindPoll }

func newEpoll(int) (api.Multiplexer, error) {
	return nil, fmt.Errorf("reactor: epoll on this platform: %w", api.ErrNotSupported)
}
