//go:build !linux
// +build !linux

// File: transport/tcp/listener_stub.go
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"fmt"

	"github.com/momentics/hioload-relay/api"
)

// Network is unavailable on this platform.
type Network struct {
	NoDelay bool
}

// Listen always fails with api.ErrNotSupported.
func (Network) Listen(host string, port, backlog int) (api.Listener, error) {
	return nil, fmt.Errorf("tcp: raw sockets on this platform: %w", api.ErrNotSupported)
}
