//go:build !unix

// File: reactor/poll_stub.go
// Author: momentics <momentics@gmail.com>

package reactor

import (
	"fmt"

	"github.com/momentics/hioload-relay/api"
)

func newPoll() (api.Multiplexer, error) {
	return nil, fmt.Errorf("reactor: poll on this platform: %w", api.ErrNotSupported)
}
