package server

import (
	"fmt"
	"time"

	"github.com/momentics/hioload-relay/api"
	"github.com/momentics/hioload-relay/reactor"
)

// Config holds the relay loop parameters.
type Config struct {
	Host              string        // bind address
	Port              int           // TCP port, 0 picks an ephemeral one
	ReceiveBufferSize int           // bytes per read, one read is one broadcast unit
	Backlog           int           // listen backlog
	PollTimeout       time.Duration // upper bound of one multiplexer wait, must be > 0
	Multiplexer       string        // "epoll" or "poll", empty for the platform default
	CPU               int           // pin the loop thread to this CPU, -1 = no pinning
}

// DefaultConfig returns the stock relay settings.
func DefaultConfig() *Config {
	return &Config{
		Host:              "192.168.1.13",
		Port:              8080,
		ReceiveBufferSize: 4096,
		Backlog:           5,
		PollTimeout:       100 * time.Millisecond,
		Multiplexer:       "",
		CPU:               -1,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Port < 0 || c.Port > 65535:
		return fmt.Errorf("port %d out of range: %w", c.Port, api.ErrInvalidArgument)
	case c.ReceiveBufferSize <= 0:
		return fmt.Errorf("receive_buffer_size must be > 0: %w", api.ErrInvalidArgument)
	case c.Backlog <= 0:
		return fmt.Errorf("backlog must be > 0: %w", api.ErrInvalidArgument)
	case c.PollTimeout <= 0:
		// ctx is only checked between waits
		return fmt.Errorf("poll_timeout must be > 0: %w", api.ErrInvalidArgument)
	case c.CPU < -1:
		return fmt.Errorf("cpu %d: %w", c.CPU, api.ErrInvalidArgument)
	}
	if _, err := reactor.ParseKind(c.Multiplexer); err != nil {
		return err
	}
	return nil
}

// endpointKind tags the two roles a ready descriptor can play.
type endpointKind uint8

const (
	endpointListener endpointKind = iota + 1
	endpointPeer
)

// endpoint is a readiness result resolved against loop state. Resolution
// happens once per cycle, before any handling, so a descriptor number reused
// mid-cycle can never be mistaken for the peer that previously owned it.
type endpoint struct {
	kind endpointKind
	peer *peer
}
