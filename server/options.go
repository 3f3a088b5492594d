// File: server/options.go
// Package server defines functional options for the relay Server.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"github.com/momentics/hioload-relay/api"
	"github.com/momentics/hioload-relay/control"
)

// ServerOption customizes server initialization.
type ServerOption func(*Server)

// WithObserver sets the sink for loop observations.
func WithObserver(o api.Observer) ServerOption {
	return func(s *Server) {
		if o != nil {
			s.obs = o
		}
	}
}

// WithNetwork replaces the socket capability used by Bind.
func WithNetwork(n api.Network) ServerOption {
	return func(s *Server) {
		s.network = n
	}
}

// WithMultiplexer supplies a ready multiplexer instead of building one from Config.
func WithMultiplexer(m api.Multiplexer) ServerOption {
	return func(s *Server) {
		s.mux = m
	}
}

// WithMetrics publishes loop gauges into reg at the end of every cycle.
func WithMetrics(reg *control.MetricsRegistry) ServerOption {
	return func(s *Server) {
		s.metrics = reg
	}
}
