// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the readiness multiplexers behind api.Multiplexer:
// a level-triggered epoll implementation (Linux) and a poll(2) implementation
// (any Unix). Both answer the same select-style question each cycle: which of
// these descriptors are readable, writable, or in an error state.
package reactor
