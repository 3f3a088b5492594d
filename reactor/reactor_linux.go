//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>

package reactor

// DefaultKind returns the preferred multiplexer on Linux.
func DefaultKind() Kind { return KindEpoll }
