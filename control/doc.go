// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics and debug introspection for the relay.
//
// Provides concurrent-safe state handling primitives including:
//   - an event-counting metrics registry that doubles as an api.Observer
//   - loop gauges published once per cycle
//   - debug probe registration and state export
//
// This package is cross-platform and build-tag-partitioned as needed.
package control
