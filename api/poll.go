// Package api
// Author: momentics
//
// Readiness multiplexing contract: one blocking wait per loop cycle over a
// caller-supplied interest set.

package api

import "time"

// Interest is the set of descriptors a caller wants watched for one wait.
// Every descriptor in Read is also watched for error conditions.
type Interest struct {
	Read  []uintptr
	Write []uintptr
}

// Readiness is the outcome of one wait. Each slice is a subset of the
// descriptors passed in Interest.
type Readiness struct {
	Readable    []uintptr
	Writable    []uintptr
	Exceptional []uintptr
}

// Reset empties the readiness sets while keeping their capacity.
func (r *Readiness) Reset() {
	r.Readable = r.Readable[:0]
	r.Writable = r.Writable[:0]
	r.Exceptional = r.Exceptional[:0]
}

// Empty reports whether nothing became ready.
func (r *Readiness) Empty() bool {
	return len(r.Readable) == 0 && len(r.Writable) == 0 && len(r.Exceptional) == 0
}

// Multiplexer blocks until any watched descriptor is ready or timeout elapses.
// A negative timeout blocks indefinitely. An interrupted wait returns nil with
// an empty Readiness.
type Multiplexer interface {
	Wait(in Interest, timeout time.Duration, out *Readiness) error

	// Unregister drops any state kept for fd. Callers invoke it before the
	// descriptor is closed so a reused descriptor number starts clean.
	Unregister(fd uintptr) error

	Close() error
}
