// File: api/events.go
// Package api defines the observation events emitted by the relay loop.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// EventKind classifies an observation.
type EventKind uint8

const (
	EventServerStarted EventKind = iota + 1
	EventClientConnected
	EventDataReceived
	EventClientClosing
	EventSendSucceeded
	EventSendFailed
	EventExceptional
	EventQueueIdle
	EventReadFailed
	EventAcceptFailed
)

var eventNames = map[EventKind]string{
	EventServerStarted:   "server-started",
	EventClientConnected: "client-connected",
	EventDataReceived:    "data-received",
	EventClientClosing:   "client-closing",
	EventSendSucceeded:   "send-success",
	EventSendFailed:      "send-failure",
	EventExceptional:     "exceptional",
	EventQueueIdle:       "queue-idle",
	EventReadFailed:      "read-failed",
	EventAcceptFailed:    "accept-failed",
}

// EventKinds lists every kind in declaration order.
func EventKinds() []EventKind {
	return []EventKind{
		EventServerStarted, EventClientConnected, EventDataReceived,
		EventClientClosing, EventSendSucceeded, EventSendFailed,
		EventExceptional, EventQueueIdle, EventReadFailed, EventAcceptFailed,
	}
}

func (k EventKind) String() string {
	if s, ok := eventNames[k]; ok {
		return s
	}
	return "unknown"
}

// Event is one observation. Payload is the very slice queued to every
// receiver; observers may retain it but must treat it as read-only.
type Event struct {
	Kind    EventKind
	FD      uintptr
	Addr    string
	Size    int
	Pending int
	Payload []byte
	Err     error
}

// Observer receives events synchronously from the loop goroutine.
// Implementations must not block.
type Observer interface {
	Observe(ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev Event)

func (f ObserverFunc) Observe(ev Event) { f(ev) }

type nopObserver struct{}

func (nopObserver) Observe(Event) {}

// NopObserver discards every event.
var NopObserver Observer = nopObserver{}

type fanout []Observer

func (f fanout) Observe(ev Event) {
	for _, o := range f {
		o.Observe(ev)
	}
}

// Observers fans one event out to every non-nil observer in order.
func Observers(obs ...Observer) Observer {
	out := make(fanout, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	switch len(out) {
	case 0:
		return NopObserver
	case 1:
		return out[0]
	}
	return out
}
