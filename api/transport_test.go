package api_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/momentics/hioload-relay/api"
)

func TestEventKindStrings(t *testing.T) {
	seen := make(map[string]bool)
	for _, k := range api.EventKinds() {
		s := k.String()
		if s == "unknown" {
			t.Fatalf("kind %d has no name", k)
		}
		if seen[s] {
			t.Fatalf("duplicate name %q", s)
		}
		seen[s] = true
	}
	if api.EventKind(0).String() != "unknown" {
		t.Error("zero kind should be unknown")
	}
}

func TestObserversFanout(t *testing.T) {
	var got []string
	a := api.ObserverFunc(func(ev api.Event) { got = append(got, "a:"+ev.Kind.String()) })
	b := api.ObserverFunc(func(ev api.Event) { got = append(got, "b:"+ev.Kind.String()) })

	api.Observers(a, nil, b).Observe(api.Event{Kind: api.EventQueueIdle})
	if len(got) != 2 || got[0] != "a:queue-idle" || got[1] != "b:queue-idle" {
		t.Fatalf("unexpected fanout order: %v", got)
	}

	// no observers is a no-op, not a nil dereference
	api.Observers().Observe(api.Event{Kind: api.EventServerStarted})
}

func TestStructuredErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("listen: %w", api.ErrInvalidArgument)
	err := api.NewError(api.ErrCodeBind, "bind failed").
		WithContext("addr", "10.0.0.1:80").
		WithCause(cause)

	if !errors.Is(err, api.ErrInvalidArgument) {
		t.Error("cause not reachable through errors.Is")
	}
	if api.CodeOf(fmt.Errorf("wrapped: %w", err)) != api.ErrCodeBind {
		t.Error("code lost through wrapping")
	}
	if api.CodeOf(errors.New("plain")) != api.ErrCodeInternal {
		t.Error("plain errors should map to ErrCodeInternal")
	}
	if api.CodeOf(nil) != api.ErrCodeOK {
		t.Error("nil should map to ErrCodeOK")
	}
}

func TestReadinessReset(t *testing.T) {
	r := api.Readiness{Readable: []uintptr{1}, Writable: []uintptr{2}, Exceptional: []uintptr{3}}
	if r.Empty() {
		t.Fatal("populated readiness reported empty")
	}
	r.Reset()
	if !r.Empty() {
		t.Fatal("reset readiness not empty")
	}
}
