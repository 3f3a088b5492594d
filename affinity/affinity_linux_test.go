//go:build linux

package affinity_test

import (
	"errors"
	"runtime"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-relay/affinity"
	"github.com/momentics/hioload-relay/api"
)

func TestPinToAllowedCPU(t *testing.T) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		t.Skipf("sched_getaffinity: %v", err)
	}
	cpu := -1
	for i := 0; i < 1024; i++ {
		if set.IsSet(i) {
			cpu = i
			break
		}
	}
	if cpu < 0 {
		t.Skip("no CPU in affinity mask")
	}

	release, err := affinity.Pin(cpu)
	if err != nil {
		t.Fatalf("pin cpu %d: %v", cpu, err)
	}
	defer release()

	var got unix.CPUSet
	if err := unix.SchedGetaffinity(0, &got); err != nil {
		t.Fatal(err)
	}
	if got.Count() != 1 || !got.IsSet(cpu) {
		t.Fatalf("thread not pinned to cpu %d", cpu)
	}
}

func TestReleaseRestoresPreviousMask(t *testing.T) {
	// the outer lock keeps this goroutine on the same thread after release
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var orig unix.CPUSet
	if err := unix.SchedGetaffinity(0, &orig); err != nil {
		t.Skipf("sched_getaffinity: %v", err)
	}
	if orig.Count() < 2 {
		t.Skip("need at least two CPUs to observe a restored mask")
	}
	cpu := -1
	for i := 0; i < 1024; i++ {
		if orig.IsSet(i) {
			cpu = i
			break
		}
	}

	release, err := affinity.Pin(cpu)
	if err != nil {
		t.Fatalf("pin cpu %d: %v", cpu, err)
	}
	release()

	var got unix.CPUSet
	if err := unix.SchedGetaffinity(0, &got); err != nil {
		t.Fatal(err)
	}
	if got != orig {
		t.Fatalf("mask not restored: %d CPUs, want %d", got.Count(), orig.Count())
	}
}

func TestPinRejectsNegativeCPU(t *testing.T) {
	if _, err := affinity.Pin(-1); !errors.Is(err, api.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
