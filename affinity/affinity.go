// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for CPU affinity. Platform-specific implementations are located
// in separate files guarded by build tags.

package affinity

import (
	"fmt"
	"runtime"

	"github.com/momentics/hioload-relay/api"
)

// Pin locks the calling goroutine to its OS thread and pins that thread to
// cpuID. The returned release func restores the thread's previous CPU mask
// and unlocks it, so the runtime never inherits a single-CPU thread.
func Pin(cpuID int) (release func(), err error) {
	if cpuID < 0 {
		return nil, fmt.Errorf("affinity: cpu %d: %w", cpuID, api.ErrInvalidArgument)
	}
	runtime.LockOSThread()
	restore, err := setAffinityPlatform(cpuID)
	if err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}
	return func() {
		// a thread whose mask cannot be restored stays locked and dies with the goroutine
		if err := restore(); err != nil {
			return
		}
		runtime.UnlockOSThread()
	}, nil
}
