//go:build linux

package schedkit

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// PinToCPU restricts the calling OS thread to the n-th CPU the process
// may run on, wrapping around the allowed set. The caller must hold
// runtime.LockOSThread.
func PinToCPU(n int) error {
	var allowed unix.CPUSet
	if err := unix.SchedGetaffinity(0, &allowed); err != nil {
		return fmt.Errorf("read affinity: %w", err)
	}
	cpus := make([]int, 0, allowed.Count())
	for cpu := 0; len(cpus) < cap(cpus); cpu++ {
		if allowed.IsSet(cpu) {
			cpus = append(cpus, cpu)
		}
	}
	if len(cpus) == 0 {
		return nil
	}

	var mask unix.CPUSet
	mask.Set(cpus[n%len(cpus)])
	if err := unix.SchedSetaffinity(0, &mask); err != nil {
		return fmt.Errorf("set affinity: %w", err)
	}
	return nil
}
