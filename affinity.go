//go:build linux

package itemqueue

import (
	"golang.org/x/sys/unix"
)

// pinToCPU binds the calling OS thread to cpu.
func pinToCPU(cpu int) error {
	var mask unix.CPUSet
	mask.Zero()
	mask.Set(cpu)
	return unix.SchedSetaffinity(0, &mask)
}
