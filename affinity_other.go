//go:build !linux

package schedkit

// PinToCPU is a no-op outside Linux.
func PinToCPU(int) error { return nil }
