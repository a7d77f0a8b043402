package rg

import "unsafe"

// unsafePointer adapts vk.MapMemory's raw `*unsafe.Pointer` out-parameter
// into a Go byte slice view over the mapped range.
type unsafePointer struct {
	p unsafe.Pointer
}

func (u unsafePointer) bytes(size int) []byte {
	if u.p == nil || size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(u.p), size)
}

// bytesToPointer exposes b's backing array as an unsafe.Pointer for
// Vulkan calls that take raw data (push constants, staging buffer
// writes), valid only for the duration of the call.
func bytesToPointer(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(&b[0])
}
