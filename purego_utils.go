//go:build darwin || linux

// Shared utilities for the purego-based GStreamer binding.

package player

import (
	"unsafe"
)

// maxCStringLen caps how far goStringFromPtr scans for a terminator; the
// strings coming back from GStreamer are element names and error messages.
const maxCStringLen = 4096

// goStringFromPtr copies a NUL-terminated C string into a Go string.
func goStringFromPtr(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(ptr)), maxCStringLen)
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// takeGError consumes a GError out-pointer, returning its message and
// freeing the error. Returns "" when no error was set.
func takeGError(gerr uintptr) string {
	if gerr == 0 {
		return ""
	}
	ge := (*gError)(unsafe.Pointer(gerr))
	msg := goStringFromPtr(ge.Message)
	gErrorFree(gerr)
	return msg
}

// takeGString copies and frees a glib-allocated string.
func takeGString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	s := goStringFromPtr(ptr)
	gFree(ptr)
	return s
}
