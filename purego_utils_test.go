//go:build darwin || linux

package player

import (
	"testing"
	"unsafe"
)

func TestGoStringFromPtr(t *testing.T) {
	if got := goStringFromPtr(0); got != "" {
		t.Errorf("nil pointer = %q, want empty", got)
	}

	buf := []byte("appsink0\x00trailing garbage")
	if got := goStringFromPtr(uintptr(unsafe.Pointer(&buf[0]))); got != "appsink0" {
		t.Errorf("goStringFromPtr = %q, want %q", got, "appsink0")
	}

	empty := []byte{0}
	if got := goStringFromPtr(uintptr(unsafe.Pointer(&empty[0]))); got != "" {
		t.Errorf("empty string = %q, want empty", got)
	}
}
