//go:build windows

package mmap

import (
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// osMap creates a read-only section for f and maps a view of size bytes.
// The section handle can be closed right away; the view pins it.
func osMap(f *os.File, size int) ([]byte, func([]byte) error, error) {
	section, err := windows.CreateFileMapping(windows.Handle(f.Fd()), nil, windows.PAGE_READONLY, 0, 0, nil)
	if err != nil {
		return nil, nil, err
	}
	defer windows.CloseHandle(section)

	base, err := windows.MapViewOfFile(section, windows.FILE_MAP_READ, 0, 0, uintptr(size))
	if err != nil {
		return nil, nil, err
	}

	release := func([]byte) error { return windows.UnmapViewOfFile(base) }
	return unsafe.Slice((*byte)(unsafe.Pointer(base)), size), release, nil
}

// Windows has no madvise equivalent for file views.
func osAdvise([]byte, AccessPattern) error { return nil }
