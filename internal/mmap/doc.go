// Package mmap maps codebook blob files read-only into memory.
//
// The local blob store serves reads straight from the mapping, so opening a
// stored codebook costs no copy through kernel buffers:
//
//	m, err := mmap.Open("codebooks/layer0.qvcb")
//	if err != nil { ... }
//	defer m.Close()
//
//	header := make([]byte, 16)
//	_, _ = m.ReadAt(header, 0)
//
// Unix systems use mmap(2) with madvise(2) hints, Windows uses
// CreateFileMapping/MapViewOfFile (advice is a no-op).
//
// A Mapping is safe for concurrent reads. Close is idempotent; callers must
// not touch the slice returned by Bytes after Close.
package mmap
