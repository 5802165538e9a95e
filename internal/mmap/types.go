package mmap

import "errors"

// AccessPattern is a paging hint passed to Advise.
type AccessPattern int

// Codebook blobs are read front to back on Load and sliced by range on
// ReadRange; the hints below cover both.
const (
	AccessDefault    AccessPattern = iota // no hint
	AccessSequential                      // whole-blob decode
	AccessRandom                          // ranged reads
	AccessWillNeed                        // prefetch before a warm load
)

// Errors returned by Mapping.
var (
	ErrClosed        = errors.New("mmap: use of closed mapping")
	ErrInvalidSize   = errors.New("mmap: file size out of range")
	ErrInvalidOffset = errors.New("mmap: negative read offset")
)
