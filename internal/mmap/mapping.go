package mmap

import (
	"io"
	"math"
	"os"
	"sync/atomic"
)

// Mapping is a read-only view of a file. The file descriptor is released as
// soon as the view exists; only Close unmaps it.
type Mapping struct {
	buf   []byte
	done  atomic.Bool
	unmap func([]byte) error
}

// Open maps path read-only. A zero-length file gives a Mapping with no
// backing memory.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}

	switch n := st.Size(); {
	case n == 0:
		return &Mapping{}, nil
	case n < 0 || n > math.MaxInt:
		return nil, ErrInvalidSize
	default:
		buf, unmap, err := osMap(f, int(n))
		if err != nil {
			return nil, err
		}
		return &Mapping{buf: buf, unmap: unmap}, nil
	}
}

// Close releases the view. Calling it twice is a no-op.
func (m *Mapping) Close() error {
	if m.done.Swap(true) || m.buf == nil {
		return nil
	}
	return m.unmap(m.buf)
}

// Bytes exposes the mapped memory. The slice must not outlive Close.
func (m *Mapping) Bytes() []byte {
	if m.done.Load() {
		return nil
	}
	return m.buf
}

func (m *Mapping) Size() int { return len(m.buf) }

// Advise forwards a paging hint to the OS. Platforms without madvise accept
// and ignore it.
func (m *Mapping) Advise(p AccessPattern) error {
	switch {
	case m.done.Load():
		return ErrClosed
	case len(m.buf) == 0:
		return nil
	}
	return osAdvise(m.buf, p)
}

// ReadAt copies from the mapping at off. It follows io.ReaderAt: a short
// copy is reported together with io.EOF.
func (m *Mapping) ReadAt(p []byte, off int64) (int, error) {
	if m.done.Load() {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrInvalidOffset
	}
	if off >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
