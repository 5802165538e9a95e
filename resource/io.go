package resource

import (
	"context"
	"io"
)

// RateLimitedWriter charges every Write against the controller's IO budget
// before passing it on. Registry.Export streams codebooks through it.
type RateLimitedWriter struct {
	ctx  context.Context
	rc   *Controller
	dest io.Writer
}

// NewRateLimitedWriter wraps dest. A nil controller disables throttling.
func NewRateLimitedWriter(ctx context.Context, dest io.Writer, rc *Controller) *RateLimitedWriter {
	return &RateLimitedWriter{ctx: ctx, rc: rc, dest: dest}
}

func (w *RateLimitedWriter) Write(p []byte) (int, error) {
	if err := w.rc.AcquireIO(w.ctx, len(p)); err != nil {
		return 0, err
	}
	return w.dest.Write(p)
}

// RateLimitedReader is the read-side counterpart used by Registry.Load and
// Registry.Import.
type RateLimitedReader struct {
	ctx context.Context
	rc  *Controller
	src io.Reader
}

// NewRateLimitedReader wraps src. A nil controller disables throttling.
func NewRateLimitedReader(ctx context.Context, src io.Reader, rc *Controller) *RateLimitedReader {
	return &RateLimitedReader{ctx: ctx, rc: rc, src: src}
}

// Read bills only the bytes returned, so a small blob read into a large
// buffer costs its own size.
func (r *RateLimitedReader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	if n == 0 {
		return 0, err
	}
	if werr := r.rc.AcquireIO(r.ctx, n); werr != nil {
		return n, werr
	}
	return n, err
}
