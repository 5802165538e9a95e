package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/minio/minio-go/v7"

	"github.com/hupe1980/quiver/blobstore"
)

// Store keeps codebook blobs in one bucket of an S3-compatible server, all
// under a common root directory.
type Store struct {
	client *minio.Client
	bucket string
	root   string // "" or "dir/" form
}

// NewStore returns a Store writing below rootPrefix in bucket. The prefix is
// treated as a directory, so "codebooks" and "codebooks/" are equivalent.
func NewStore(client *minio.Client, bucket, rootPrefix string) *Store {
	root := strings.Trim(rootPrefix, "/")
	if root != "" {
		root += "/"
	}
	return &Store{client: client, bucket: bucket, root: root}
}

func (s *Store) key(name string) string { return s.root + strings.TrimPrefix(name, "/") }

func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)
	st, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, translateError(err)
	}
	return &object{store: s, key: key, size: st.Size}, nil
}

// Put uploads data in one request with a Content-MD5 the server verifies.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	opts := minio.PutObjectOptions{SendContentMd5: true}
	_, err := s.client.PutObject(ctx, s.bucket, s.key(name), bytes.NewReader(data), int64(len(data)), opts)
	return err
}

// Create streams writes into an upload of unknown length. The object
// appears once Close returns nil.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	pr, pw := io.Pipe()
	up := &upload{pw: pw, result: make(chan error, 1)}

	go func(key string) {
		_, err := s.client.PutObject(ctx, s.bucket, key, pr, -1, minio.PutObjectOptions{})
		_ = pr.CloseWithError(err)
		up.result <- err
	}(s.key(name))

	return up, nil
}

// Delete treats a missing object as already deleted.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{}); err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// List returns names below the root that start with prefix, sorted.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	opts := minio.ListObjectsOptions{Prefix: s.root + prefix, Recursive: true}

	var names []string
	for info := range s.client.ListObjects(ctx, s.bucket, opts) {
		if info.Err != nil {
			return nil, info.Err
		}
		if name := strings.TrimPrefix(info.Key, s.root); name != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}

// translateError maps a missing object onto blobstore.ErrNotFound and keeps
// the server response in the chain.
func translateError(err error) error {
	if !isNotFound(err) {
		return err
	}
	return fmt.Errorf("%w: %w", blobstore.ErrNotFound, err)
}

// object is an opened blob. The size is fixed at Open; every read is a
// ranged GET.
type object struct {
	store *Store
	key   string
	size  int64
}

func (o *object) Size() int64 { return o.size }

func (o *object) Close() error { return nil }

// fetch issues a GET for the inclusive byte range [first, last].
func (o *object) fetch(ctx context.Context, first, last int64) (*minio.Object, error) {
	var opts minio.GetObjectOptions
	if err := opts.SetRange(first, last); err != nil {
		return nil, err
	}
	obj, err := o.store.client.GetObject(ctx, o.store.bucket, o.key, opts)
	if err != nil {
		return nil, translateError(err)
	}
	return obj, nil
}

func (o *object) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if off < 0 || off >= o.size {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	avail := min(int64(len(p)), o.size-off)
	obj, err := o.fetch(ctx, off, off+avail-1)
	if err != nil {
		return 0, err
	}
	defer obj.Close()

	n, err := io.ReadFull(obj, p[:avail])
	switch {
	case err != nil:
		return n, translateError(err)
	case int(avail) < len(p):
		return n, io.EOF
	}
	return n, nil
}

func (o *object) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off >= o.size {
		return nil, io.EOF
	}
	if length <= 0 {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	return o.fetch(ctx, off, min(off+length, o.size)-1)
}

// upload feeds a background PutObject through a pipe.
type upload struct {
	pw     *io.PipeWriter
	result chan error
	closed atomic.Bool
}

func (u *upload) Write(p []byte) (int, error) {
	if u.closed.Load() {
		return 0, io.ErrClosedPipe
	}
	return u.pw.Write(p)
}

func (u *upload) Sync() error { return nil }

func (u *upload) Close() error {
	if u.closed.Swap(true) {
		return io.ErrClosedPipe
	}
	if err := u.pw.Close(); err != nil {
		return err
	}
	return <-u.result
}
