// Package blobstore is the byte layer under the codebook registry: named,
// immutable blobs that are written whole and read whole or by range.
//
// Backends shipped with quiver:
//
//	LocalStore    a directory; reads are mmap-backed, writes rename into place
//	MemoryStore   a map, for tests and throwaway registries
//	s3.Store      Amazon S3
//	minio.Store   MinIO and other S3-compatible servers
//
// Every implementation reports missing blobs as ErrNotFound, returns List
// results sorted and must tolerate concurrent callers. Caching of decoded
// codebooks happens one level up, in codebook.Registry.
package blobstore
