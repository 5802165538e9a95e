// Package hash provides the CRC32-Castagnoli (CRC32C) checksums used to
// protect stored codebooks and to sign object uploads.
//
// One-shot checksums:
//
//	sum := hash.CRC32C(data)
//	if err := hash.Verify(data, sum); err != nil { ... }
//
// Go's crc32 package uses hardware instructions when available.
package hash
