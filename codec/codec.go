// Package codec serializes codebook metadata for the blob format.
//
// Each persisted codebook carries the name of the codec that wrote it, so
// changing Default only affects new writes; older blobs keep decoding with
// the codec they name.
package codec

// Codec is a named serializer. Implementations are stateless and safe for
// concurrent use.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Default writes new codebooks.
var Default Codec = Msgpack{}

var builtin = map[string]Codec{
	Msgpack{}.Name(): Msgpack{},
	JSON{}.Name():    JSON{},
}

// ByName resolves the codec recorded in a blob header.
func ByName(name string) (Codec, bool) {
	c, ok := builtin[name]
	return c, ok
}
