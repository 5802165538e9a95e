package codec

import "github.com/vmihailenco/msgpack/v5"

// Msgpack is the compact binary default. float64 values are written as
// 8-byte doubles, so boundaries survive a round trip bit for bit.
type Msgpack struct{}

func (Msgpack) Name() string { return "msgpack" }

func (Msgpack) Marshal(v any) ([]byte, error) { return msgpack.Marshal(v) }

func (Msgpack) Unmarshal(data []byte, v any) error { return msgpack.Unmarshal(data, v) }
