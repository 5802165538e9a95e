package codec

import "encoding/json"

// JSON encodes codebooks as readable text, mainly for export and debugging.
// Boundaries and costs are finite, so the lack of NaN/Inf support in JSON
// never bites.
type JSON struct{}

func (JSON) Name() string { return "json" }

func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
