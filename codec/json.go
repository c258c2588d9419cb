package codec

import (
	"encoding/json"
)

// JSON is the standard-library codec, kept for callers that need
// encoding/json's exact error messages.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns "json".
func (JSON) Name() string { return "json" }

// Default is the codec used by table loaders when none is given.
var Default Codec = GoJSON{}
