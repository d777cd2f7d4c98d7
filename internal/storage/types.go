package storage

import (
	"encoding/json"
	"fmt"
)

// CustomSettings maps a sub-object name to its raw JSON document.
type CustomSettings map[string]json.RawMessage

// Clone returns a shallow copy whose values may be replaced independently.
func (c CustomSettings) Clone() CustomSettings {
	out := make(CustomSettings, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Decode unmarshals the sub-object stored under key into out.
// It returns ErrNotFound when key is absent or null.
func (c CustomSettings) Decode(key string, out any) error {
	raw, ok := c[key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return ErrNotFound
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// Encode marshals value and stores it under key.
func (c CustomSettings) Encode(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	c[key] = data
	return nil
}
