package kv

import (
	"encoding/json"
	"fmt"
)

// LoadJSON decodes the blob for ns into dst.
// It returns false with a nil error on a miss. A blob that does not decode
// yields an error wrapping ErrMalformed and leaves dst untouched.
func LoadJSON[T any](b Blobs, ns Namespace, dst *T) (bool, error) {
	data, ok, err := b.Load(ns)
	if err != nil || !ok {
		return false, err
	}
	var decoded T
	if err := json.Unmarshal(data, &decoded); err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrMalformed, ns, err)
	}
	*dst = decoded
	return true, nil
}

// SaveJSON encodes v and saves it under ns.
func SaveJSON(b Blobs, ns Namespace, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %w", ErrPersistence, ns, err)
	}
	return b.Save(ns, data)
}
