package state

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Blob is the stored state object with each field kept as raw JSON.
// Unknown fields survive a merge untouched.
type Blob map[string]json.RawMessage

// ParseBlob decodes a JSON object into a Blob.
func ParseBlob(data []byte) (Blob, error) {
	var b Blob
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse state blob: %w", err)
	}
	if b == nil {
		return nil, fmt.Errorf("parse state blob: not an object")
	}
	return b, nil
}

// Slice returns the raw value stored under key.
func (b Blob) Slice(key string) (json.RawMessage, bool) {
	v, ok := b[key]
	return v, ok
}

// JSON encodes the blob.
func (b Blob) JSON() ([]byte, error) {
	if b == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]json.RawMessage(b))
}

// MergeSlice returns a copy of remote with key set to value.
//
// This is the whole client-side update protocol: fetch the blob, merge one
// field, write the blob back. Two merges computed from the same fetched
// blob overwrite each other; the later write wins and the earlier change
// is lost without notice.
func MergeSlice(remote Blob, key string, value json.RawMessage) Blob {
	out := make(Blob, len(remote)+1)
	maps.Copy(out, remote)
	out[key] = append(json.RawMessage(nil), value...)
	return out
}
