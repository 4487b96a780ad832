// Package codec pins the JSON serializer behind one file. Its callers are
// the store's debug state dump and test fixtures, so the API is limited to
// what those need.
package codec

import (
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

func Decode[T any](bz []byte) (T, error) {
	var value T
	if err := json.Unmarshal(bz, &value); err != nil {
		var zero T
		return zero, eris.Wrap(err, "decode failed")
	}
	return value, nil
}

func Encode(value any) ([]byte, error) {
	bz, err := json.Marshal(value)
	if err != nil {
		return nil, eris.Wrap(err, "encode failed")
	}
	return bz, nil
}

// EncodeIndent renders value the way DebugState dumps want it: two-space
// indented, keys in struct order.
func EncodeIndent(value any) ([]byte, error) {
	bz, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "encode indent failed")
	}
	return bz, nil
}
