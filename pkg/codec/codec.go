// Package codec is IPDIS's canonical binary codec (spec §4.1). It wraps
// github.com/fxamacker/cbor/v2's canonical (deterministic) encoding mode so
// that encode(decode(b)) == b and decode(encode(x)) == x for every valid
// payload, giving signatures and hashes a reproducible byte sequence to
// operate over.
//
// Grounded on other_examples/manifests/veraison-go-cose, a COSE/CBOR
// signing library in the retrieval pack whose signing envelopes rely on
// exactly this canonical-CBOR determinism property.
package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	encOpts := cbor.CanonicalEncOptions()
	// Account and Hash are [32]byte: encode them as CBOR byte strings, not
	// 32-element arrays of integers, so signatures/hashes over the
	// encoded form stay compact and match how []byte fields already
	// serialize.
	encOpts.ByteArray = cbor.ByteArrayToByteSlice
	em, err := encOpts.EncMode()
	if err != nil {
		panic(fmt.Errorf("codec: build canonical encode mode: %w", err))
	}
	encMode = em

	dm, err := cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic(fmt.Errorf("codec: build decode mode: %w", err))
	}
	decMode = dm
}

// Encode returns the canonical byte encoding of v.
func Encode[T any](v T) ([]byte, error) {
	b, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: encode: %w", err)
	}
	return b, nil
}

// Decode parses b into a value of type T. Decoding does not by itself
// guarantee b was produced by Encode; callers that need that guarantee
// should re-encode and compare.
func Decode[T any](b []byte) (T, error) {
	var v T
	if err := decMode.Unmarshal(b, &v); err != nil {
		var zero T
		return zero, fmt.Errorf("codec: decode: %w", err)
	}
	return v, nil
}
