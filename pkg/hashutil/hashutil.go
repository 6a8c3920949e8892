// Package hashutil provides the blake3 digest and base58 string encodings
// used for IPDIS hashes and accounts. Grounded on lukechampine.com/blake3
// (shared by the teacher repo and several other repos in the retrieval
// pack) and github.com/mr-tron/base58 (an indirect dependency of the
// teacher repo already used for address-style encodings).
package hashutil

import (
	"fmt"

	"github.com/mr-tron/base58"
	"lukechampine.com/blake3"

	"github.com/ipdis-project/ipdis/pkg/model"
)

// Sum returns the blake3-256 digest of data.
func Sum(data []byte) model.Hash {
	var h model.Hash
	sum := blake3.Sum256(data)
	copy(h[:], sum[:])
	return h
}

// SumString hashes the UTF-8 bytes of s. Used throughout tests and the CLI
// for literal namespace/kind/word values (spec §8: "H(s) = hash of UTF-8 s").
func SumString(s string) model.Hash { return Sum([]byte(s)) }

// EncodeHash returns the canonical base58 string form of h.
func EncodeHash(h model.Hash) string { return base58.Encode(h[:]) }

// DecodeHash parses the canonical base58 string form of a hash.
func DecodeHash(s string) (model.Hash, error) {
	var h model.Hash
	b, err := base58.Decode(s)
	if err != nil {
		return h, fmt.Errorf("hashutil: decode hash: %w", err)
	}
	if len(b) != len(h) {
		return h, fmt.Errorf("hashutil: decode hash: want %d bytes, got %d", len(h), len(b))
	}
	copy(h[:], b)
	return h, nil
}

// EncodeAccount returns the canonical base58 string form of an account.
func EncodeAccount(a model.Account) string { return base58.Encode(a[:]) }

// DecodeAccount parses the canonical base58 string form of an account.
func DecodeAccount(s string) (model.Account, error) {
	var a model.Account
	b, err := base58.Decode(s)
	if err != nil {
		return a, fmt.Errorf("hashutil: decode account: %w", err)
	}
	if len(b) != len(a) {
		return a, fmt.Errorf("hashutil: decode account: want %d bytes, got %d", len(a), len(b))
	}
	copy(a[:], b)
	return a, nil
}
