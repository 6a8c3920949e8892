// Package model defines the signed envelope types and hashed key types that
// make up the IPDIS data model (spec §3).
package model

import "time"

// Account is a client or server's Ed25519 public key.
type Account [32]byte

// Hash is a blake3-256 digest of canonically encoded bytes.
type Hash [32]byte

// Identity pairs an account with the signature it produced over some
// canonically encoded message.
type Identity struct {
	Account   Account `cbor:"account"`
	Signature []byte  `cbor:"signature"`
}

// Metadata is the envelope header accompanying every signed payload.
type Metadata struct {
	Nonce          [16]byte   `cbor:"nonce"`
	CreatedDate    time.Time  `cbor:"created_date"`
	ExpirationDate *time.Time `cbor:"expiration_date"`
	Guarantor      Account    `cbor:"guarantor"`
	Hash           Hash       `cbor:"hash"`
}

// Active reports whether m's expiration date has not yet passed, per
// spec invariant I5 (inclusive expiry: NULL or >= now is active).
func (m Metadata) Active(now time.Time) bool {
	return m.ExpirationDate == nil || !m.ExpirationDate.Before(now)
}

// GuaranteeSigned is a payload signed by the submitting client ("guarantee").
type GuaranteeSigned[T any] struct {
	Guarantee Identity `cbor:"guarantee"`
	Payload   T        `cbor:"payload"`
	Meta      Metadata `cbor:"meta"`
}

// GuarantorSigned wraps a GuaranteeSigned envelope with the server's
// ("guarantor") countersignature. It is the unit of storage and of reply.
type GuarantorSigned[T any] struct {
	Guarantor Identity           `cbor:"guarantor"`
	Inner     GuaranteeSigned[T] `cbor:"inner"`
}

// Path is an opaque reference into an external content-addressed store.
type Path struct {
	Value string `cbor:"value"`
	Len   int64  `cbor:"len"`
}

// DynPath is a mutable namespace/kind/word → content-address binding.
type DynPath[P any] struct {
	Namespace Hash `cbor:"namespace"`
	Kind      Hash `cbor:"kind"`
	Word      Hash `cbor:"word"`
	Path      P    `cbor:"path"`
}

// TextHash is a (language, message) hash pair identifying occurrence text.
type TextHash struct {
	Lang Hash `cbor:"lang"`
	Msg  Hash `cbor:"msg"`
}

// WordKeyHash identifies a word occurrence independent of its kind/parent.
type WordKeyHash struct {
	Namespace Hash     `cbor:"namespace"`
	Text      TextHash `cbor:"text"`
}

// WordHash is a single word-occurrence record.
type WordHash struct {
	Key     WordKeyHash `cbor:"key"`
	Kind    Hash        `cbor:"kind"`
	Relpath bool        `cbor:"relpath"`
	Path    Path        `cbor:"path"`
}

// ParentFilter selects how GetWords filters by parent, per spec §6.
type ParentFilter uint8

const (
	// ParentNone filters by word == query text message hash.
	ParentNone ParentFilter = iota
	// ParentDuplicated filters by parent == query text message hash.
	ParentDuplicated
)

// GetWords is the WordGetMany request payload.
type GetWords struct {
	Word       WordKeyHash  `cbor:"word"`
	Parent     ParentFilter `cbor:"parent"`
	StartIndex uint32       `cbor:"start_index"`
	EndIndex   uint32       `cbor:"end_index"`
}

// GetWordsCounts is the WordCountGetMany request payload.
type GetWordsCounts struct {
	Word       WordKeyHash `cbor:"word"`
	Parent     bool        `cbor:"parent"`
	Owned      bool        `cbor:"owned"`
	StartIndex uint32      `cbor:"start_index"`
	EndIndex   uint32      `cbor:"end_index"`
}

// GetWordsCountsOutput is one aggregated counter row.
type GetWordsCountsOutput struct {
	Word  WordKeyHashWithKind `cbor:"word"`
	Count uint32              `cbor:"count"`
}

// WordKeyHashWithKind is the output row's key shape: spec §6 output row is
// { key: { namespace, text }, kind }.
type WordKeyHashWithKind struct {
	Key  WordKeyHash `cbor:"key"`
	Kind Hash        `cbor:"kind"`
}

// AccountRef is the GuaranteePut inner payload: a bare account reference.
type AccountRef struct {
	Account Account `cbor:"account"`
}

// ValidRange validates the half-open [StartIndex, EndIndex) semantics shared by
// GetWords and GetWordsCounts (spec §6: "malformed ranges (end <= start) are
// rejected").
func ValidRange(start, end uint32) bool { return end > start }
