// Package wire defines the tagged RPC message shapes of spec §6:
//
//	Request  = tag:u8 ‖ encode(GuaranteeSigned<InnerPayload_tag>) ‖ extras
//	Response = tag:u8 ‖ encode(GuarantorSigned<InnerPayload_tag>) ‖ outputs
//
// Each tag's extras/outputs are folded into one canonically-encoded body
// alongside the envelope (a single struct per tag), since pkg/codec's
// canonical CBOR already gives that body a deterministic byte form; only
// the leading tag byte is framed by hand, matching the "tag:u8" prefix
// spec §6 calls out explicitly.
package wire

import (
	"fmt"

	"github.com/ipdis-project/ipdis/pkg/codec"
	"github.com/ipdis-project/ipdis/pkg/model"
)

// Tag identifies one of the six RPC operations of spec §6.
type Tag uint8

const (
	TagGuaranteePut     Tag = 1
	TagDynPathGet       Tag = 2
	TagDynPathPut       Tag = 3
	TagWordGetMany      Tag = 4
	TagWordCountGetMany Tag = 5
	TagWordPut          Tag = 6

	// TagError is not one of spec §6's six RPC operations; it tags the
	// out-of-band error response a dispatch failure is reported as (spec
	// §7: "Failures are reported to the caller as an error response").
	TagError Tag = 0xFF
)

func (t Tag) String() string {
	switch t {
	case TagGuaranteePut:
		return "GuaranteePut"
	case TagDynPathGet:
		return "DynPathGet"
	case TagDynPathPut:
		return "DynPathPut"
	case TagWordGetMany:
		return "WordGetMany"
	case TagWordCountGetMany:
		return "WordCountGetMany"
	case TagWordPut:
		return "WordPut"
	case TagError:
		return "Error"
	default:
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
}

// ErrorResponse is the body of a TagError reply: the error kind (one of
// spec §7's five, by sentinel name) and a diagnostic message.
type ErrorResponse struct {
	Kind    string `cbor:"kind"`
	Message string `cbor:"message"`
}

// NoPath is the unit payload used for DynPath<()> queries (spec §6:
// DynPathGet's inner payload carries no path, only the lookup key).
type NoPath struct{}

// Request bodies, one per tag.

type GuaranteePutRequest struct {
	Envelope model.GuaranteeSigned[model.AccountRef] `cbor:"envelope"`
}

type DynPathGetRequest struct {
	Envelope model.GuaranteeSigned[model.DynPath[NoPath]] `cbor:"envelope"`
}

type DynPathPutRequest struct {
	Envelope model.GuaranteeSigned[model.DynPath[model.Path]] `cbor:"envelope"`
}

type WordGetManyRequest struct {
	Envelope model.GuaranteeSigned[model.GetWords] `cbor:"envelope"`
}

type WordCountGetManyRequest struct {
	Envelope model.GuaranteeSigned[model.GetWordsCounts] `cbor:"envelope"`
}

type WordPutRequest struct {
	Envelope model.GuaranteeSigned[model.WordHash] `cbor:"envelope"`
	Parent   model.Hash                            `cbor:"parent"`
}

// Response bodies, one per tag.

type GuaranteePutResponse struct {
	Envelope model.GuarantorSigned[model.AccountRef] `cbor:"envelope"`
}

type DynPathGetResponse struct {
	Envelope model.GuarantorSigned[model.DynPath[NoPath]]      `cbor:"envelope"`
	Out      *model.GuarantorSigned[model.DynPath[model.Path]] `cbor:"out"`
}

type DynPathPutResponse struct {
	Envelope model.GuarantorSigned[model.DynPath[model.Path]] `cbor:"envelope"`
}

type WordGetManyResponse struct {
	Envelope model.GuarantorSigned[model.GetWords]  `cbor:"envelope"`
	Out      []model.GuarantorSigned[model.WordHash] `cbor:"out"`
}

type WordCountGetManyResponse struct {
	Envelope model.GuarantorSigned[model.GetWordsCounts] `cbor:"envelope"`
	Out      []model.GetWordsCountsOutput                `cbor:"out"`
}

type WordPutResponse struct {
	Envelope model.GuarantorSigned[model.WordHash] `cbor:"envelope"`
}

// EncodeMessage frames tag and body into one wire message.
func EncodeMessage[T any](tag Tag, body T) ([]byte, error) {
	payload, err := codec.Encode(body)
	if err != nil {
		return nil, fmt.Errorf("wire: encode %s body: %w", tag, err)
	}
	msg := make([]byte, 0, len(payload)+1)
	msg = append(msg, byte(tag))
	msg = append(msg, payload...)
	return msg, nil
}

// DecodeMessage splits a wire message into its tag and a decoded body of
// type T. Callers are expected to already know which T corresponds to the
// returned tag (the server dispatch table and client library both switch
// on tag before calling DecodeMessage).
func DecodeMessage[T any](msg []byte) (Tag, T, error) {
	var body T
	if len(msg) < 1 {
		return 0, body, fmt.Errorf("wire: empty message")
	}
	tag := Tag(msg[0])
	body, err := codec.Decode[T](msg[1:])
	if err != nil {
		return tag, body, fmt.Errorf("wire: decode %s body: %w", tag, err)
	}
	return tag, body, nil
}

// PeekTag reads only the leading tag byte without decoding the body.
func PeekTag(msg []byte) (Tag, error) {
	if len(msg) < 1 {
		return 0, fmt.Errorf("wire: empty message")
	}
	return Tag(msg[0]), nil
}
