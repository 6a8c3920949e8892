package server

import (
	"context"
	"fmt"

	"github.com/ipdis-project/ipdis/pkg/ipdiserr"
	"github.com/ipdis-project/ipdis/pkg/model"
	"github.com/ipdis-project/ipdis/pkg/signing"
	"github.com/ipdis-project/ipdis/pkg/wire"
)

// dispatch decodes one tagged request, runs it through its handler, and
// encodes the tagged response. Every handler but GuaranteePut follows the
// uniform pipeline of spec §4.7: sign_as_guarantor (which also verifies the
// inbound guarantee signature) runs before ensure_registered and execute,
// since the signed envelope is itself an input the Put-shaped operations
// store alongside their row (see DESIGN.md's Open Question decisions for why this ordering is
// equivalent to the spec's decode/ensure_registered/execute/sign prose
// order rather than a deviation from it).
func (s *Server) dispatch(ctx context.Context, msg []byte) ([]byte, error) {
	tag, err := wire.PeekTag(msg)
	if err != nil {
		return nil, err
	}

	switch tag {
	case wire.TagGuaranteePut:
		return dispatchTyped(ctx, s, msg, wire.TagGuaranteePut, s.handleGuaranteePut)
	case wire.TagDynPathGet:
		return dispatchTyped(ctx, s, msg, wire.TagDynPathGet, s.handleDynPathGet)
	case wire.TagDynPathPut:
		return dispatchTyped(ctx, s, msg, wire.TagDynPathPut, s.handleDynPathPut)
	case wire.TagWordGetMany:
		return dispatchTyped(ctx, s, msg, wire.TagWordGetMany, s.handleWordGetMany)
	case wire.TagWordCountGetMany:
		return dispatchTyped(ctx, s, msg, wire.TagWordCountGetMany, s.handleWordCountGetMany)
	case wire.TagWordPut:
		return dispatchTyped(ctx, s, msg, wire.TagWordPut, s.handleWordPut)
	default:
		return nil, ipdiserr.Malformed("server: unknown tag %d", uint8(tag))
	}
}

// dispatchTyped decodes msg's body as Req, runs handle, and encodes the Resp
// it returns — one instantiation per tag, since Go's generics can't make
// the switch above itself generic over the request/response pair.
func dispatchTyped[Req, Resp any](ctx context.Context, s *Server, msg []byte, tag wire.Tag, handle func(context.Context, Req) (Resp, error)) ([]byte, error) {
	_, req, err := wire.DecodeMessage[Req](msg)
	if err != nil {
		return nil, err
	}
	resp, err := handle(ctx, req)
	if err != nil {
		return nil, err
	}
	out, err := wire.EncodeMessage(tag, resp)
	if err != nil {
		return nil, fmt.Errorf("server: encode %s response: %w", tag, err)
	}
	return out, nil
}

// authorize countersigns env and, unless guarantee == guarantor, confirms an
// active registry delegation exists (spec §4.3). It is the shared second
// half of "ensure_registered" + "sign_as_guarantor" every handler but
// GuaranteePut runs before touching storage.
func authorize[T any](ctx context.Context, s *Server, env model.GuaranteeSigned[T]) (model.GuarantorSigned[T], error) {
	var zero model.GuarantorSigned[T]

	signed, err := signing.SignAsGuarantor(s.signer, env)
	if err != nil {
		return zero, err
	}
	if err := s.store.EnsureRegistered(ctx, env.Guarantee.Account, env.Meta.Guarantor); err != nil {
		return zero, err
	}
	return signed, nil
}

// handleGuaranteePut registers a new guarantee-delegates-to-guarantor row.
// Unlike every other handler it does NOT call ensure_registered first: this
// operation is how a delegation comes to exist in the first place, so
// requiring one to already exist would make the registry unbootstrappable.
// The payload's AccountRef must name the same account as the envelope's own
// guarantee signer, so a submitter can only register itself, never a third
// party, as accounts_guarantees.guarantee.
func (s *Server) handleGuaranteePut(ctx context.Context, req wire.GuaranteePutRequest) (wire.GuaranteePutResponse, error) {
	env := req.Envelope
	if env.Payload.Account != env.Guarantee.Account {
		return wire.GuaranteePutResponse{}, ipdiserr.Malformed(
			"guarantee_put: payload account must match the submitting guarantee")
	}
	signed, err := signing.SignAsGuarantor(s.signer, env)
	if err != nil {
		return wire.GuaranteePutResponse{}, err
	}
	if err := s.store.AddGuaranteeUnchecked(ctx, signed); err != nil {
		return wire.GuaranteePutResponse{}, err
	}
	return wire.GuaranteePutResponse{Envelope: signed}, nil
}

func (s *Server) handleDynPathGet(ctx context.Context, req wire.DynPathGetRequest) (wire.DynPathGetResponse, error) {
	signed, err := authorize(ctx, s, req.Envelope)
	if err != nil {
		return wire.DynPathGetResponse{}, err
	}
	key := signed.Inner.Payload
	out, err := s.store.GetDynPathUnchecked(ctx, signed.Inner.Meta.Guarantor, signed.Inner.Guarantee.Account, key.Namespace, key.Kind, key.Word)
	if err != nil {
		if ipdiserr.IsNotFound(err) {
			return wire.DynPathGetResponse{Envelope: signed, Out: nil}, nil
		}
		return wire.DynPathGetResponse{}, err
	}
	return wire.DynPathGetResponse{Envelope: signed, Out: out}, nil
}

func (s *Server) handleDynPathPut(ctx context.Context, req wire.DynPathPutRequest) (wire.DynPathPutResponse, error) {
	signed, err := authorize(ctx, s, req.Envelope)
	if err != nil {
		return wire.DynPathPutResponse{}, err
	}
	if err := s.store.PutDynPathUnchecked(ctx, signed); err != nil {
		return wire.DynPathPutResponse{}, err
	}
	return wire.DynPathPutResponse{Envelope: signed}, nil
}

func (s *Server) handleWordGetMany(ctx context.Context, req wire.WordGetManyRequest) (wire.WordGetManyResponse, error) {
	signed, err := authorize(ctx, s, req.Envelope)
	if err != nil {
		return wire.WordGetManyResponse{}, err
	}
	out, err := s.store.GetWordManyUnchecked(ctx, signed.Inner.Meta.Guarantor, signed.Inner.Guarantee.Account, signed.Inner.Payload)
	if err != nil {
		return wire.WordGetManyResponse{}, err
	}
	return wire.WordGetManyResponse{Envelope: signed, Out: out}, nil
}

func (s *Server) handleWordCountGetMany(ctx context.Context, req wire.WordCountGetManyRequest) (wire.WordCountGetManyResponse, error) {
	signed, err := authorize(ctx, s, req.Envelope)
	if err != nil {
		return wire.WordCountGetManyResponse{}, err
	}
	out, err := s.store.GetWordCountManyUnchecked(ctx, signed.Inner.Guarantee.Account, signed.Inner.Payload)
	if err != nil {
		return wire.WordCountGetManyResponse{}, err
	}
	return wire.WordCountGetManyResponse{Envelope: signed, Out: out}, nil
}

func (s *Server) handleWordPut(ctx context.Context, req wire.WordPutRequest) (wire.WordPutResponse, error) {
	signed, err := authorize(ctx, s, req.Envelope)
	if err != nil {
		return wire.WordPutResponse{}, err
	}
	if err := s.store.PutWordUnchecked(ctx, signed, req.Parent); err != nil {
		return wire.WordPutResponse{}, err
	}
	return wire.WordPutResponse{Envelope: signed}, nil
}
