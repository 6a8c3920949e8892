// Package client is the IPDIS RPC client library: it signs a payload as
// the local guarantee, sends it over a transport.Pool connection to a
// guarantor server, and decodes the countersigned reply. One method per
// wire.Tag, mirroring internal/server's dispatch table from the caller's
// side.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/ipdis-project/ipdis/internal/transport"
	"github.com/ipdis-project/ipdis/pkg/ipdiserr"
	"github.com/ipdis-project/ipdis/pkg/model"
	"github.com/ipdis-project/ipdis/pkg/signing"
	"github.com/ipdis-project/ipdis/pkg/wire"
)

// Client issues signed RPCs to one or more guarantor servers, reusing
// connections through a transport.Pool.
type Client struct {
	signer signing.Signer
	pool   *transport.Pool
	ttl    *time.Duration
}

// New builds a Client that signs outbound envelopes with signer and dials
// through pool. ttl, if non-nil, is applied as every envelope's expiry
// window (spec §3's ExpirationDate).
func New(signer signing.Signer, pool *transport.Pool, ttl *time.Duration) *Client {
	return &Client{signer: signer, pool: pool, ttl: ttl}
}

func roundTrip[Req, Resp any](ctx context.Context, c *Client, addr string, tag wire.Tag, req Req) (Resp, error) {
	var zero Resp

	conn, err := c.pool.Acquire(ctx, addr)
	if err != nil {
		return zero, fmt.Errorf("client: acquire connection to %s: %w", addr, err)
	}
	ok := false
	defer func() {
		if ok {
			c.pool.Release(addr, conn)
		} else {
			_ = conn.Close()
		}
	}()

	msg, err := wire.EncodeMessage(tag, req)
	if err != nil {
		return zero, fmt.Errorf("client: encode %s request: %w", tag, err)
	}
	if err := conn.WriteMessage(ctx, msg); err != nil {
		return zero, fmt.Errorf("client: send %s request: %w", tag, err)
	}
	raw, err := conn.ReadMessage(ctx)
	if err != nil {
		return zero, fmt.Errorf("client: read %s response: %w", tag, err)
	}
	respTag, err := wire.PeekTag(raw)
	if err != nil {
		return zero, err
	}
	if respTag == wire.TagError {
		_, errResp, err := wire.DecodeMessage[wire.ErrorResponse](raw)
		if err != nil {
			return zero, fmt.Errorf("client: decode %s error response: %w", tag, err)
		}
		ok = true
		return zero, ipdiserr.FromKindName(errResp.Kind, errResp.Message)
	}
	_, resp, err := wire.DecodeMessage[Resp](raw)
	if err != nil {
		return zero, err
	}
	ok = true
	return resp, nil
}

// PutGuarantee registers self as the submitted guarantee, delegated to
// guarantor, at addr.
func (c *Client) PutGuarantee(ctx context.Context, addr string, guarantor model.Account) (wire.GuaranteePutResponse, error) {
	env, err := signing.SignAsGuarantee(c.signer, guarantor, model.AccountRef{Account: c.signer.Account()}, c.ttl)
	if err != nil {
		return wire.GuaranteePutResponse{}, err
	}
	return roundTrip[wire.GuaranteePutRequest, wire.GuaranteePutResponse](ctx, c, addr, wire.TagGuaranteePut,
		wire.GuaranteePutRequest{Envelope: env})
}

// GetDynPath resolves the current path bound to (namespace, kind, word)
// under guarantor, or a nil Out if unbound.
func (c *Client) GetDynPath(ctx context.Context, addr string, guarantor model.Account, namespace, kind, word model.Hash) (wire.DynPathGetResponse, error) {
	env, err := signing.SignAsGuarantee(c.signer, guarantor,
		model.DynPath[wire.NoPath]{Namespace: namespace, Kind: kind, Word: word}, c.ttl)
	if err != nil {
		return wire.DynPathGetResponse{}, err
	}
	return roundTrip[wire.DynPathGetRequest, wire.DynPathGetResponse](ctx, c, addr, wire.TagDynPathGet,
		wire.DynPathGetRequest{Envelope: env})
}

// PutDynPath binds (namespace, kind, word) to path under guarantor.
func (c *Client) PutDynPath(ctx context.Context, addr string, guarantor model.Account, namespace, kind, word model.Hash, path model.Path) (wire.DynPathPutResponse, error) {
	env, err := signing.SignAsGuarantee(c.signer, guarantor,
		model.DynPath[model.Path]{Namespace: namespace, Kind: kind, Word: word, Path: path}, c.ttl)
	if err != nil {
		return wire.DynPathPutResponse{}, err
	}
	return roundTrip[wire.DynPathPutRequest, wire.DynPathPutResponse](ctx, c, addr, wire.TagDynPathPut,
		wire.DynPathPutRequest{Envelope: env})
}

// GetWords fetches the [StartIndex, EndIndex) page of occurrences matching
// params under guarantor.
func (c *Client) GetWords(ctx context.Context, addr string, guarantor model.Account, params model.GetWords) (wire.WordGetManyResponse, error) {
	env, err := signing.SignAsGuarantee(c.signer, guarantor, params, c.ttl)
	if err != nil {
		return wire.WordGetManyResponse{}, err
	}
	return roundTrip[wire.WordGetManyRequest, wire.WordGetManyResponse](ctx, c, addr, wire.TagWordGetMany,
		wire.WordGetManyRequest{Envelope: env})
}

// GetWordCounts fetches per-kind occurrence counts matching params under
// guarantor.
func (c *Client) GetWordCounts(ctx context.Context, addr string, guarantor model.Account, params model.GetWordsCounts) (wire.WordCountGetManyResponse, error) {
	env, err := signing.SignAsGuarantee(c.signer, guarantor, params, c.ttl)
	if err != nil {
		return wire.WordCountGetManyResponse{}, err
	}
	return roundTrip[wire.WordCountGetManyRequest, wire.WordCountGetManyResponse](ctx, c, addr, wire.TagWordCountGetMany,
		wire.WordCountGetManyRequest{Envelope: env})
}

// PutWord records a new word occurrence, with parent as its duplicate-of
// hash (the zero Hash if it has none).
func (c *Client) PutWord(ctx context.Context, addr string, guarantor model.Account, w model.WordHash, parent model.Hash) (wire.WordPutResponse, error) {
	env, err := signing.SignAsGuarantee(c.signer, guarantor, w, c.ttl)
	if err != nil {
		return wire.WordPutResponse{}, err
	}
	return roundTrip[wire.WordPutRequest, wire.WordPutResponse](ctx, c, addr, wire.TagWordPut,
		wire.WordPutRequest{Envelope: env, Parent: parent})
}
