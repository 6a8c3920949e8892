// Package server implements the RPC dispatch loop of spec §4.7: accept
// connections over the Transport capability, decode one tagged request at a
// time, run the decode -> sign_as_guarantor -> ensure_registered -> execute
// -> encode pipeline (GuaranteePut skips ensure_registered), and write back
// the tagged response. Shaped
// after the teacher repo's cmd/xchainserver and cmd/dexserver accept loops,
// generalized from their fixed per-protocol handlers into one generic
// dispatch table keyed by wire.Tag.
package server

import (
	"context"
	"errors"
	"io"

	"github.com/ipdis-project/ipdis/internal/logging"
	"github.com/ipdis-project/ipdis/internal/transport"
	"github.com/ipdis-project/ipdis/pkg/ipdiserr"
	"github.com/ipdis-project/ipdis/pkg/model"
	"github.com/ipdis-project/ipdis/pkg/signing"
	"github.com/ipdis-project/ipdis/pkg/wire"
)

// Store is the subset of internal/store.Store's API the dispatch table
// needs, pulled out as an interface so tests can exercise dispatch logic
// against a fake instead of a live Postgres connection. *store.Store
// satisfies this interface unmodified.
type Store interface {
	EnsureRegistered(ctx context.Context, guarantee, guarantor model.Account) error
	AddGuaranteeUnchecked(ctx context.Context, rec model.GuarantorSigned[model.AccountRef]) error
	GetDynPathUnchecked(ctx context.Context, guarantor, guarantee model.Account, namespace, kind, word model.Hash) (*model.GuarantorSigned[model.DynPath[model.Path]], error)
	PutDynPathUnchecked(ctx context.Context, rec model.GuarantorSigned[model.DynPath[model.Path]]) error
	GetWordManyUnchecked(ctx context.Context, guarantor, guarantee model.Account, params model.GetWords) ([]model.GuarantorSigned[model.WordHash], error)
	GetWordCountManyUnchecked(ctx context.Context, guarantee model.Account, params model.GetWordsCounts) ([]model.GetWordsCountsOutput, error)
	PutWordUnchecked(ctx context.Context, rec model.GuarantorSigned[model.WordHash], parent model.Hash) error
}

// Server owns the listener, the storage engine, and the signer identity
// that every inbound request is countersigned with.
type Server struct {
	listener transport.Listener
	store    Store
	signer   signing.Signer
}

// New wires a Server around an already-open Listener, Store, and Signer —
// the three capabilities of spec §9, concretely bound.
func New(ln transport.Listener, st Store, signer signing.Signer) *Server {
	return &Server{listener: ln, store: st, signer: signer}
}

// Serve accepts connections until ctx is cancelled or the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	for {
		conn, err := s.listener.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn transport.Conn) {
	defer conn.Close()
	log := logging.Logger().WithField("remote", conn.RemoteAccount())
	for {
		msg, err := conn.ReadMessage(ctx)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.WithError(err).Debug("server: connection closed")
			}
			return
		}
		reply, err := s.dispatch(ctx, msg)
		if err != nil {
			log.WithError(err).Warn("server: request failed")
			reply, err = wire.EncodeMessage(wire.TagError, wire.ErrorResponse{
				Kind:    ipdiserr.KindName(err),
				Message: err.Error(),
			})
			if err != nil {
				log.WithError(err).Warn("server: encode error response failed")
				return
			}
		}
		if err := conn.WriteMessage(ctx, reply); err != nil {
			log.WithError(err).Warn("server: write reply failed")
			return
		}
	}
}
