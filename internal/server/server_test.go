package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ipdis-project/ipdis/internal/transport"
	"github.com/ipdis-project/ipdis/pkg/client"
	"github.com/ipdis-project/ipdis/pkg/hashutil"
	"github.com/ipdis-project/ipdis/pkg/ipdiserr"
	"github.com/ipdis-project/ipdis/pkg/model"
	"github.com/ipdis-project/ipdis/pkg/signing"
)

// TestServeReturnsWireErrorOnMalformedRequest exercises the full path spec
// §7 describes ("failures are reported to the caller as an error
// response") end to end over a real TCP connection: a malformed request
// must come back as a decodable error, not a dropped connection.
func TestServeReturnsWireErrorOnMalformedRequest(t *testing.T) {
	guarantorSigner, err := signing.GenerateEd25519Signer()
	if err != nil {
		t.Fatalf("generate guarantor signer: %v", err)
	}
	st := newFakeStore()
	tp := transport.NewTCPTransport(guarantorSigner.Account(), time.Second, time.Second)
	ln, err := tp.Listen(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	srv := New(ln, st, guarantorSigner)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Serve(ctx)

	// Submit as the guarantor's own account so self-authentication (spec
	// §4.2) skips the registry check entirely and the malformed-range
	// error from GetWordManyUnchecked is the only thing that can fire.
	clientTp := transport.NewTCPTransport(guarantorSigner.Account(), time.Second, time.Second)
	pool := transport.NewPool(clientTp, 2, time.Minute)
	defer pool.Close()
	c := client.New(guarantorSigner, pool, nil)

	reqCtx, reqCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer reqCancel()

	_, err = c.GetWords(reqCtx, ln.Addr(), guarantorSigner.Account(), model.GetWords{
		Word:       model.WordKeyHash{Namespace: hashutil.SumString("ns")},
		StartIndex: 5,
		EndIndex:   5,
	})
	if err == nil {
		t.Fatal("expected an error for a malformed [5, 5) range")
	}
	if !errors.Is(err, ipdiserr.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}
