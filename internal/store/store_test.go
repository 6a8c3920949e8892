package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ipdis-project/ipdis/pkg/model"
	"github.com/ipdis-project/ipdis/pkg/signing"
)

// These tests exercise the real Postgres-backed Store and only run when
// IPDIS_TEST_DATABASE_URL points at a scratch database — there is no
// in-memory Postgres substitute in the retrieval pack, and faking pgx at
// this layer would just be testing the fake. Set the env var locally or
// in CI against a disposable instance to run them.
func testStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("IPDIS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("IPDIS_TEST_DATABASE_URL not set, skipping Postgres-backed test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	st, err := Open(ctx, url)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(st.Close)
	return st
}

func signedAccountRef(t *testing.T, guarantee, guarantor *signing.Ed25519Signer) model.GuarantorSigned[model.AccountRef] {
	t.Helper()
	env, err := signing.SignAsGuarantee(guarantee, guarantor.Account(), model.AccountRef{Account: guarantee.Account()}, nil)
	if err != nil {
		t.Fatalf("sign_as_guarantee: %v", err)
	}
	signed, err := signing.SignAsGuarantor(guarantor, env)
	if err != nil {
		t.Fatalf("sign_as_guarantor: %v", err)
	}
	return signed
}

func TestEnsureRegisteredSelfShortCircuits(t *testing.T) {
	st := testStore(t)
	signer, _ := signing.GenerateEd25519Signer()

	if err := st.EnsureRegistered(context.Background(), signer.Account(), signer.Account()); err != nil {
		t.Fatalf("expected self-authentication to short-circuit, got %v", err)
	}
}

func TestEnsureRegisteredRequiresActiveDelegation(t *testing.T) {
	st := testStore(t)
	guarantee, _ := signing.GenerateEd25519Signer()
	guarantor, _ := signing.GenerateEd25519Signer()

	if err := st.EnsureRegistered(context.Background(), guarantee.Account(), guarantor.Account()); err == nil {
		t.Fatal("expected a failure before any delegation is registered")
	}

	if err := st.AddGuaranteeUnchecked(context.Background(), signedAccountRef(t, guarantee, guarantor)); err != nil {
		t.Fatalf("add guarantee: %v", err)
	}

	if err := st.EnsureRegistered(context.Background(), guarantee.Account(), guarantor.Account()); err != nil {
		t.Fatalf("expected the registered delegation to authorize, got %v", err)
	}
}

func TestDynPathPutThenGetReturnsLatest(t *testing.T) {
	st := testStore(t)
	guarantor, _ := signing.GenerateEd25519Signer()

	namespace := model.Hash{1}
	kind := model.Hash{2}
	word := model.Hash{3}

	for i, pathValue := range []string{"path-v1", "path-v2"} {
		env, err := signing.SignAsGuarantee(guarantor, guarantor.Account(), model.DynPath[model.Path]{
			Namespace: namespace, Kind: kind, Word: word,
			Path: model.Path{Value: pathValue, Len: int64(i)},
		}, nil)
		if err != nil {
			t.Fatalf("sign_as_guarantee: %v", err)
		}
		signed, err := signing.SignAsGuarantor(guarantor, env)
		if err != nil {
			t.Fatalf("sign_as_guarantor: %v", err)
		}
		if err := st.PutDynPathUnchecked(context.Background(), signed); err != nil {
			t.Fatalf("put dyn path %d: %v", i, err)
		}
		time.Sleep(10 * time.Millisecond) // ensure distinct created_date ordering
	}

	got, err := st.GetDynPathUnchecked(context.Background(), guarantor.Account(), guarantor.Account(), namespace, kind, word)
	if err != nil {
		t.Fatalf("get dyn path: %v", err)
	}
	if got.Inner.Payload.Path.Value != "path-v2" {
		t.Fatalf("expected the most recently written binding, got %q", got.Inner.Payload.Path.Value)
	}
}
