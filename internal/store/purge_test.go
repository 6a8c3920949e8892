package store

import (
	"context"
	"testing"

	"github.com/ipdis-project/ipdis/pkg/hashutil"
	"github.com/ipdis-project/ipdis/pkg/ipdiserr"
	"github.com/ipdis-project/ipdis/pkg/model"
	"github.com/ipdis-project/ipdis/pkg/signing"
)

func TestDeleteWordAllUncheckedClearsWordsAndCounters(t *testing.T) {
	st := testStore(t)
	guarantor, _ := signing.GenerateEd25519Signer()

	namespace := hashutil.SumString("purge-ns")
	kind := hashutil.SumString("paragraph")
	lang := hashutil.SumString("en")
	word := hashutil.SumString("gone")
	key := model.WordKeyHash{Namespace: namespace, Text: model.TextHash{Lang: lang, Msg: word}}

	signed := signedWord(t, guarantor, model.WordHash{Key: key, Kind: kind})
	if err := st.PutWordUnchecked(context.Background(), signed, model.Hash{}); err != nil {
		t.Fatalf("put word: %v", err)
	}

	count, err := st.GetWordCountUnchecked(context.Background(), namespace, kind, model.Hash{}, lang, word, nil)
	if err != nil {
		t.Fatalf("get count before purge: %v", err)
	}
	if count != 1 {
		t.Fatalf("count before purge = %d, want 1", count)
	}

	if err := st.DeleteWordAllUnchecked(context.Background(), guarantor.Account(), namespace); err != nil {
		t.Fatalf("purge: %v", err)
	}

	out, err := st.GetWordManyUnchecked(context.Background(), guarantor.Account(), guarantor.Account(), model.GetWords{
		Word:     key,
		EndIndex: 10,
	})
	if err != nil {
		t.Fatalf("get words after purge: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no words after purge, got %d", len(out))
	}

	count, err = st.GetWordCountUnchecked(context.Background(), namespace, kind, model.Hash{}, lang, word, nil)
	if err != nil {
		t.Fatalf("get count after purge: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 count after purge, got %d", count)
	}
}

func TestDeleteDynPathAllUnchecked(t *testing.T) {
	st := testStore(t)
	guarantor, _ := signing.GenerateEd25519Signer()
	namespace := hashutil.SumString("purge-dynpaths")
	kind := model.Hash{9}
	word := model.Hash{8}

	env, err := signing.SignAsGuarantee(guarantor, guarantor.Account(), model.DynPath[model.Path]{
		Namespace: namespace, Kind: kind, Word: word, Path: model.Path{Value: "p"},
	}, nil)
	if err != nil {
		t.Fatalf("sign_as_guarantee: %v", err)
	}
	signed, err := signing.SignAsGuarantor(guarantor, env)
	if err != nil {
		t.Fatalf("sign_as_guarantor: %v", err)
	}
	if err := st.PutDynPathUnchecked(context.Background(), signed); err != nil {
		t.Fatalf("put dyn path: %v", err)
	}

	if err := st.DeleteDynPathAllUnchecked(context.Background(), guarantor.Account(), namespace); err != nil {
		t.Fatalf("purge dyn paths: %v", err)
	}

	if _, err := st.GetDynPathUnchecked(context.Background(), guarantor.Account(), guarantor.Account(), namespace, kind, word); !ipdiserr.IsNotFound(err) {
		t.Fatalf("expected not-found after purge, got %v", err)
	}
}
