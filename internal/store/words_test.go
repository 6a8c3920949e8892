package store

import (
	"context"
	"testing"

	"github.com/ipdis-project/ipdis/pkg/hashutil"
	"github.com/ipdis-project/ipdis/pkg/model"
	"github.com/ipdis-project/ipdis/pkg/signing"
)

func signedWord(t *testing.T, guarantor *signing.Ed25519Signer, w model.WordHash) model.GuarantorSigned[model.WordHash] {
	t.Helper()
	env, err := signing.SignAsGuarantee(guarantor, guarantor.Account(), w, nil)
	if err != nil {
		t.Fatalf("sign_as_guarantee: %v", err)
	}
	signed, err := signing.SignAsGuarantor(guarantor, env)
	if err != nil {
		t.Fatalf("sign_as_guarantor: %v", err)
	}
	return signed
}

func TestPutWordUncheckedAdvancesBothCounters(t *testing.T) {
	st := testStore(t)
	guarantor, _ := signing.GenerateEd25519Signer()

	namespace := hashutil.SumString("docs")
	kind := hashutil.SumString("paragraph")
	lang := hashutil.SumString("en")
	word := hashutil.SumString("hello")
	key := model.WordKeyHash{Namespace: namespace, Text: model.TextHash{Lang: lang, Msg: word}}

	for i := 0; i < 3; i++ {
		w := model.WordHash{Key: key, Kind: kind}
		signed := signedWord(t, guarantor, w)
		if err := st.PutWordUnchecked(context.Background(), signed, model.Hash{}); err != nil {
			t.Fatalf("put word %d: %v", i, err)
		}
	}

	globalCount, err := st.GetWordCountUnchecked(context.Background(), namespace, kind, model.Hash{}, lang, word, nil)
	if err != nil {
		t.Fatalf("get global count: %v", err)
	}
	if globalCount != 3 {
		t.Fatalf("global count = %d, want 3", globalCount)
	}

	guaranteeAcct := guarantor.Account()
	ownedCount, err := st.GetWordCountUnchecked(context.Background(), namespace, kind, model.Hash{}, lang, word, &guaranteeAcct)
	if err != nil {
		t.Fatalf("get owned count: %v", err)
	}
	if ownedCount != 3 {
		t.Fatalf("owned count = %d, want 3", ownedCount)
	}
}

func TestGetWordManyUncheckedRejectsInvalidRange(t *testing.T) {
	st := testStore(t)
	guarantor, _ := signing.GenerateEd25519Signer()

	_, err := st.GetWordManyUnchecked(context.Background(), guarantor.Account(), guarantor.Account(), model.GetWords{
		StartIndex: 5,
		EndIndex:   5,
	})
	if err == nil {
		t.Fatal("expected an error for an empty [start, end) range")
	}
}

func TestGetWordManyUncheckedReturnsNewestFirst(t *testing.T) {
	st := testStore(t)
	guarantor, _ := signing.GenerateEd25519Signer()

	namespace := hashutil.SumString("docs2")
	kind := hashutil.SumString("paragraph")
	lang := hashutil.SumString("en")
	word := hashutil.SumString("world")
	key := model.WordKeyHash{Namespace: namespace, Text: model.TextHash{Lang: lang, Msg: word}}

	var paths []string
	for i := 0; i < 3; i++ {
		pathValue := string(rune('a' + i))
		paths = append(paths, pathValue)
		w := model.WordHash{Key: key, Kind: kind, Path: model.Path{Value: pathValue}}
		signed := signedWord(t, guarantor, w)
		if err := st.PutWordUnchecked(context.Background(), signed, model.Hash{}); err != nil {
			t.Fatalf("put word %d: %v", i, err)
		}
	}

	out, err := st.GetWordManyUnchecked(context.Background(), guarantor.Account(), guarantor.Account(), model.GetWords{
		Word:     key,
		EndIndex: 10,
	})
	if err != nil {
		t.Fatalf("get word many: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d words, want 3", len(out))
	}
	if out[0].Inner.Payload.Path.Value != paths[2] {
		t.Fatalf("expected the most recently inserted word first, got %q", out[0].Inner.Payload.Path.Value)
	}
}
