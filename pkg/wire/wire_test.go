package wire

import (
	"testing"

	"github.com/ipdis-project/ipdis/pkg/model"
)

func TestEncodeDecodeMessageRoundTrip(t *testing.T) {
	req := GuaranteePutRequest{
		Envelope: model.GuaranteeSigned[model.AccountRef]{
			Payload: model.AccountRef{Account: model.Account{1, 2, 3}},
		},
	}

	msg, err := EncodeMessage(TagGuaranteePut, req)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	tag, err := PeekTag(msg)
	if err != nil {
		t.Fatalf("peek tag: %v", err)
	}
	if tag != TagGuaranteePut {
		t.Fatalf("peeked tag = %v, want %v", tag, TagGuaranteePut)
	}

	gotTag, got, err := DecodeMessage[GuaranteePutRequest](msg)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if gotTag != TagGuaranteePut {
		t.Fatalf("decoded tag = %v, want %v", gotTag, TagGuaranteePut)
	}
	if got.Envelope.Payload.Account != req.Envelope.Payload.Account {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, req)
	}
}

func TestDecodeMessageRejectsEmpty(t *testing.T) {
	if _, _, err := DecodeMessage[GuaranteePutRequest](nil); err == nil {
		t.Fatal("expected an error decoding an empty message")
	}
}

func TestTagString(t *testing.T) {
	cases := map[Tag]string{
		TagGuaranteePut:     "GuaranteePut",
		TagDynPathGet:       "DynPathGet",
		TagDynPathPut:       "DynPathPut",
		TagWordGetMany:      "WordGetMany",
		TagWordCountGetMany: "WordCountGetMany",
		TagWordPut:          "WordPut",
	}
	for tag, want := range cases {
		if got := tag.String(); got != want {
			t.Fatalf("Tag(%d).String() = %q, want %q", uint8(tag), got, want)
		}
	}
}
