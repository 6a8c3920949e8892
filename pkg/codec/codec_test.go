package codec

import (
	"bytes"
	"testing"
)

type sample struct {
	Name  string   `cbor:"name"`
	Count uint32   `cbor:"count"`
	Bytes [32]byte `cbor:"bytes"`
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var want sample
	want.Name = "namespace"
	want.Count = 42
	for i := range want.Bytes {
		want.Bytes[i] = byte(i)
	}

	b, err := Encode(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode[sample](b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	v := sample{Name: "x", Count: 7}
	a, err := Encode(v)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	b, err := Encode(v)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("canonical encoding is not deterministic: %x != %x", a, b)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode[sample]([]byte{0xff, 0xff, 0xff}); err == nil {
		t.Fatal("expected decode error on malformed input")
	}
}
