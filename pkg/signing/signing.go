// Package signing implements the guarantor/guarantee two-party endorsement
// protocol of spec §4.2: the guarantee signs the payload, the guarantor
// verifies and co-signs, producing a GuarantorSigned envelope.
package signing

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ipdis-project/ipdis/pkg/codec"
	"github.com/ipdis-project/ipdis/pkg/hashutil"
	"github.com/ipdis-project/ipdis/pkg/ipdiserr"
	"github.com/ipdis-project/ipdis/pkg/model"
)

// Signer is the capability bundle's signing primitive (spec §9: Transport,
// Signer, Store are the three named capabilities the core is generic
// over). Concrete implementations wire a real keypair; see Ed25519Signer.
type Signer interface {
	// Account returns the public account this signer signs for.
	Account() model.Account
	// Sign produces a signature over msg.
	Sign(msg []byte) ([]byte, error)
	// Verify reports whether sig is a valid signature over msg by account.
	Verify(account model.Account, msg, sig []byte) bool
}

// SignAsGuarantee builds a fresh envelope for payload p, addressed to
// server account target, and signs it as the guarantee (spec §4.2).
func SignAsGuarantee[T any](s Signer, target model.Account, p T, ttl *time.Duration) (model.GuaranteeSigned[T], error) {
	var zero model.GuaranteeSigned[T]

	encodedPayload, err := codec.Encode(p)
	if err != nil {
		return zero, ipdiserr.Malformed("sign_as_guarantee: encode payload: %v", err)
	}

	var expiry *time.Time
	if ttl != nil {
		t := time.Now().UTC().Add(*ttl)
		expiry = &t
	}

	meta := model.Metadata{
		CreatedDate:    time.Now().UTC(),
		ExpirationDate: expiry,
		Guarantor:      target,
		Hash:           hashutil.Sum(encodedPayload),
	}
	nonce, err := uuid.NewRandom()
	if err != nil {
		return zero, fmt.Errorf("sign_as_guarantee: generate nonce: %w", err)
	}
	copy(meta.Nonce[:], nonce[:])

	encodedMeta, err := codec.Encode(meta)
	if err != nil {
		return zero, ipdiserr.Malformed("sign_as_guarantee: encode metadata: %v", err)
	}

	sig, err := s.Sign(append(append([]byte{}, encodedPayload...), encodedMeta...))
	if err != nil {
		return zero, fmt.Errorf("sign_as_guarantee: sign: %w", err)
	}

	return model.GuaranteeSigned[T]{
		Guarantee: model.Identity{Account: s.Account(), Signature: sig},
		Payload:   p,
		Meta:      meta,
	}, nil
}

// SignAsGuarantor verifies the inbound guarantee signature and countersigns
// the envelope, producing the GuarantorSigned receipt of spec §4.2.
func SignAsGuarantor[T any](s Signer, env model.GuaranteeSigned[T]) (model.GuarantorSigned[T], error) {
	var zero model.GuarantorSigned[T]

	if env.Meta.Guarantor != s.Account() {
		return zero, ipdiserr.AuthFailure("sign_as_guarantor: envelope addressed to a different guarantor")
	}

	encodedPayload, err := codec.Encode(env.Payload)
	if err != nil {
		return zero, ipdiserr.Malformed("sign_as_guarantor: encode payload: %v", err)
	}
	encodedMeta, err := codec.Encode(env.Meta)
	if err != nil {
		return zero, ipdiserr.Malformed("sign_as_guarantor: encode metadata: %v", err)
	}
	msg := append(append([]byte{}, encodedPayload...), encodedMeta...)
	if !s.Verify(env.Guarantee.Account, msg, env.Guarantee.Signature) {
		return zero, ipdiserr.AuthFailure("sign_as_guarantor: guarantee signature does not verify")
	}

	encodedEnv, err := codec.Encode(env)
	if err != nil {
		return zero, ipdiserr.Malformed("sign_as_guarantor: encode envelope: %v", err)
	}
	sig, err := s.Sign(encodedEnv)
	if err != nil {
		return zero, fmt.Errorf("sign_as_guarantor: sign: %w", err)
	}

	return model.GuarantorSigned[T]{
		Guarantor: model.Identity{Account: s.Account(), Signature: sig},
		Inner:     env,
	}, nil
}

// VerifyGuarantee reports whether env's guarantee signature is valid,
// independent of the full co-signing flow (spec P5).
func VerifyGuarantee[T any](s Signer, env model.GuaranteeSigned[T]) (bool, error) {
	encodedPayload, err := codec.Encode(env.Payload)
	if err != nil {
		return false, err
	}
	encodedMeta, err := codec.Encode(env.Meta)
	if err != nil {
		return false, err
	}
	msg := append(append([]byte{}, encodedPayload...), encodedMeta...)
	return s.Verify(env.Guarantee.Account, msg, env.Guarantee.Signature), nil
}

// VerifyGuarantor reports whether env's guarantor signature is valid over
// the encoded inner envelope (spec P5).
func VerifyGuarantor[T any](s Signer, env model.GuarantorSigned[T]) (bool, error) {
	encodedInner, err := codec.Encode(env.Inner)
	if err != nil {
		return false, err
	}
	return s.Verify(env.Guarantor.Account, encodedInner, env.Guarantor.Signature), nil
}
