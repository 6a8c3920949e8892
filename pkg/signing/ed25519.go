package signing

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/ipdis-project/ipdis/pkg/model"
)

// Ed25519Signer is the concrete Signer capability. It is adapted from the
// teacher repo's core/security.go Sign/Verify pair, narrowed to the single
// Ed25519 algorithm IPDIS needs: the teacher's BLS12-381 branch, signature
// aggregation, and GF(256) Shamir-share reconstruction have no analogue in
// the signed-record protocol and are dropped (see DESIGN.md).
type Ed25519Signer struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

// NewEd25519Signer wraps an existing keypair.
func NewEd25519Signer(pub ed25519.PublicKey, priv ed25519.PrivateKey) (*Ed25519Signer, error) {
	if len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("signing: invalid ed25519 public key size %d", len(pub))
	}
	if priv != nil && len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("signing: invalid ed25519 private key size %d", len(priv))
	}
	return &Ed25519Signer{pub: pub, priv: priv}, nil
}

// GenerateEd25519Signer creates a fresh random keypair, for tests and
// bootstrap tooling.
func GenerateEd25519Signer() (*Ed25519Signer, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("signing: generate ed25519 keypair: %w", err)
	}
	return &Ed25519Signer{pub: pub, priv: priv}, nil
}

// Account returns the signer's public key as a model.Account.
func (s *Ed25519Signer) Account() model.Account {
	var a model.Account
	copy(a[:], s.pub)
	return a
}

// Sign signs msg with the signer's private key.
func (s *Ed25519Signer) Sign(msg []byte) ([]byte, error) {
	if s.priv == nil {
		return nil, errors.New("signing: signer holds no private key")
	}
	return ed25519.Sign(s.priv, msg), nil
}

// Verify checks sig against msg for the given account, independent of
// which keypair this Ed25519Signer itself holds.
func (s *Ed25519Signer) Verify(account model.Account, msg, sig []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(account[:]), msg, sig)
}

// PublicKey returns the raw Ed25519 public key bytes.
func (s *Ed25519Signer) PublicKey() ed25519.PublicKey { return s.pub }

// PrivateKey returns the raw Ed25519 private key bytes, or nil if this
// signer was constructed verify-only.
func (s *Ed25519Signer) PrivateKey() ed25519.PrivateKey { return s.priv }
