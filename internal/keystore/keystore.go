// Package keystore persists the server's Ed25519 signing key at rest,
// encrypted with XChaCha20-Poly1305. Adapted from the teacher repo's
// core/security.go Encrypt/Decrypt helpers, which wrap the same AEAD
// construction for the same reason (protect long-term key material on
// disk); this package adds the load/save/derive-key plumbing the teacher
// left to callers.
package keystore

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/chacha20poly1305"
	"lukechampine.com/blake3"

	"github.com/ipdis-project/ipdis/pkg/signing"
)

const aad = "ipdis-keystore-v1"

// deriveKey turns a passphrase into a 32-byte AEAD key with one blake3-256
// hash over a domain-separation prefix plus the passphrase, avoiding a second KDF dependency beyond the hashing
// library IPDIS already carries for content hashing.
func deriveKey(passphrase string) [32]byte {
	return blake3.Sum256([]byte("ipdis-keystore-kdf:" + passphrase))
}

// Encrypt seals plaintext under a key derived from passphrase.
func Encrypt(passphrase string, plaintext []byte) ([]byte, error) {
	key := deriveKey(passphrase)
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("keystore: init aead: %w", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("keystore: read nonce: %w", err)
	}
	ct := aead.Seal(nil, nonce, plaintext, []byte(aad))
	return append(nonce, ct...), nil
}

// Decrypt opens a blob produced by Encrypt.
func Decrypt(passphrase string, blob []byte) ([]byte, error) {
	key := deriveKey(passphrase)
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("keystore: init aead: %w", err)
	}
	minLen := chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead
	if len(blob) < minLen {
		return nil, errors.New("keystore: ciphertext too short")
	}
	nonce, ciphertext := blob[:chacha20poly1305.NonceSizeX], blob[chacha20poly1305.NonceSizeX:]
	pt, err := aead.Open(nil, nonce, ciphertext, []byte(aad))
	if err != nil {
		return nil, fmt.Errorf("keystore: decrypt: %w", err)
	}
	return pt, nil
}

// Generate creates a fresh Ed25519 keypair and writes it, encrypted, to
// path under passphrase.
func Generate(path, passphrase string) (*signing.Ed25519Signer, error) {
	s, err := signing.GenerateEd25519Signer()
	if err != nil {
		return nil, err
	}
	if err := Save(path, passphrase, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Save encrypts s's private key material to path.
func Save(path, passphrase string, s *signing.Ed25519Signer) error {
	blob, err := Encrypt(passphrase, s.PrivateKey())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, blob, 0o600); err != nil {
		return fmt.Errorf("keystore: write %s: %w", path, err)
	}
	return nil
}

// Load reads and decrypts the signing key at path.
func Load(path, passphrase string) (*signing.Ed25519Signer, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keystore: read %s: %w", path, err)
	}
	raw, err := Decrypt(passphrase, blob)
	if err != nil {
		return nil, err
	}
	priv := ed25519.PrivateKey(raw)
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("keystore: invalid private key material")
	}
	return signing.NewEd25519Signer(pub, priv)
}

// LoadOrGenerate loads the key at path, generating and persisting a fresh
// one if the file does not yet exist.
func LoadOrGenerate(path, passphrase string) (*signing.Ed25519Signer, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Generate(path, passphrase)
	}
	return Load(path, passphrase)
}
