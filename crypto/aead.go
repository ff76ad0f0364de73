package crypto

import (
	"crypto/rand"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/chacha20poly1305"
)

// NonceSize is the length in bytes of a ChaCha20-Poly1305 nonce, matching
// the wire format's MessageWithNonce.Nonce field.
const NonceSize = chacha20poly1305.NonceSize

// AEAD is the authenticated-encryption capability that [transport] and
// [handshake] are generic over: encrypt a plaintext into a ciphertext plus a
// freshly sampled nonce, and decrypt a ciphertext given its nonce. It is
// backed by ChaCha20-Poly1305 with the 32-byte key derived via
// [DeriveAEAD].
type AEAD struct {
	cipher cipherAEAD
}

// cipherAEAD is the subset of cipher.AEAD this package depends on, so tests
// can substitute a fake without pulling in the real primitive.
type cipherAEAD interface {
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
}

// NewAEAD constructs an AEAD from a raw 32-byte symmetric key, typically the
// output of a Diffie-Hellman exchange. Prefer [DeriveAEAD] for handshake
// use, which also performs the contributory check.
func NewAEAD(key [32]byte) (*AEAD, error) {
	cipher, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, fmt.Errorf("construct chacha20poly1305 cipher: %w", err)
	}
	return &AEAD{cipher: cipher}, nil
}

// Clone returns an independent AEAD handle backed by the same key material.
// The state actor and the client actor each hold their own clone of a
// client's key so that neither's lifecycle affects the other's.
func (a *AEAD) Clone() *AEAD {
	return &AEAD{cipher: a.cipher}
}

// Encrypt seals plaintext under a freshly sampled random nonce and returns
// both. A fresh nonce is sampled for every call; this package never reuses
// one, which is what makes random (rather than counter) nonces safe here.
func (a *AEAD) Encrypt(plaintext []byte) (ciphertext []byte, nonce [12]byte, err error) {
	if _, err = rand.Read(nonce[:]); err != nil {
		return nil, nonce, fmt.Errorf("sample nonce: %w", err)
	}
	ciphertext = a.cipher.Seal(nil, nonce[:], plaintext, nil)
	return ciphertext, nonce, nil
}

// Decrypt opens a ciphertext produced by [AEAD.Encrypt] (ours or a peer's,
// since both sides share the same key) using the nonce that traveled
// alongside it on the wire.
func (a *AEAD) Decrypt(ciphertext []byte, nonce [12]byte) ([]byte, error) {
	plaintext, err := a.cipher.Open(nil, nonce[:], ciphertext, nil)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "AEAD.Decrypt", "package": "crypto",
		}).Warn("authenticated decryption failed")
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plaintext, nil
}
