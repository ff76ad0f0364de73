package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/curve25519"
)

// ErrNonContributory is returned by [DeriveAEAD] when the Diffie-Hellman
// exchange produced an all-zero shared secret. A contributory peer can never
// produce this result; seeing it means the peer's public key was chosen
// adversarially (e.g. the identity element) and the session must not proceed.
var ErrNonContributory = errors.New("crypto: diffie-hellman result was non-contributory")

// EphemeralKeyPair is a session-scoped X25519 keypair. It is generated fresh
// for every handshake and discarded with the process; nothing here is ever
// written to disk.
type EphemeralKeyPair struct {
	public  [32]byte
	private [32]byte
}

// GenerateEphemeral samples a new random X25519 keypair suitable for one
// handshake.
func GenerateEphemeral() (*EphemeralKeyPair, error) {
	logger := logrus.WithFields(logrus.Fields{"function": "GenerateEphemeral", "package": "crypto"})

	var private [32]byte
	if _, err := rand.Read(private[:]); err != nil {
		logger.WithError(err).Error("failed to read random bytes for ephemeral private key")
		return nil, fmt.Errorf("generate ephemeral keypair: %w", err)
	}
	clamp(&private)

	var public [32]byte
	curve25519.ScalarBaseMult(&public, &private)

	logger.WithFields(logrus.Fields{
		"public_key_preview": fmt.Sprintf("%x", public[:8]),
	}).Debug("generated ephemeral X25519 keypair")

	return &EphemeralKeyPair{public: public, private: private}, nil
}

// Public returns the 32-byte public key to send to the peer.
func (kp *EphemeralKeyPair) Public() [32]byte {
	return kp.public
}

// Wipe securely erases the private scalar. Call once the derived AEAD key
// has been produced; it is safe to call more than once.
func (kp *EphemeralKeyPair) Wipe() {
	ZeroBytes(kp.private[:])
}

// clamp applies the standard Curve25519 clamping to a candidate private
// scalar, per RFC 7748.
func clamp(private *[32]byte) {
	private[0] &= 248
	private[31] &= 127
	private[31] |= 64
}
