package crypto

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/curve25519"
)

// isContributory reports whether a Diffie-Hellman result is anything other
// than the all-zero identity element. X25519 is contributory for honestly
// generated keys; an all-zero result only arises from a maliciously chosen
// peer public key (a low-order point), and using it as a key would give
// every session the same, attacker-known secret.
func isContributory(sharedSecret []byte) bool {
	for _, b := range sharedSecret {
		if b != 0 {
			return true
		}
	}
	return false
}

// deriveSharedSecret computes the raw X25519 Diffie-Hellman output between
// our ephemeral private key and the peer's ephemeral public key.
func deriveSharedSecret(private [32]byte, peerPublic [32]byte) ([32]byte, error) {
	raw, err := curve25519.X25519(private[:], peerPublic[:])
	if err != nil {
		return [32]byte{}, fmt.Errorf("derive shared secret: %w", err)
	}
	defer ZeroBytes(raw)

	var result [32]byte
	copy(result[:], raw)
	return result, nil
}

// DeriveAEAD completes the handshake's key-agreement step: it performs the
// Diffie-Hellman exchange between kp and peerPublic, rejects a
// non-contributory result, and wraps the resulting 32 bytes as a
// ChaCha20-Poly1305 [AEAD] key. kp's private scalar is wiped before this
// function returns, contributory or not.
func DeriveAEAD(kp *EphemeralKeyPair, peerPublic [32]byte) (*AEAD, error) {
	logger := logrus.WithFields(logrus.Fields{"function": "DeriveAEAD", "package": "crypto"})
	defer kp.Wipe()

	secret, err := deriveSharedSecret(kp.private, peerPublic)
	if err != nil {
		return nil, err
	}
	defer ZeroBytes(secret[:])

	if !isContributory(secret[:]) {
		logger.Error("diffie-hellman result was non-contributory, aborting handshake")
		return nil, ErrNonContributory
	}

	aead, err := NewAEAD(secret)
	if err != nil {
		return nil, err
	}

	logger.Debug("derived session AEAD key from ephemeral diffie-hellman exchange")
	return aead, nil
}
