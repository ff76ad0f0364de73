package transport

import (
	"fmt"

	"github.com/opd-ai/virtualkvm/crypto"
	"github.com/opd-ai/virtualkvm/wire"
)

// sealMessage runs a Message through the encode-encrypt-wrap pipeline
// shared by both the reliable and datagram channels: serialize, encrypt
// under key if one is installed (else pass through with a zeroed nonce),
// then wrap as a MessageWithNonce.
func sealMessage(msg wire.Message, key *crypto.AEAD) ([]byte, error) {
	plaintext, err := wire.Encode(msg)
	if err != nil {
		return nil, fmt.Errorf("transport: serialize message: %w", err)
	}

	var nonce [12]byte
	body := plaintext
	if key != nil {
		ciphertext, n, err := key.Encrypt(plaintext)
		if err != nil {
			return nil, fmt.Errorf("transport: encrypt message: %w", err)
		}
		body, nonce = ciphertext, n
	}

	framed, err := wire.EncodeWithNonce(body, nonce)
	if err != nil {
		return nil, fmt.Errorf("transport: serialize frame: %w", err)
	}
	return framed, nil
}

// openMessage reverses sealMessage: unwrap the MessageWithNonce, decrypt if
// a key is installed, and deserialize the resulting Message.
func openMessage(framed []byte, key *crypto.AEAD) (wire.Message, error) {
	body, nonce, err := wire.DecodeWithNonce(framed)
	if err != nil {
		return nil, fmt.Errorf("transport: deserialize frame: %w", err)
	}

	plaintext := body
	if key != nil {
		plaintext, err = key.Decrypt(body, nonce)
		if err != nil {
			return nil, fmt.Errorf("transport: decrypt message: %w", err)
		}
	}

	msg, err := wire.Decode(plaintext)
	if err != nil {
		return nil, fmt.Errorf("transport: deserialize message: %w", err)
	}
	return msg, nil
}
