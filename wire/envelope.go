package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// MessageWithNonce is the unit that actually crosses the network: an
// encoded Message, plaintext before key install or AEAD ciphertext after,
// alongside the nonce it was sealed under. On the reliable channel it is
// additionally prefixed with a 4-byte little-endian length; on the
// datagram channel it is the entire packet body.
type MessageWithNonce struct {
	Message []byte
	Nonce   [12]byte
}

// EncodeWithNonce wraps an already-encoded (and possibly encrypted)
// message body together with its nonce into the outer frame shape.
func EncodeWithNonce(body []byte, nonce [12]byte) ([]byte, error) {
	data, err := encMode.Marshal(MessageWithNonce{Message: body, Nonce: nonce})
	if err != nil {
		return nil, fmt.Errorf("wire: encode MessageWithNonce: %w", err)
	}
	return data, nil
}

// DecodeWithNonce parses the outer frame shape, returning the inner
// message body (still encrypted if a key is installed) and its nonce.
func DecodeWithNonce(data []byte) (body []byte, nonce [12]byte, err error) {
	var m MessageWithNonce
	if err := cbor.Unmarshal(data, &m); err != nil {
		return nil, nonce, fmt.Errorf("wire: decode MessageWithNonce: %w", err)
	}
	return m.Message, m.Nonce, nil
}
