package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// encMode produces canonical CBOR: map keys sorted, integers in their
// shortest form. Two calls to Encode on equal messages always produce
// identical bytes.
var encMode = func() cbor.EncMode {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: invalid canonical CBOR options: %v", err))
	}
	return mode
}()

// envelope is the on-wire shape of every Message: a tag identifying the
// variant, and that variant's CBOR-encoded fields.
type envelope struct {
	Tag     Tag
	Payload cbor.RawMessage
}

// Encode serializes a Message into its deterministic binary form. The
// result is what MessageWithNonce.Message carries, either as cleartext
// (pre key-install) or as the plaintext input to AEAD.Encrypt.
func Encode(msg Message) ([]byte, error) {
	payload, err := encMode.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("wire: encode %s payload: %w", msg.Tag(), err)
	}

	data, err := encMode.Marshal(envelope{Tag: msg.Tag(), Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("wire: encode envelope: %w", err)
	}
	return data, nil
}

// Decode deserializes bytes produced by Encode back into a concrete
// Message. The returned value's dynamic type corresponds to the wire tag;
// callers type-switch on it to dispatch.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("wire: decode envelope: %w", err)
	}

	switch env.Tag {
	case TagInputEvent:
		var m InputEvent
		return decodePayload(env.Payload, &m)
	case TagTargetChangeNotification:
		var m TargetChangeNotification
		return decodePayload(env.Payload, &m)
	case TagTargetChangeResponse:
		var m TargetChangeResponse
		return decodePayload(env.Payload, &m)
	case TagClipboardChanged:
		var m ClipboardChanged
		return decodePayload(env.Payload, &m)
	case TagClientInit:
		var m ClientInit
		return decodePayload(env.Payload, &m)
	case TagExchangePubKey:
		var m ExchangePubKey
		return decodePayload(env.Payload, &m)
	case TagExchangePubKeyResponse:
		var m ExchangePubKeyResponse
		return decodePayload(env.Payload, &m)
	case TagHandshake:
		var m Handshake
		return decodePayload(env.Payload, &m)
	case TagHeartbeat:
		var m Heartbeat
		return decodePayload(env.Payload, &m)
	default:
		return nil, fmt.Errorf("wire: %w: tag %d", ErrUnknownTag, env.Tag)
	}
}

// decodePayload unmarshals raw into dst and returns *dst dereferenced as a
// Message, so each case in Decode's switch stays a one-liner.
func decodePayload[T Message](raw cbor.RawMessage, dst *T) (Message, error) {
	if err := cbor.Unmarshal(raw, dst); err != nil {
		return nil, fmt.Errorf("wire: decode %s payload: %w", (*dst).Tag(), err)
	}
	return *dst, nil
}
