package handshake

import (
	"fmt"

	"github.com/opd-ai/virtualkvm/crypto"
	"github.com/opd-ai/virtualkvm/transport"
	"github.com/opd-ai/virtualkvm/wire"
	"github.com/sirupsen/logrus"
)

// ClientResult is what a successful Connect yields: the session key both
// sides now share.
type ClientResult struct {
	Key *crypto.AEAD
}

// Connect runs the client side of the five-step handshake over t,
// announcing clientAddr (the datagram endpoint the server should use to
// reach this client) as the first step. t must not have had SetKey called
// on it yet.
func Connect(t *transport.Reliable, clientAddr string) (*ClientResult, error) {
	logger := logrus.WithFields(logrus.Fields{"function": "Connect", "package": "handshake"})

	if err := t.Send(wire.ClientInit{Addr: clientAddr}); err != nil {
		return nil, fmt.Errorf("handshake: send ClientInit: %w", err)
	}

	serverPub, err := receiveExchangePubKey(t)
	if err != nil {
		return nil, err
	}
	logger.Debug("received server public key")

	clientKeys, err := crypto.GenerateEphemeral()
	if err != nil {
		return nil, fmt.Errorf("handshake: generate client ephemeral keypair: %w", err)
	}

	if err := t.Send(wire.ExchangePubKey{PubKey: clientKeys.Public()}); err != nil {
		return nil, fmt.Errorf("handshake: send client public key: %w", err)
	}

	if err := receiveExchangePubKeyResponse(t); err != nil {
		return nil, err
	}

	key, err := crypto.DeriveAEAD(clientKeys, serverPub)
	if err != nil {
		return nil, err
	}
	t.SetKey(key)

	if err := t.Send(wire.Handshake{}); err != nil {
		return nil, fmt.Errorf("handshake: send client handshake: %w", err)
	}

	if err := receiveHandshake(t); err != nil {
		return nil, err
	}

	logger.Info("handshake complete")
	return &ClientResult{Key: key}, nil
}

func receiveExchangePubKeyResponse(t *transport.Reliable) error {
	msg, err := t.Receive()
	if err != nil {
		return fmt.Errorf("handshake: receive ExchangePubKeyResponse: %w", err)
	}
	if _, ok := msg.(wire.ExchangePubKeyResponse); !ok {
		return fmt.Errorf("handshake: %w: expected ExchangePubKeyResponse, got %s", ErrUnexpectedMessage, msg.Tag())
	}
	return nil
}
