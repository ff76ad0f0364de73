package handshake

import (
	"fmt"

	"github.com/opd-ai/virtualkvm/crypto"
	"github.com/opd-ai/virtualkvm/transport"
	"github.com/opd-ai/virtualkvm/wire"
	"github.com/sirupsen/logrus"
)

// ServerResult is what a successful Accept yields: the session key both
// sides now share, and the datagram endpoint the client reported.
type ServerResult struct {
	Key        *crypto.AEAD
	ClientAddr string
}

// Accept runs the server side of the five-step handshake over t. t must
// not have had SetKey called on it yet.
func Accept(t *transport.Reliable) (*ServerResult, error) {
	logger := logrus.WithFields(logrus.Fields{"function": "Accept", "package": "handshake"})

	addr, err := receiveClientInit(t)
	if err != nil {
		return nil, err
	}
	logger.WithField("client_addr", addr).Debug("received ClientInit")

	serverKeys, err := crypto.GenerateEphemeral()
	if err != nil {
		return nil, fmt.Errorf("handshake: generate server ephemeral keypair: %w", err)
	}
	serverPub := serverKeys.Public()

	if err := t.Send(wire.ExchangePubKey{PubKey: serverPub}); err != nil {
		return nil, fmt.Errorf("handshake: send server public key: %w", err)
	}

	clientPub, err := receiveExchangePubKey(t)
	if err != nil {
		return nil, err
	}
	logger.Debug("received client public key")

	if err := t.Send(wire.ExchangePubKeyResponse{}); err != nil {
		return nil, fmt.Errorf("handshake: send public key ack: %w", err)
	}

	key, err := crypto.DeriveAEAD(serverKeys, clientPub)
	if err != nil {
		return nil, err
	}
	t.SetKey(key)

	if err := receiveHandshake(t); err != nil {
		return nil, err
	}

	if err := t.Send(wire.Handshake{}); err != nil {
		return nil, fmt.Errorf("handshake: send server handshake: %w", err)
	}

	logger.WithField("client_addr", addr).Info("handshake complete")
	return &ServerResult{Key: key, ClientAddr: addr}, nil
}

func receiveClientInit(t *transport.Reliable) (string, error) {
	msg, err := t.Receive()
	if err != nil {
		return "", fmt.Errorf("handshake: receive ClientInit: %w", err)
	}
	init, ok := msg.(wire.ClientInit)
	if !ok {
		return "", fmt.Errorf("handshake: %w: expected ClientInit, got %s", ErrUnexpectedMessage, msg.Tag())
	}
	return init.Addr, nil
}

func receiveExchangePubKey(t *transport.Reliable) ([32]byte, error) {
	msg, err := t.Receive()
	if err != nil {
		return [32]byte{}, fmt.Errorf("handshake: receive ExchangePubKey: %w", err)
	}
	exch, ok := msg.(wire.ExchangePubKey)
	if !ok {
		return [32]byte{}, fmt.Errorf("handshake: %w: expected ExchangePubKey, got %s", ErrUnexpectedMessage, msg.Tag())
	}
	return exch.PubKey, nil
}

func receiveHandshake(t *transport.Reliable) error {
	msg, err := t.Receive()
	if err != nil {
		return fmt.Errorf("handshake: receive Handshake: %w", err)
	}
	if _, ok := msg.(wire.Handshake); !ok {
		return fmt.Errorf("handshake: %w: expected Handshake, got %s", ErrUnexpectedMessage, msg.Tag())
	}
	return nil
}
