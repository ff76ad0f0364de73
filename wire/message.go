// Package wire defines the messages exchanged between the KVM server and
// its clients and the deterministic binary codec used to put them on the
// network.
//
// Every [Message] is one variant of a closed, nine-member tagged union.
// The wire tag for each variant is its declaration order below: InputEvent,
// TargetChangeNotification, TargetChangeResponse, ClipboardChanged,
// ClientInit, ExchangePubKey, ExchangePubKeyResponse, Handshake, Heartbeat.
// Both ends of a session must agree on this order.
package wire

import (
	"fmt"

	"github.com/opd-ai/virtualkvm/keys"
)

// Tag identifies which Message variant a frame carries.
type Tag uint8

const (
	TagInputEvent Tag = iota
	TagTargetChangeNotification
	TagTargetChangeResponse
	TagClipboardChanged
	TagClientInit
	TagExchangePubKey
	TagExchangePubKeyResponse
	TagHandshake
	TagHeartbeat

	tagCount
)

func (t Tag) String() string {
	switch t {
	case TagInputEvent:
		return "InputEvent"
	case TagTargetChangeNotification:
		return "TargetChangeNotification"
	case TagTargetChangeResponse:
		return "TargetChangeResponse"
	case TagClipboardChanged:
		return "ClipboardChanged"
	case TagClientInit:
		return "ClientInit"
	case TagExchangePubKey:
		return "ExchangePubKey"
	case TagExchangePubKeyResponse:
		return "ExchangePubKeyResponse"
	case TagHandshake:
		return "Handshake"
	case TagHeartbeat:
		return "Heartbeat"
	default:
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
}

// Valid reports whether t is one of the nine defined variants.
func (t Tag) Valid() bool {
	return t < tagCount
}

// Message is the sealed interface implemented by every variant in the
// tagged union. Tag identifies the concrete type for encoding/decoding
// purposes; it is never meant to be switched on directly by callers, who
// should instead type-switch on the concrete Message value.
type Message interface {
	Tag() Tag
}

// InputEvent carries a single captured or synthesized keyboard/mouse event
// from the device actor, routed by the state actor to the active target.
type InputEvent struct {
	Event keys.InputEvent
}

func (InputEvent) Tag() Tag { return TagInputEvent }

// TargetChangeNotification tells the outgoing target client that it is
// losing target status. On receipt the client requests a release of any
// keys it is currently holding synthesized and replies with
// TargetChangeResponse; the release runs on the client's datagram loop and
// the reply does not wait for it to complete.
type TargetChangeNotification struct{}

func (TargetChangeNotification) Tag() Tag { return TagTargetChangeNotification }

// TargetChangeResponse acknowledges a TargetChangeNotification, releasing
// the pending-target-change quiescence that buffers input events.
type TargetChangeResponse struct{}

func (TargetChangeResponse) Tag() Tag { return TagTargetChangeResponse }

// ClipboardChanged carries a clipboard content update between a client and
// the server. The server keeps the last value it receives and forwards it
// to no one; a client answers one with an empty ClipboardChanged as an
// acknowledgement.
type ClipboardChanged struct {
	Content string
}

func (ClipboardChanged) Tag() Tag { return TagClipboardChanged }

// ClientInit is the first message of the session handshake: the client
// reports the datagram endpoint the server should use to reach it.
type ClientInit struct {
	Addr string
}

func (ClientInit) Tag() Tag { return TagClientInit }

// ExchangePubKey carries one side's freshly generated ephemeral X25519
// public key during the handshake.
type ExchangePubKey struct {
	PubKey [32]byte
}

func (ExchangePubKey) Tag() Tag { return TagExchangePubKey }

// ExchangePubKeyResponse acknowledges receipt of the peer's public key,
// letting both sides proceed to derive the shared AEAD key.
type ExchangePubKeyResponse struct{}

func (ExchangePubKeyResponse) Tag() Tag { return TagExchangePubKeyResponse }

// Handshake is the first frame sent under the newly installed session key,
// confirming to the peer that key derivation succeeded on both ends.
type Handshake struct{}

func (Handshake) Tag() Tag { return TagHandshake }

// Heartbeat is sent periodically by both the server's per-client writer and
// the client's writer to detect a silently dead connection.
type Heartbeat struct{}

func (Heartbeat) Tag() Tag { return TagHeartbeat }
