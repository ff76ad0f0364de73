// Package handshake implements the five-step session establishment
// protocol run over a [transport.Reliable] channel before any input event
// or control message can be exchanged:
//
//  1. C -> S: ClientInit{addr}
//  2. S -> C: ExchangePubKey{S_pub}
//  3. C -> S: ExchangePubKey{C_pub}
//  4. S -> C: ExchangePubKeyResponse
//  5. both install the derived key; C -> S: Handshake, S -> C: Handshake
//
// Server returns the negotiated [crypto.AEAD] key plus the client's
// reported datagram address; Client returns just the key. Both abort with
// [ErrUnexpectedMessage] on any out-of-sequence message type and with
// [crypto.ErrNonContributory] if the Diffie-Hellman result is weak.
//
// The exchanged public keys are not authenticated: the handshake binds no
// identity to either side, and it adds no replay protection beyond the
// AEAD's per-message nonces.
package handshake
