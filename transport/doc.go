// Package transport implements the two wire-level channels the KVM system
// runs on: a reliable, length-prefixed framing over TCP for control and
// handshake traffic, and a one-packet-per-message datagram channel over UDP
// for latency-sensitive input events.
//
// Both channels are generic over an [crypto.AEAD]-shaped encryption
// capability: frames are plaintext (with a zeroed nonce) before a session
// key is installed via SetKey, and ciphertext afterward. Neither channel
// cares what kind of [wire.Message] it is carrying; the handshake package
// is the one that interprets message contents.
package transport
