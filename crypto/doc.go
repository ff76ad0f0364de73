// Package crypto implements the cryptographic primitives used to establish
// and run an encrypted session between the KVM server and one of its
// clients.
//
// # Core types
//
//   - [EphemeralKeyPair]: an X25519 keypair generated fresh for a single
//     session and never persisted.
//   - [AEAD]: the authenticated-encryption capability ([transport] and
//     [handshake] are generic over it) backed by ChaCha20-Poly1305.
//
// # Key agreement
//
//	secret, err := crypto.GenerateEphemeral()
//	// ... exchange secret.Public() with the peer ...
//	aead, err := crypto.DeriveAEAD(secret, peerPublicKey)
//
// [DeriveAEAD] rejects a non-contributory Diffie-Hellman result (the shared
// secret coming back all-zero), which would otherwise silently produce a
// predictable session key.
//
// # Secure memory handling
//
// Ephemeral private key material is wiped with [ZeroBytes] as soon as it
// has served its purpose.
package crypto
