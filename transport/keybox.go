package transport

import (
	"sync"

	"github.com/opd-ai/virtualkvm/crypto"
)

// keyBox holds the session AEAD key installed partway through the
// handshake. It is shared (by pointer) between a transport's reader and
// writer halves after Split, so that SetKey on one side is visible to
// both without either holding a stale copy.
type keyBox struct {
	mu  sync.RWMutex
	key *crypto.AEAD
}

func (b *keyBox) set(k *crypto.AEAD) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.key = k
}

func (b *keyBox) get() *crypto.AEAD {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.key
}
