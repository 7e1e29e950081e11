package actionlink

import (
	"context"
	"time"

	"github.com/greentic/messaging-fabric/internal/kv"
)

// NonceStore enforces single-use redemption of a minted link's nonce.
type NonceStore interface {
	// Consume marks nonce as redeemed, returning false if it was
	// already used (or already expired out of the store).
	Consume(ctx context.Context, nonce string, ttl time.Duration) (bool, error)
}

// KVNonceStore adapts a kv.Store to NonceStore: the nonce's presence
// in the store IS the "already redeemed" marker, so Consume is just a
// CreateIfAbsent with the link's own TTL.
type KVNonceStore struct {
	store kv.Store
}

// NewKVNonceStore wraps store for nonce tracking.
func NewKVNonceStore(store kv.Store) *KVNonceStore {
	return &KVNonceStore{store: store}
}

func (n *KVNonceStore) Consume(ctx context.Context, nonce string, ttl time.Duration) (bool, error) {
	created, err := n.store.CreateIfAbsent(ctx, "actionlink:nonce:"+nonce, []byte("1"), ttl)
	if err != nil {
		return false, err
	}
	return created, nil
}
