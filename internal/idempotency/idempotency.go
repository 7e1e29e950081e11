// Package idempotency wraps a kv.Store with the (tenant, platform,
// msg_id) dedup key and the should_process semantics of spec §4.2.
package idempotency

import (
	"context"
	"time"

	"github.com/greentic/messaging-fabric/internal/kv"
	"github.com/greentic/messaging-fabric/pkg/models"
	"github.com/rs/zerolog/log"
)

// Key renders an IdempotencyKey as the colon-separated string the KV store
// uses, per spec §3.
func Key(tenant string, platform models.Platform, msgID string) string {
	return tenant + ":" + platform.String() + ":" + msgID
}

// Guard is the idempotency guard: should_process(tenant, platform,
// msg_id) -> first-sighting bool, backed by a kv.Store.
type Guard struct {
	store kv.Store
	ttl   time.Duration
}

// New builds a Guard. ttl is clamped to the spec's 60s minimum.
func New(store kv.Store, ttl time.Duration) *Guard {
	if ttl < 60*time.Second {
		ttl = 60 * time.Second
	}
	return &Guard{store: store, ttl: ttl}
}

// ShouldProcess reports whether this is the first sighting of the
// given message. On a KV error it logs and returns true (availability
// over correctness, per spec §4.2) — the caller degrades to
// at-least-once delivery rather than blocking ingress.
func (g *Guard) ShouldProcess(ctx context.Context, tenant string, platform models.Platform, msgID string) bool {
	key := Key(tenant, platform, msgID)
	seenAt, _ := time.Now().UTC().MarshalText()

	first, err := g.store.CreateIfAbsent(ctx, key, seenAt, g.ttl)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("idempotency store error, continuing in degraded mode")
		return true
	}
	return first
}
