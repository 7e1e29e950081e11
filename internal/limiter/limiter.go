// Package limiter implements the per-tenant backpressure limiter
// (spec §4.3): a local token bucket checked first, falling back to a
// shared KV counter when the local bucket is exhausted so multiple
// replicas coordinate without a central rate-limiting service.
package limiter

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/greentic/messaging-fabric/internal/kv"
	"golang.org/x/time/rate"
)

// Config is a single tenant's {rps, burst} pair.
type Config struct {
	RPS   float64
	Burst float64
}

// DefaultConfig is used for tenants absent from TENANT_RATE_LIMITS.
var DefaultConfig = Config{RPS: 5, Burst: 10}

// Permit is returned by Acquire; callers must Release it on every exit
// path, including error and cancellation (spec §9 "async resource
// scopes"). Permits carry no state beyond their existence and are not
// re-enterable.
type Permit struct {
	release func()
	once    sync.Once
}

// Release returns the permit. Safe to call more than once.
func (p *Permit) Release() {
	p.once.Do(func() {
		if p.release != nil {
			p.release()
		}
	})
}

// Hybrid is the per-tenant limiter described in spec §4.3: a local
// rate.Limiter is always consulted first; only when it is exhausted
// does Acquire fall back to the distributed KV counter.
type Hybrid struct {
	mu       sync.Mutex
	local    map[string]*rate.Limiter
	configs  map[string]Config
	fallback kv.Store
	window   time.Duration
}

// New builds a Hybrid limiter. configs maps tenant -> {rps, burst}
// (loaded from the TENANT_RATE_LIMITS JSON map per spec §4.3).
// fallback may be nil to run purely local (single-replica deployment).
func New(configs map[string]Config, fallback kv.Store) *Hybrid {
	return &Hybrid{
		local:    make(map[string]*rate.Limiter),
		configs:  configs,
		fallback: fallback,
		window:   time.Second,
	}
}

func (h *Hybrid) limiterFor(tenant string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	if l, ok := h.local[tenant]; ok {
		return l
	}
	cfg, ok := h.configs[tenant]
	if !ok {
		cfg = DefaultConfig
	}
	l := rate.NewLimiter(rate.Limit(cfg.RPS), int(cfg.Burst))
	h.local[tenant] = l
	return l
}

// Acquire blocks (cancellably) until a send slot is available for
// tenant, consulting the local bucket first and the distributed
// counter only on local exhaustion.
func (h *Hybrid) Acquire(ctx context.Context, tenant string) (*Permit, error) {
	l := h.limiterFor(tenant)

	if l.Allow() {
		return &Permit{release: func() {}}, nil
	}

	if h.fallback != nil {
		if ok, err := h.acquireDistributed(ctx, tenant); err == nil && ok {
			return &Permit{release: func() {}}, nil
		}
	}

	if err := l.Wait(ctx); err != nil {
		return nil, err
	}
	return &Permit{release: func() {}}, nil
}

// acquireDistributed consults a short-TTL per-tenant counter in the
// shared KV bucket so replicas coordinate without a central service.
// It is best-effort: a counter miss just means the caller falls
// through to the blocking local Wait.
func (h *Hybrid) acquireDistributed(ctx context.Context, tenant string) (bool, error) {
	cfg, ok := h.configs[tenant]
	if !ok {
		cfg = DefaultConfig
	}
	key := "backpressure:" + tenant + ":" + strconv.FormatInt(time.Now().Unix(), 10)
	first, err := h.fallback.CreateIfAbsent(ctx, key, []byte("1"), h.window)
	if err != nil {
		return false, err
	}
	// The window bucket didn't exist yet this second: this caller
	// gets to send. Only the first caller per one-second window is
	// granted; the tenant's rps/burst do not enter into this check.
	_ = cfg
	return first, nil
}

// SetConfig replaces the {rps, burst} for a tenant at runtime
// (process-wide config reload, spec §4.3).
func (h *Hybrid) SetConfig(tenant string, cfg Config) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.configs[tenant] = cfg
	delete(h.local, tenant) // re-create with new config on next use
}
