// Package providerinstall holds the binding between a tenant and a
// configured provider instance (spec §3 "ProviderInstallState"): a
// pack/provider combination routed to one platform channel, with
// pointers into the config and secrets backends rather than the
// values themselves.
package providerinstall

import (
	"context"
	"sync"

	"github.com/greentic/messaging-fabric/pkg/models"
)

// ErrNotFound mirrors the teacher's store.ErrNotFound shape: an
// entity/key pair rather than a bare sentinel, so callers can report
// exactly what was missing.
type ErrNotFound struct {
	Entity string
	Key    string
}

func (e *ErrNotFound) Error() string {
	return e.Entity + " not found: " + e.Key
}

// ErrDuplicateInstall is returned by Insert when install_id already
// exists for (tenant, provider_id).
type ErrDuplicateInstall struct {
	Tenant     string
	ProviderID string
	InstallID  string
}

func (e *ErrDuplicateInstall) Error() string {
	return "provider install already exists: " + e.Tenant + "/" + e.ProviderID + "/" + e.InstallID
}

// Store is the provider-install persistence seam. Insert is the only
// writer; reads never block on each other (spec §5 "readers use a
// shared lock; writers take an exclusive lock").
type Store interface {
	Insert(ctx context.Context, state models.ProviderInstallState) error
	Get(ctx context.Context, tenant, providerID, installID string) (models.ProviderInstallState, error)
	GetByRouting(ctx context.Context, tenant, providerID string, platform models.Platform, channelID string) (models.ProviderInstallState, error)
	ListByTenant(ctx context.Context, tenant string) []models.ProviderInstallState
	Delete(ctx context.Context, tenant, providerID, installID string) error
}

// installKey identifies one install record.
type installKey struct {
	tenant     string
	providerID string
	installID  string
}

// routingKey identifies the (platform, channel) an install is bound to.
type routingKey struct {
	tenant     string
	providerID string
	platform   models.Platform
	channelID  string
}

// Memory is the in-memory two-index Store (spec §3/§5), grounded on
// the teacher's internal/store/memory.go map-plus-RWMutex idiom:
// installs keyed by (tenant, provider_id, install_id), a second index
// mapping (tenant, provider_id, platform, channel_id) back to the
// install key so routing lookups never walk the full install set.
type Memory struct {
	mu       sync.RWMutex
	installs map[installKey]models.ProviderInstallState
	routing  map[routingKey]installKey
}

// NewMemory builds an empty provider-install store.
func NewMemory() *Memory {
	return &Memory{
		installs: make(map[installKey]models.ProviderInstallState),
		routing:  make(map[routingKey]installKey),
	}
}

// Insert records a new install. The routing index is written before
// the install record (spec §5 ordering invariant: "writers must
// insert the routing entry before the install record so readers
// never observe a routing hit to a missing install") so a concurrent
// reader can never resolve a routing key to an absent install.
func (m *Memory) Insert(_ context.Context, state models.ProviderInstallState) error {
	ik := installKey{tenant: state.Tenant, providerID: state.ProviderID, installID: state.InstallID}
	rk := routingKey{tenant: state.Tenant, providerID: state.ProviderID, platform: state.RoutingPlatform, channelID: state.RoutingChannelID}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.installs[ik]; exists {
		return &ErrDuplicateInstall{Tenant: state.Tenant, ProviderID: state.ProviderID, InstallID: state.InstallID}
	}

	m.routing[rk] = ik
	m.installs[ik] = state
	return nil
}

func (m *Memory) Get(_ context.Context, tenant, providerID, installID string) (models.ProviderInstallState, error) {
	ik := installKey{tenant: tenant, providerID: providerID, installID: installID}

	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.installs[ik]
	if !ok {
		return models.ProviderInstallState{}, &ErrNotFound{Entity: "provider_install", Key: tenant + "/" + providerID + "/" + installID}
	}
	return state, nil
}

func (m *Memory) GetByRouting(_ context.Context, tenant, providerID string, platform models.Platform, channelID string) (models.ProviderInstallState, error) {
	rk := routingKey{tenant: tenant, providerID: providerID, platform: platform, channelID: channelID}

	m.mu.RLock()
	defer m.mu.RUnlock()

	ik, ok := m.routing[rk]
	if !ok {
		return models.ProviderInstallState{}, &ErrNotFound{Entity: "provider_install_routing", Key: tenant + "/" + providerID + "/" + string(platform) + "/" + channelID}
	}
	state, ok := m.installs[ik]
	if !ok {
		// Unreachable under the insert ordering invariant above, but
		// guarded rather than assumed.
		return models.ProviderInstallState{}, &ErrNotFound{Entity: "provider_install", Key: tenant + "/" + providerID + "/" + ik.installID}
	}
	return state, nil
}

func (m *Memory) ListByTenant(_ context.Context, tenant string) []models.ProviderInstallState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.ProviderInstallState, 0)
	for k, state := range m.installs {
		if k.tenant == tenant {
			out = append(out, state)
		}
	}
	return out
}

// Delete removes both indexes for an install. Routing is removed
// first so a concurrent reader never observes a routing hit whose
// install record has already vanished, the same ordering discipline
// Insert applies on the write side.
func (m *Memory) Delete(_ context.Context, tenant, providerID, installID string) error {
	ik := installKey{tenant: tenant, providerID: providerID, installID: installID}

	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.installs[ik]
	if !ok {
		return &ErrNotFound{Entity: "provider_install", Key: tenant + "/" + providerID + "/" + installID}
	}
	rk := routingKey{tenant: state.Tenant, providerID: state.ProviderID, platform: state.RoutingPlatform, channelID: state.RoutingChannelID}
	delete(m.routing, rk)
	delete(m.installs, ik)
	return nil
}
