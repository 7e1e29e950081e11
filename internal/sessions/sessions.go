// Package sessions provides the flow runner's per-(tenant, user)
// session lookup: one session per user, looked up before execution
// and updated after (spec §4.5, §3 "Session").
package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/greentic/messaging-fabric/pkg/models"
)

// Store is the session persistence seam. The runner looks a session
// up by (tenant_ctx, user_id) before execution and writes it back
// after, creating one if none existed (spec §4.5).
type Store interface {
	Get(ctx context.Context, env, tenant, userID string) (*models.Session, bool, error)
	Put(ctx context.Context, userID string, session *models.Session) error
	Delete(ctx context.Context, env, tenant, userID string) error
}

// Memory is a thread-safe in-memory Store, the OSS-shipped backend.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session // key: env:tenant:user
}

// NewMemory creates an empty in-memory session store.
func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]*models.Session)}
}

func key(env, tenant, userID string) string {
	return env + ":" + tenant + ":" + userID
}

// Get looks up the session for a (tenant, user) pair. ok=false means
// no session exists yet and the runner should start empty state.
func (s *Memory) Get(_ context.Context, env, tenant, userID string) (*models.Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[key(env, tenant, userID)]
	if !ok {
		return nil, false, nil
	}
	cp := *sess
	return &cp, true, nil
}

// Put creates or overwrites the session for userID, stamping UpdatedAt.
func (s *Memory) Put(_ context.Context, userID string, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.UpdatedAt = time.Now().UTC()
	cp := *session
	s.sessions[key(session.Ctx.Env, session.Ctx.Tenant, userID)] = &cp
	return nil
}

// Delete removes a session, if any.
func (s *Memory) Delete(_ context.Context, env, tenant, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key(env, tenant, userID))
	return nil
}
