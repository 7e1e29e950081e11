// Package webchat implements enough of the Direct Line protocol for
// third-party web-chat widgets, backed internally by the same bus and
// secrets seams every other platform uses (spec §4.7).
package webchat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/greentic/messaging-fabric/pkg/models"
)

// MaxActivitiesPerConversation bounds one conversation's in-memory
// activity log (spec §3 "capped at 1024 entries per conversation").
const MaxActivitiesPerConversation = 1024

// ErrQuotaExceeded is returned by Append once a conversation has
// reached MaxActivitiesPerConversation.
var ErrQuotaExceeded = fmt.Errorf("%w: conversation activity quota exceeded", models.ErrQuotaExceeded)

// ErrConversationNotFound is returned by any lookup against an
// unknown conversation id.
type ErrConversationNotFound struct {
	ConversationID string
}

func (e *ErrConversationNotFound) Error() string {
	return "conversation not found: " + e.ConversationID
}

// ConversationStore is the Create/Append/Activities/TenantCtx/
// Subscribe contract spec §4.7 names. MemoryStore is the only
// implementation shipped; a production deployment backs it with
// Redis or SQLite without changing this interface (see DESIGN.md).
type ConversationStore interface {
	Create(ctx context.Context, tctx models.TenantContext) (conversationID string, err error)
	Append(ctx context.Context, conversationID string, activity map[string]interface{}) (models.StoredActivity, error)
	Activities(ctx context.Context, conversationID string, sinceWatermark uint64) ([]models.StoredActivity, uint64, error)
	TenantCtx(ctx context.Context, conversationID string) (models.TenantContext, error)
	Subscribe(ctx context.Context, conversationID string) (<-chan models.StoredActivity, func(), error)
	// ListProactive returns every conversation id scoped to (env,
	// tenant, team) whose proactive flag was set via SetProactive.
	ListProactive(ctx context.Context, env, tenant, team string) []string
	SetProactive(ctx context.Context, conversationID string, ok bool) error
}

type conversation struct {
	mu         sync.Mutex
	tctx       models.TenantContext
	activities []models.StoredActivity
	watermark  uint64
	proactive  bool
	subs       []chan models.StoredActivity
}

// MemoryStore is the in-memory ConversationStore (spec §3/§4.7):
// per-conversation mutex guarding append/watermark, a shared lock only
// for the top-level conversation-id map, grounded on the same
// mutex-plus-map idiom as internal/sessions and internal/kv.
type MemoryStore struct {
	mu    sync.RWMutex
	convs map[string]*conversation
}

// NewMemoryStore builds an empty conversation store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{convs: make(map[string]*conversation)}
}

func (m *MemoryStore) Create(_ context.Context, tctx models.TenantContext) (string, error) {
	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.convs[id] = &conversation{tctx: tctx}
	return id, nil
}

func (m *MemoryStore) get(conversationID string) (*conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.convs[conversationID]
	if !ok {
		return nil, &ErrConversationNotFound{ConversationID: conversationID}
	}
	return c, nil
}

// Append fills in missing id/type/timestamp/conversation.id fields
// (spec §3 "append fills in missing id, type, timestamp, and
// conversation.id on the activity"), assigns the next watermark, and
// broadcasts to subscribers before returning.
func (m *MemoryStore) Append(_ context.Context, conversationID string, activity map[string]interface{}) (models.StoredActivity, error) {
	c, err := m.get(conversationID)
	if err != nil {
		return models.StoredActivity{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.activities) >= MaxActivitiesPerConversation {
		return models.StoredActivity{}, ErrQuotaExceeded
	}

	filled := make(map[string]interface{}, len(activity)+4)
	for k, v := range activity {
		filled[k] = v
	}
	if _, ok := filled["id"]; !ok {
		filled["id"] = uuid.NewString()
	}
	if _, ok := filled["type"]; !ok {
		filled["type"] = "message"
	}
	if _, ok := filled["timestamp"]; !ok {
		filled["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	}
	filled["conversation"] = map[string]interface{}{"id": conversationID}

	stored := models.StoredActivity{Watermark: c.watermark, Activity: filled}
	c.watermark++
	c.activities = append(c.activities, stored)

	for _, sub := range c.subs {
		select {
		case sub <- stored:
		default:
		}
	}
	return stored, nil
}

// Activities returns every activity with watermark >= sinceWatermark,
// plus the conversation's next watermark.
func (m *MemoryStore) Activities(_ context.Context, conversationID string, sinceWatermark uint64) ([]models.StoredActivity, uint64, error) {
	c, err := m.get(conversationID)
	if err != nil {
		return nil, 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.StoredActivity, 0, len(c.activities))
	for _, a := range c.activities {
		if a.Watermark >= sinceWatermark {
			out = append(out, a)
		}
	}
	return out, c.watermark, nil
}

func (m *MemoryStore) TenantCtx(_ context.Context, conversationID string) (models.TenantContext, error) {
	c, err := m.get(conversationID)
	if err != nil {
		return models.TenantContext{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tctx, nil
}

// Subscribe registers a buffered channel that receives every activity
// appended from this point on. The returned func unsubscribes; callers
// must call it to avoid leaking the channel once they stop reading.
func (m *MemoryStore) Subscribe(_ context.Context, conversationID string) (<-chan models.StoredActivity, func(), error) {
	c, err := m.get(conversationID)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan models.StoredActivity, 16)
	c.mu.Lock()
	c.subs = append(c.subs, ch)
	c.mu.Unlock()

	unsubscribe := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, sub := range c.subs {
			if sub == ch {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				break
			}
		}
		close(ch)
	}
	return ch, unsubscribe, nil
}

func (m *MemoryStore) SetProactive(_ context.Context, conversationID string, ok bool) error {
	c, err := m.get(conversationID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.proactive = ok
	return nil
}

func (m *MemoryStore) ListProactive(_ context.Context, env, tenant, team string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for id, c := range m.convs {
		c.mu.Lock()
		match := c.proactive && c.tctx.Env == env && c.tctx.Tenant == tenant && (team == "" || c.tctx.Team == team)
		c.mu.Unlock()
		if match {
			out = append(out, id)
		}
	}
	return out
}
