package webchat_test

import (
	"context"
	"testing"

	"github.com/greentic/messaging-fabric/internal/webchat"
	"github.com/greentic/messaging-fabric/pkg/models"
)

func testCtx() models.TenantContext {
	return models.TenantContext{Env: "prod", Tenant: "acme", Team: "support"}
}

func TestMemoryStore_CreateAndAppendFillsFields(t *testing.T) {
	store := webchat.NewMemoryStore()
	ctx := context.Background()

	id, err := store.Create(ctx, testCtx())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	stored, err := store.Append(ctx, id, map[string]interface{}{"text": "hi"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if stored.Watermark != 0 {
		t.Fatalf("first watermark = %d, want 0", stored.Watermark)
	}
	if stored.Activity["id"] == nil || stored.Activity["id"] == "" {
		t.Fatal("expected Append to fill in an id")
	}
	if stored.Activity["type"] != "message" {
		t.Fatalf("type = %v, want message", stored.Activity["type"])
	}
	if stored.Activity["timestamp"] == nil {
		t.Fatal("expected Append to fill in a timestamp")
	}
	conv, ok := stored.Activity["conversation"].(map[string]interface{})
	if !ok || conv["id"] != id {
		t.Fatalf("conversation.id = %v, want %v", stored.Activity["conversation"], id)
	}
}

func TestMemoryStore_AppendAssignsMonotonicWatermarks(t *testing.T) {
	store := webchat.NewMemoryStore()
	ctx := context.Background()
	id, _ := store.Create(ctx, testCtx())

	first, err := store.Append(ctx, id, map[string]interface{}{"text": "one"})
	if err != nil {
		t.Fatalf("Append 1: %v", err)
	}
	second, err := store.Append(ctx, id, map[string]interface{}{"text": "two"})
	if err != nil {
		t.Fatalf("Append 2: %v", err)
	}
	if second.Watermark != first.Watermark+1 {
		t.Fatalf("watermark did not increase monotonically: %d -> %d", first.Watermark, second.Watermark)
	}
}

func TestMemoryStore_ActivitiesFiltersBySinceWatermark(t *testing.T) {
	store := webchat.NewMemoryStore()
	ctx := context.Background()
	id, _ := store.Create(ctx, testCtx())

	for i := 0; i < 3; i++ {
		if _, err := store.Append(ctx, id, map[string]interface{}{"n": i}); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	activities, next, err := store.Activities(ctx, id, 1)
	if err != nil {
		t.Fatalf("Activities: %v", err)
	}
	if len(activities) != 2 {
		t.Fatalf("got %d activities since watermark 1, want 2", len(activities))
	}
	if next != 3 {
		t.Fatalf("next watermark = %d, want 3", next)
	}
}

func TestMemoryStore_AppendEnforcesQuota(t *testing.T) {
	store := webchat.NewMemoryStore()
	ctx := context.Background()
	id, _ := store.Create(ctx, testCtx())

	for i := 0; i < webchat.MaxActivitiesPerConversation; i++ {
		if _, err := store.Append(ctx, id, map[string]interface{}{"n": i}); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	if _, err := store.Append(ctx, id, map[string]interface{}{"n": "overflow"}); err != webchat.ErrQuotaExceeded {
		t.Fatalf("expected ErrQuotaExceeded at capacity, got %v", err)
	}
}

func TestMemoryStore_SubscribeReceivesAppendedActivity(t *testing.T) {
	store := webchat.NewMemoryStore()
	ctx := context.Background()
	id, _ := store.Create(ctx, testCtx())

	ch, unsubscribe, err := store.Subscribe(ctx, id)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer unsubscribe()

	if _, err := store.Append(ctx, id, map[string]interface{}{"text": "hello"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	select {
	case activity := <-ch:
		if activity.Activity["text"] != "hello" {
			t.Fatalf("broadcast activity text = %v, want hello", activity.Activity["text"])
		}
	default:
		t.Fatal("expected subscriber to receive the appended activity")
	}
}

func TestMemoryStore_ListProactiveFiltersByScopeAndFlag(t *testing.T) {
	store := webchat.NewMemoryStore()
	ctx := context.Background()

	id1, _ := store.Create(ctx, testCtx())
	id2, _ := store.Create(ctx, testCtx())
	id3, _ := store.Create(ctx, models.TenantContext{Env: "prod", Tenant: "globex"})

	if err := store.SetProactive(ctx, id1, true); err != nil {
		t.Fatalf("SetProactive id1: %v", err)
	}
	if err := store.SetProactive(ctx, id3, true); err != nil {
		t.Fatalf("SetProactive id3: %v", err)
	}
	_ = id2

	got := store.ListProactive(ctx, "prod", "acme", "")
	if len(got) != 1 || got[0] != id1 {
		t.Fatalf("ListProactive(prod, acme) = %v, want [%s]", got, id1)
	}
}

func TestMemoryStore_GetOnMissingConversationReturnsNotFound(t *testing.T) {
	store := webchat.NewMemoryStore()
	ctx := context.Background()

	if _, _, err := store.Activities(ctx, "missing", 0); err == nil {
		t.Fatal("expected error for missing conversation")
	}
}
