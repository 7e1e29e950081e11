package webchat_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/greentic/messaging-fabric/internal/bus"
	"github.com/greentic/messaging-fabric/internal/secrets"
	"github.com/greentic/messaging-fabric/internal/webchat"
	"github.com/greentic/messaging-fabric/pkg/models"
)

func TestHandler_AdminBroadcast_ToNamedConversation(t *testing.T) {
	store := webchat.NewMemoryStore()
	ctx := context.Background()
	id, _ := store.Create(ctx, models.TenantContext{Env: "prod", Tenant: "acme"})
	h := webchat.NewHandler(store, secrets.NewMemory(), bus.NewLocal(), nil)

	body, _ := json.Marshal(webchat.BroadcastRequest{
		ConversationID: id,
		Activity:       map[string]interface{}{"type": "message", "text": "heads up"},
	})
	req := httptest.NewRequest(http.MethodPost, "/prod/acme/activities", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.AdminBroadcast("prod", "acme")(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", w.Code, w.Body.String())
	}
	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["delivered"] != float64(1) {
		t.Fatalf("delivered = %v, want 1", resp["delivered"])
	}

	activities, _, err := store.Activities(ctx, id, 0)
	if err != nil || len(activities) != 1 || activities[0].Activity["text"] != "heads up" {
		t.Fatalf("expected broadcast activity appended, got %+v err=%v", activities, err)
	}
}

func TestHandler_AdminBroadcast_ToProactiveConversationsOnly(t *testing.T) {
	store := webchat.NewMemoryStore()
	ctx := context.Background()
	proactiveID, _ := store.Create(ctx, models.TenantContext{Env: "prod", Tenant: "acme"})
	quietID, _ := store.Create(ctx, models.TenantContext{Env: "prod", Tenant: "acme"})
	_ = store.SetProactive(ctx, proactiveID, true)

	h := webchat.NewHandler(store, secrets.NewMemory(), bus.NewLocal(), nil)

	body, _ := json.Marshal(webchat.BroadcastRequest{
		Activity: map[string]interface{}{"type": "message", "text": "broadcast"},
	})
	req := httptest.NewRequest(http.MethodPost, "/prod/acme/activities", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.AdminBroadcast("prod", "acme")(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	quietActivities, _, _ := store.Activities(ctx, quietID, 0)
	if len(quietActivities) != 0 {
		t.Fatalf("expected no broadcast to non-proactive conversation, got %+v", quietActivities)
	}
	proactiveActivities, _, _ := store.Activities(ctx, proactiveID, 0)
	if len(proactiveActivities) != 1 {
		t.Fatalf("expected broadcast to proactive conversation, got %+v", proactiveActivities)
	}
}

func TestHandler_AdminBroadcast_RejectsMissingActivity(t *testing.T) {
	h := webchat.NewHandler(webchat.NewMemoryStore(), secrets.NewMemory(), bus.NewLocal(), nil)
	body, _ := json.Marshal(map[string]interface{}{"conversation_id": "conv1"})
	req := httptest.NewRequest(http.MethodPost, "/prod/acme/activities", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.AdminBroadcast("prod", "acme")(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
