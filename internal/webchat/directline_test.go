package webchat_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/greentic/messaging-fabric/internal/bus"
	"github.com/greentic/messaging-fabric/internal/secrets"
	"github.com/greentic/messaging-fabric/internal/webchat"
	"github.com/greentic/messaging-fabric/pkg/models"
)

func fixedTenant(tctx models.TenantContext) func(*http.Request) models.TenantContext {
	return func(*http.Request) models.TenantContext { return tctx }
}

func TestHandler_GenerateToken_RejectsWrongSecret(t *testing.T) {
	backend := secrets.NewMemory()
	backend.Set("prod", "acme", "", webchat.ChannelSecretKey, "s3cr3t")
	h := webchat.NewHandler(webchat.NewMemoryStore(), backend, bus.NewLocal(), nil)

	req := httptest.NewRequest(http.MethodPost, "/tokens/generate", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()

	h.GenerateToken(fixedTenant(models.TenantContext{Env: "prod", Tenant: "acme"}))(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestHandler_GenerateToken_AcceptsCorrectSecret(t *testing.T) {
	backend := secrets.NewMemory()
	backend.Set("prod", "acme", "", webchat.ChannelSecretKey, "s3cr3t")
	h := webchat.NewHandler(webchat.NewMemoryStore(), backend, bus.NewLocal(), nil)

	req := httptest.NewRequest(http.MethodPost, "/tokens/generate", nil)
	req.Header.Set("Authorization", "Bearer s3cr3t")
	w := httptest.NewRecorder()

	h.GenerateToken(fixedTenant(models.TenantContext{Env: "prod", Tenant: "acme"}))(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["token"] == "" || body["token"] == nil {
		t.Fatal("expected a non-empty token")
	}
}

func TestHandler_StartConversation_CreatesConversation(t *testing.T) {
	store := webchat.NewMemoryStore()
	h := webchat.NewHandler(store, secrets.NewMemory(), bus.NewLocal(), nil)

	req := httptest.NewRequest(http.MethodPost, "/conversations", nil)
	w := httptest.NewRecorder()

	h.StartConversation(fixedTenant(models.TenantContext{Env: "prod", Tenant: "acme"}))(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["conversationId"] == "" || body["conversationId"] == nil {
		t.Fatal("expected a non-empty conversationId")
	}
}

func TestHandler_PostThenGetActivities_RoundTrips(t *testing.T) {
	store := webchat.NewMemoryStore()
	h := webchat.NewHandler(store, secrets.NewMemory(), bus.NewLocal(), nil)
	ctx := context.Background()
	id, err := store.Create(ctx, models.TenantContext{Env: "prod", Tenant: "acme"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	body, _ := json.Marshal(map[string]interface{}{"type": "message", "text": "hello"})
	postReq := httptest.NewRequest(http.MethodPost, "/conversations/"+id+"/activities", bytes.NewReader(body))
	postReq = withChiParam(postReq, "id", id)
	postW := httptest.NewRecorder()
	h.PostActivity(postW, postReq)
	if postW.Code != http.StatusOK {
		t.Fatalf("post status = %d, want 200, body=%s", postW.Code, postW.Body.String())
	}

	getReq := httptest.NewRequest(http.MethodGet, "/conversations/"+id+"/activities", nil)
	getReq = withChiParam(getReq, "id", id)
	getW := httptest.NewRecorder()
	h.GetActivities(getW, getReq)
	if getW.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", getW.Code)
	}
	var payload struct {
		Activities []map[string]interface{} `json:"activities"`
		Watermark  string                    `json:"watermark"`
	}
	if err := json.Unmarshal(getW.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Activities) != 1 || payload.Activities[0]["text"] != "hello" {
		t.Fatalf("activities = %+v, want one activity with text hello", payload.Activities)
	}
}

func TestHandler_PostActivity_MissingConversationReturnsNotFound(t *testing.T) {
	store := webchat.NewMemoryStore()
	h := webchat.NewHandler(store, secrets.NewMemory(), bus.NewLocal(), nil)

	body, _ := json.Marshal(map[string]interface{}{"type": "message"})
	req := httptest.NewRequest(http.MethodPost, "/conversations/missing/activities", bytes.NewReader(body))
	req = withChiParam(req, "id", "missing")
	w := httptest.NewRecorder()

	h.PostActivity(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
