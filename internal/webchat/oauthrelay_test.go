package webchat_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/greentic/messaging-fabric/internal/secrets"
	"github.com/greentic/messaging-fabric/internal/webchat"
	"github.com/greentic/messaging-fabric/pkg/models"
)

func setOAuthConnection(backend *secrets.Memory, env, tenant string, authURL, tokenURL string) {
	doc, _ := json.Marshal(map[string]string{
		"issuer":        "https://issuer.example",
		"client_id":     "client-123",
		"client_secret": "shh",
		"redirect_base": "https://fabric.example",
		"auth_url":      authURL,
		"token_url":     tokenURL,
	})
	backend.Set(env, tenant, "", webchat.OAuthConnectionKey, string(doc))
}

func TestOAuthRelay_AuthorizeURL_BuildsURLFromTenantConnection(t *testing.T) {
	backend := secrets.NewMemory()
	setOAuthConnection(backend, "prod", "acme", "https://issuer.example/authorize", "https://issuer.example/token")
	relay := webchat.NewOAuthRelay(backend)

	rawURL, err := relay.AuthorizeURL(context.Background(), models.TenantContext{Env: "prod", Tenant: "acme"}, "conv1", "state-xyz")
	if err != nil {
		t.Fatalf("AuthorizeURL: %v", err)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse authorize url: %v", err)
	}
	if parsed.Query().Get("client_id") != "client-123" {
		t.Fatalf("client_id = %q, want client-123", parsed.Query().Get("client_id"))
	}
	if parsed.Query().Get("state") != "state-xyz" {
		t.Fatalf("state = %q, want state-xyz", parsed.Query().Get("state"))
	}
	if parsed.Query().Get("redirect_uri") != "https://fabric.example/webchat/oauth/callback" {
		t.Fatalf("redirect_uri = %q", parsed.Query().Get("redirect_uri"))
	}
}

func TestOAuthRelay_AuthorizeURL_MissingConnectionErrors(t *testing.T) {
	relay := webchat.NewOAuthRelay(secrets.NewMemory())
	_, err := relay.AuthorizeURL(context.Background(), models.TenantContext{Env: "prod", Tenant: "globex"}, "conv1", "state")
	if err == nil {
		t.Fatal("expected error for tenant with no oauth connection configured")
	}
}

func TestOAuthRelay_ExchangeCallback_ReturnsOpaqueHandleNotRawToken(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "secret-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer tokenSrv.Close()

	backend := secrets.NewMemory()
	setOAuthConnection(backend, "prod", "acme", "https://issuer.example/authorize", tokenSrv.URL)
	relay := webchat.NewOAuthRelay(backend)

	handle, err := relay.ExchangeCallback(context.Background(), models.TenantContext{Env: "prod", Tenant: "acme"}, "conv1", "auth-code")
	if err != nil {
		t.Fatalf("ExchangeCallback: %v", err)
	}
	if handle.Handle == "" {
		t.Fatal("expected a non-empty opaque handle")
	}
}
