package ingress

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
)

func signWhatsApp(secret string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}

func TestVerifyWhatsApp_AcceptsValidSignature(t *testing.T) {
	body := []byte(`{"entry":[]}`)
	cfg := WhatsAppConfig{AppSecret: "appsecret"}
	r := httptest.NewRequest(http.MethodPost, "/whatsapp/webhook", nil)
	r.Header.Set("X-Hub-Signature-256", signWhatsApp(cfg.AppSecret, body))

	if err := VerifyWhatsApp(r, body, cfg); err != nil {
		t.Fatalf("VerifyWhatsApp: %v", err)
	}
}

func TestVerifyWhatsApp_RejectsTamperedBody(t *testing.T) {
	cfg := WhatsAppConfig{AppSecret: "appsecret"}
	r := httptest.NewRequest(http.MethodPost, "/whatsapp/webhook", nil)
	r.Header.Set("X-Hub-Signature-256", signWhatsApp(cfg.AppSecret, []byte(`{"entry":[]}`)))

	if err := VerifyWhatsApp(r, []byte(`{"entry":[{}]}`), cfg); err == nil {
		t.Fatal("expected error for tampered body")
	}
}

func TestHandshakeWhatsApp_MatchingTokenReturnsChallenge(t *testing.T) {
	cfg := WhatsAppConfig{VerifyToken: "verify-me"}
	challenge, ok := HandshakeWhatsApp("subscribe", "verify-me", "chal123", cfg)
	if !ok || challenge != "chal123" {
		t.Fatalf("challenge=%q ok=%v", challenge, ok)
	}
}

func TestHandshakeWhatsApp_WrongTokenFails(t *testing.T) {
	cfg := WhatsAppConfig{VerifyToken: "verify-me"}
	_, ok := HandshakeWhatsApp("subscribe", "wrong", "chal123", cfg)
	if ok {
		t.Fatal("expected handshake to fail")
	}
}

func TestNormalizeWhatsApp_ExtractsTextMessage(t *testing.T) {
	body := []byte(`{"entry":[{"changes":[{"value":{"messages":[{"id":"abc","from":"155512345","timestamp":"1700000000","type":"text","text":{"body":"hi"}}]}}]}]}`)
	envs, err := NormalizeWhatsApp("acme", body)
	if err != nil {
		t.Fatalf("NormalizeWhatsApp: %v", err)
	}
	if len(envs) != 1 {
		t.Fatalf("envs = %d, want 1", len(envs))
	}
	if envs[0].MsgID != "wa:abc" || envs[0].Text != "hi" {
		t.Fatalf("env = %+v", envs[0])
	}
}

func TestNormalizeWhatsApp_ButtonReplySetsPostback(t *testing.T) {
	body := []byte(`{"entry":[{"changes":[{"value":{"messages":[{"id":"abc","from":"155512345","timestamp":"1700000000","type":"interactive","interactive":{"button_reply":{"id":"opt_a"}}}]}}]}]}`)
	envs, err := NormalizeWhatsApp("acme", body)
	if err != nil {
		t.Fatalf("NormalizeWhatsApp: %v", err)
	}
	if envs[0].Context["postback"] != "opt_a" {
		t.Fatalf("postback = %v", envs[0].Context["postback"])
	}
}
