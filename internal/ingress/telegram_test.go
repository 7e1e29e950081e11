package ingress

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestVerifyTelegram_AcceptsMatchingToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/telegram/webhook", nil)
	r.Header.Set("X-Telegram-Bot-Api-Secret-Token", "s3cr3t")
	if err := VerifyTelegram(r, TelegramConfig{SecretToken: "s3cr3t"}); err != nil {
		t.Fatalf("VerifyTelegram: %v", err)
	}
}

func TestVerifyTelegram_RejectsMismatch(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/telegram/webhook", nil)
	r.Header.Set("X-Telegram-Bot-Api-Secret-Token", "wrong")
	if err := VerifyTelegram(r, TelegramConfig{SecretToken: "s3cr3t"}); err == nil {
		t.Fatal("expected error for mismatched token")
	}
}

func TestNormalizeTelegram_ExtractsMessage(t *testing.T) {
	body := []byte(`{"update_id":1,"message":{"message_id":42,"date":1700000000,"text":"hello","chat":{"id":100},"from":{"id":7}}}`)
	env, ok, err := NormalizeTelegram("acme", body)
	if err != nil {
		t.Fatalf("NormalizeTelegram: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true")
	}
	if env.MsgID != "tg:42" {
		t.Fatalf("MsgID = %q", env.MsgID)
	}
	if env.ChatID != "100" || env.UserID != "7" {
		t.Fatalf("ChatID/UserID = %q/%q", env.ChatID, env.UserID)
	}
	if env.Text != "hello" {
		t.Fatalf("Text = %q", env.Text)
	}
}

func TestNormalizeTelegram_CallbackQuerySetsPostback(t *testing.T) {
	body := []byte(`{"update_id":2,"callback_query":{"id":"cb1","from":{"id":7},"message":{"message_id":5,"chat":{"id":100}},"data":"opt_a"}}`)
	env, ok, err := NormalizeTelegram("acme", body)
	if err != nil {
		t.Fatalf("NormalizeTelegram: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true")
	}
	if env.Context["postback"] != "opt_a" {
		t.Fatalf("postback = %v", env.Context["postback"])
	}
}

func TestNormalizeTelegram_NoMessageYieldsNotOK(t *testing.T) {
	body := []byte(`{"update_id":3}`)
	_, ok, err := NormalizeTelegram("acme", body)
	if err != nil {
		t.Fatalf("NormalizeTelegram: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for empty update")
	}
}
