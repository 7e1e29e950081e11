package egress

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/greentic/messaging-fabric/internal/cardir"
	"github.com/greentic/messaging-fabric/pkg/models"
)

func TestSlackSender_Send_BuildsChannelAndThreadTS(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true,"ts":"1234.5678"}`))
	}))
	defer srv.Close()

	sender := &SlackSender{Client: srv.Client(), BaseURL: srv.URL}
	msg := models.OutMessage{ChatID: "C123", ThreadID: "1111.2222", Kind: models.OutText, Text: "hi"}
	render := cardir.RenderResult{Payload: map[string]interface{}{"text": "hi"}}

	result, err := sender.Send(context.Background(), "tok", msg, render)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotBody["channel"] != "C123" {
		t.Fatalf("channel = %v, want C123", gotBody["channel"])
	}
	if gotBody["thread_ts"] != "1111.2222" {
		t.Fatalf("thread_ts = %v, want 1111.2222", gotBody["thread_ts"])
	}
	if result.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", result.StatusCode)
	}
	if result.MessageID != "1234.5678" {
		t.Fatalf("message id = %q, want 1234.5678", result.MessageID)
	}
}

func TestSlackSender_Send_TranslatesOKFalseIntoBadRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	}))
	defer srv.Close()

	sender := &SlackSender{Client: srv.Client(), BaseURL: srv.URL}
	msg := models.OutMessage{ChatID: "Cbad", Kind: models.OutText, Text: "hi"}
	render := cardir.RenderResult{Payload: map[string]interface{}{"text": "hi"}}

	result, err := sender.Send(context.Background(), "tok", msg, render)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if result.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 after ok:false translation", result.StatusCode)
	}
	if ClassifyStatus(result.StatusCode) != DispositionPermanent {
		t.Fatalf("expected Permanent disposition for ok:false")
	}
}
