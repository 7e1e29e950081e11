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

func TestWebexSender_Send_BuildsRoomAndParentID(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"webex-msg-1"}`))
	}))
	defer srv.Close()

	sender := &WebexSender{Client: srv.Client(), BaseURL: srv.URL}
	msg := models.OutMessage{ChatID: "room1", ThreadID: "parent1", Kind: models.OutText, Text: "hi"}
	render := cardir.RenderResult{Payload: map[string]interface{}{"markdown": "hi"}}

	result, err := sender.Send(context.Background(), "tok", msg, render)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("auth = %q, want Bearer tok", gotAuth)
	}
	if gotBody["roomId"] != "room1" {
		t.Fatalf("roomId = %v, want room1", gotBody["roomId"])
	}
	if gotBody["parentId"] != "parent1" {
		t.Fatalf("parentId = %v, want parent1", gotBody["parentId"])
	}
	if result.MessageID != "webex-msg-1" {
		t.Fatalf("message id = %q, want webex-msg-1", result.MessageID)
	}
}
