package cardir_test

import (
	"context"
	"strings"
	"testing"

	"github.com/greentic/messaging-fabric/internal/cardir"
	_ "github.com/greentic/messaging-fabric/internal/cardir/renderers"
	"github.com/greentic/messaging-fabric/internal/telemetry"
	"github.com/greentic/messaging-fabric/pkg/models"
)

func TestRender_SlackRoutesInputsToModal(t *testing.T) {
	raw := map[string]interface{}{
		"body": []interface{}{
			map[string]interface{}{"type": "TextBlock", "text": "Pick one"},
			map[string]interface{}{"type": "Input.Text", "id": "answer", "label": "Answer"},
		},
	}
	ir := cardir.NormalizeAdaptive(raw)

	result, err := cardir.Render(context.Background(), models.PlatformSlack, ir, nil, nil, telemetry.Labels{Tenant: "acme"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !result.UsedModal {
		t.Error("expected UsedModal = true when an Input element reaches Slack")
	}
	if result.Payload["type"] != "modal" {
		t.Errorf("Payload[type] = %v, want modal", result.Payload["type"])
	}
	blocks, ok := result.Payload["blocks"].([]map[string]interface{})
	if !ok || len(blocks) == 0 {
		t.Fatalf("Payload[blocks] = %#v, want non-empty block list", result.Payload["blocks"])
	}
}

func TestRender_TelegramClampsTo4096Chars(t *testing.T) {
	card := &models.MessageCard{
		Title: "Long",
		Body:  []models.CardBlock{{Kind: models.BlockText, Text: strings.Repeat("x", 5000)}},
	}
	ir := cardir.NormalizePlain(card)

	result, err := cardir.Render(context.Background(), models.PlatformTelegram, ir, nil, nil, telemetry.Labels{Tenant: "acme"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	text, _ := result.Payload["text"].(string)
	if len(text) > 4096 {
		t.Errorf("text length = %d, want <= 4096", len(text))
	}
	if !result.LimitExceeded {
		t.Error("expected LimitExceeded = true")
	}
}

func TestRender_BlocksDisallowedURL(t *testing.T) {
	cardir.SetURLAllowlist([]string{"https://trusted.example.com/"})
	defer cardir.SetURLAllowlist(nil)

	card := &models.MessageCard{
		Title:   "Click",
		Actions: []models.CardAction{{Kind: models.ActionOpenURL, Title: "Go", URL: "https://evil.example.com/x"}},
	}
	ir := cardir.NormalizePlain(card)

	result, err := cardir.Render(context.Background(), models.PlatformSlack, ir, nil, nil, telemetry.Labels{Tenant: "acme"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if result.URLBlockedCount != 1 {
		t.Errorf("URLBlockedCount = %d, want 1", result.URLBlockedCount)
	}
}

func TestRender_UnregisteredPlatformErrors(t *testing.T) {
	ir := cardir.NormalizePlain(&models.MessageCard{Title: "x"})
	_, err := cardir.Render(context.Background(), models.Platform("unknown"), ir, nil, nil, telemetry.Labels{Tenant: "acme"})
	if err == nil {
		t.Error("expected error for unregistered platform")
	}
}
