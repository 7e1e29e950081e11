package cardir_test

import (
	"testing"

	"github.com/greentic/messaging-fabric/internal/cardir"
	"github.com/greentic/messaging-fabric/pkg/models"
)

func TestNormalizePlain_DerivesBasicTier(t *testing.T) {
	card := &models.MessageCard{
		Title: "Hello",
		Body:  []models.CardBlock{{Kind: models.BlockText, Text: "world"}},
	}
	ir := cardir.NormalizePlain(card)
	if ir.Tier != cardir.TierBasic {
		t.Errorf("Tier = %q, want %q", ir.Tier, cardir.TierBasic)
	}
	if len(ir.Elements) != 1 || ir.Elements[0].Kind != cardir.ElementText {
		t.Fatalf("Elements = %#v, want one text element", ir.Elements)
	}
}

func TestNormalizePlain_ImageDerivesAdvancedTier(t *testing.T) {
	card := &models.MessageCard{
		Title: "Hello",
		Body:  []models.CardBlock{{Kind: models.BlockImage, URL: "https://example.com/a.png"}},
	}
	ir := cardir.NormalizePlain(card)
	if ir.Tier != cardir.TierAdvanced {
		t.Errorf("Tier = %q, want %q", ir.Tier, cardir.TierAdvanced)
	}
}

func TestNormalizePlain_MergesConsecutiveFacts(t *testing.T) {
	card := &models.MessageCard{
		Title: "Status",
		Body: []models.CardBlock{
			{Kind: models.BlockFact, Label: "Region", Value: "eu-west"},
			{Kind: models.BlockFact, Label: "State", Value: "ok"},
		},
	}
	ir := cardir.NormalizePlain(card)
	if len(ir.Elements) != 1 {
		t.Fatalf("Elements = %d, want 1 merged factset", len(ir.Elements))
	}
	if len(ir.Elements[0].Facts) != 2 {
		t.Errorf("Facts = %d, want 2", len(ir.Elements[0].Facts))
	}
}

func TestNormalizePlain_PostbackDerivesAdvancedTier(t *testing.T) {
	card := &models.MessageCard{
		Title:   "Approve?",
		Actions: []models.CardAction{{Kind: models.ActionPostback, Title: "Approve", Data: map[string]interface{}{"id": "1"}}},
	}
	ir := cardir.NormalizePlain(card)
	if ir.Tier != cardir.TierAdvanced {
		t.Errorf("Tier = %q, want %q", ir.Tier, cardir.TierAdvanced)
	}
	if !ir.Meta.Capabilities["postback"] {
		t.Error("expected postback capability set")
	}
}

func TestNormalizeAdaptive_InputDerivesPremiumTier(t *testing.T) {
	raw := map[string]interface{}{
		"body": []interface{}{
			map[string]interface{}{"type": "TextBlock", "text": "Name?"},
			map[string]interface{}{"type": "Input.Text", "id": "name", "label": "Your name", "isRequired": true},
		},
		"actions": []interface{}{
			map[string]interface{}{"type": "Action.Submit", "title": "Send"},
		},
	}
	ir := cardir.NormalizeAdaptive(raw)
	if ir.Tier != cardir.TierPremium {
		t.Errorf("Tier = %q, want %q", ir.Tier, cardir.TierPremium)
	}
	if !ir.Meta.Capabilities["execute"] {
		t.Error("expected execute capability set")
	}
}

func TestNormalizeAdaptive_UnknownElementWarns(t *testing.T) {
	raw := map[string]interface{}{
		"body": []interface{}{
			map[string]interface{}{"type": "Media", "sources": []interface{}{}},
		},
	}
	ir := cardir.NormalizeAdaptive(raw)
	if len(ir.Elements) != 0 {
		t.Fatalf("Elements = %d, want 0 for dropped unknown type", len(ir.Elements))
	}
	if len(ir.Meta.Warnings) != 1 {
		t.Fatalf("Warnings = %d, want 1", len(ir.Meta.Warnings))
	}
}

func TestNormalizeAdaptive_ShowCardDroppedButCapabilityRecorded(t *testing.T) {
	raw := map[string]interface{}{
		"actions": []interface{}{
			map[string]interface{}{"type": "Action.ShowCard", "title": "More"},
		},
	}
	ir := cardir.NormalizeAdaptive(raw)
	if len(ir.Actions) != 0 {
		t.Fatalf("Actions = %d, want 0 (ShowCard is dropped)", len(ir.Actions))
	}
	if !ir.Meta.Capabilities["showcard"] {
		t.Error("expected showcard capability recorded even though the action itself was dropped")
	}
}
