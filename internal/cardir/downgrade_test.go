package cardir_test

import (
	"testing"

	"github.com/greentic/messaging-fabric/internal/cardir"
	"github.com/greentic/messaging-fabric/pkg/models"
)

func advancedCard() *models.MessageCard {
	return &models.MessageCard{
		Title: "Onboarding",
		Body: []models.CardBlock{
			{Kind: models.BlockImage, URL: "https://cdn.example.com/logo.png"},
			{Kind: models.BlockFact, Label: "Plan", Value: "Pro"},
		},
		Actions: []models.CardAction{
			{Kind: models.ActionPostback, Title: "Start"},
		},
	}
}

func TestDowngrade_AdvancedToBasicDropsNonBasicElements(t *testing.T) {
	ir := cardir.NormalizePlain(advancedCard())
	out := cardir.Downgrade(ir, cardir.DowngradeContext{
		Source:  ir.Tier,
		Target:  cardir.TierBasic,
		Profile: cardir.ProfileForTier(cardir.TierBasic),
	})
	if len(out.Elements) != 0 {
		t.Errorf("Elements = %d, want 0 after downgrade to basic", len(out.Elements))
	}
	if len(out.Actions) != 0 {
		t.Errorf("Actions = %d, want 0 after downgrade to basic", len(out.Actions))
	}
	if len(out.Meta.Warnings) == 0 {
		t.Error("expected warnings recorded for dropped elements")
	}
}

func TestDowngrade_IsIdempotent(t *testing.T) {
	ir := cardir.NormalizePlain(advancedCard())

	direct := cardir.Downgrade(ir, cardir.DowngradeContext{
		Source:  ir.Tier,
		Target:  cardir.TierBasic,
		Profile: cardir.ProfileForTier(cardir.TierBasic),
	})

	viaAdvanced := cardir.Downgrade(ir, cardir.DowngradeContext{
		Source:  ir.Tier,
		Target:  cardir.TierAdvanced,
		Profile: cardir.ProfileForTier(cardir.TierAdvanced),
	})
	twice := cardir.Downgrade(viaAdvanced, cardir.DowngradeContext{
		Source:  viaAdvanced.Tier,
		Target:  cardir.TierBasic,
		Profile: cardir.ProfileForTier(cardir.TierBasic),
	})

	if len(direct.Elements) != len(twice.Elements) {
		t.Errorf("Elements = %d, want %d (two-step downgrade must match one-step)", len(twice.Elements), len(direct.Elements))
	}
	if len(direct.Actions) != len(twice.Actions) {
		t.Errorf("Actions = %d, want %d", len(twice.Actions), len(direct.Actions))
	}
}

func TestDowngrade_SameTierReturnsUnfilteredClone(t *testing.T) {
	ir := cardir.NormalizePlain(advancedCard())
	out := cardir.Downgrade(ir, cardir.DowngradeContext{
		Source:  ir.Tier,
		Target:  ir.Tier,
		Profile: cardir.ProfileForTier(ir.Tier),
	})
	if len(out.Elements) != len(ir.Elements) {
		t.Errorf("Elements = %d, want %d unchanged", len(out.Elements), len(ir.Elements))
	}
}

func TestClone_DoesNotShareBackingArrays(t *testing.T) {
	ir := cardir.NormalizePlain(advancedCard())
	clone := ir.Clone()
	clone.Elements[0].URL = "mutated"
	if ir.Elements[0].URL == "mutated" {
		t.Error("Clone shared the Elements backing array with the original")
	}
}
