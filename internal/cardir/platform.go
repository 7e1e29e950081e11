package cardir

import "github.com/greentic/messaging-fabric/pkg/models"

// MaxTierFor returns the highest tier a platform's renderer accepts
// before a downgrade pass must run (spec §4.1's capability table).
// WhatsApp always maps to TierAdvanced here; the 24h session window
// is not considered. The egress WhatsApp sender checks the window at
// send time and sends a template message outside it.
func MaxTierFor(platform models.Platform) Tier {
	switch platform {
	case models.PlatformSlack:
		return TierAdvanced
	case models.PlatformTeams:
		return TierPremium
	case models.PlatformWebex:
		return TierPremium
	case models.PlatformTelegram:
		return TierAdvanced
	case models.PlatformWhatsApp:
		return TierAdvanced
	case models.PlatformWebChat:
		return TierPremium
	default:
		return TierBasic
	}
}

// DowngradeProfileFor returns the capability profile a downgrade pass
// should enforce for platform at target tier. Slack renders at
// Advanced but still accepts Input elements by routing them through a
// modal (spec §4.1), so its profile keeps AllowInputs set even though
// ProfileForTier(Advanced) would otherwise drop them.
func DowngradeProfileFor(platform models.Platform, target Tier) CapabilityProfile {
	profile := ProfileForTier(target)
	if platform == models.PlatformSlack {
		profile.AllowInputs = true
	}
	return profile
}
