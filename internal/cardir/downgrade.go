package cardir

import (
	"github.com/greentic/messaging-fabric/pkg/models"
)

// DowngradeContext describes the source/target tiers a downgrade runs
// between, for the platform the result will be rendered to (spec §4.1).
type DowngradeContext struct {
	Source   Tier
	Target   Tier
	Platform models.Platform
	Profile  CapabilityProfile
}

// tierRank orders tiers so "source==target" and "source>target" can
// be compared.
func tierRank(t Tier) int {
	switch t {
	case TierBasic:
		return 0
	case TierAdvanced:
		return 1
	case TierPremium:
		return 2
	default:
		return 0
	}
}

// Downgrade filters IR elements/actions that exceed ctx.Target's
// capability profile, appending a structured warning for every
// dropped item (spec §4.1). If source==target it returns a clone with
// no filtering applied — downgrading Premium->Basic then Basic->Basic
// must equal a single Premium->Basic pass (spec §8), so this function
// is idempotent when applied to its own output.
func Downgrade(ir MessageCardIR, ctx DowngradeContext) MessageCardIR {
	out := ir.Clone()
	out.Tier = ctx.Target

	if tierRank(ctx.Source) <= tierRank(ctx.Target) {
		return out
	}

	profile := ctx.Profile

	var elements []Element
	for _, e := range out.Elements {
		switch e.Kind {
		case ElementImage:
			if !profile.AllowImages {
				out.Meta.warn("Removed image for %s", ctx.Target)
				continue
			}
		case ElementFactSet:
			if !profile.AllowFactSet {
				out.Meta.warn("Removed fact_set for %s", ctx.Target)
				continue
			}
		case ElementInput:
			if !profile.AllowInputs {
				out.Meta.warn("Removed input for %s", ctx.Target)
				continue
			}
		}
		elements = append(elements, e)
	}
	out.Elements = elements

	var actions []IRAction
	for _, a := range out.Actions {
		if a.Kind == IRActionPostback && !profile.AllowPostbacks {
			out.Meta.warn("Removed postback for %s", ctx.Target)
			continue
		}
		actions = append(actions, a)
	}
	out.Actions = actions

	trimCapabilities(&out.Meta, profile)
	return out
}

// trimCapabilities drops capability flags that no longer apply once
// the profile has filtered the corresponding elements/actions out
// (spec §4.1: "inputs/execute/showcard require allow_inputs; facts
// require allow_factset").
func trimCapabilities(meta *Meta, profile CapabilityProfile) {
	if !profile.AllowInputs {
		delete(meta.Capabilities, "execute")
		delete(meta.Capabilities, "showcard")
	}
	if !profile.AllowFactSet {
		delete(meta.Capabilities, "factset")
	}
}
