package cardir

import (
	"context"
	"fmt"

	"github.com/greentic/messaging-fabric/internal/telemetry"
	"github.com/greentic/messaging-fabric/pkg/models"
)

// RenderResult is the platform-native payload a renderer produces,
// plus the counters spec §4.1 requires every render to report.
type RenderResult struct {
	Payload         map[string]interface{}
	UsedModal       bool
	NativeCount     int
	DowngradeCount  int
	SanitizedCount  int
	URLBlockedCount int
	LimitExceeded   bool
	Warnings        []string
}

// Renderer turns a tier-appropriate IR into a platform-native payload.
// Implementations live under internal/cardir/renderers and register
// themselves via RegisterRenderer in an init() func.
type Renderer func(ir MessageCardIR, signer LinkSigner) (RenderResult, error)

var registry = map[models.Platform]Renderer{}

// RegisterRenderer installs fn as the renderer for platform. Called
// from each renderers/<platform>.go init().
func RegisterRenderer(platform models.Platform, fn Renderer) {
	registry[platform] = fn
}

// Render downgrades ir to platform's max tier, rewrites any signed
// OpenUrl actions through signer, dispatches to the registered
// renderer, and emits the Rendered telemetry event (spec §4.1).
func Render(ctx context.Context, platform models.Platform, ir MessageCardIR, signer LinkSigner, facade *telemetry.Facade, labels telemetry.Labels) (RenderResult, error) {
	fn, ok := registry[platform]
	if !ok {
		return RenderResult{}, fmt.Errorf("cardir: no renderer registered for platform %q", platform)
	}

	target := MaxTierFor(platform)
	downgraded := ir
	downgradeCount := 0
	if tierRank(ir.Tier) > tierRank(target) {
		before := len(ir.Elements) + len(ir.Actions)
		downgraded = Downgrade(ir, DowngradeContext{
			Source:   ir.Tier,
			Target:   target,
			Platform: platform,
			Profile:  DowngradeProfileFor(platform, target),
		})
		after := len(downgraded.Elements) + len(downgraded.Actions)
		downgradeCount = before - after
	}

	signedActions := make([]IRAction, len(downgraded.Actions))
	for i, a := range downgraded.Actions {
		signedActions[i] = applyAppLink(a, downgraded.Meta, signer)
	}
	downgraded.Actions = signedActions

	result, err := fn(downgraded, signer)
	if err != nil {
		return RenderResult{}, err
	}
	result.DowngradeCount += downgradeCount
	result.Warnings = append(downgraded.Meta.Warnings, result.Warnings...)

	if facade != nil {
		facade.Rendered(ctx, labels, telemetry.RenderedEvent{
			Platform:        string(platform),
			UsedModal:       result.UsedModal,
			NativeCount:     result.NativeCount,
			DowngradeCount:  result.DowngradeCount,
			SanitizedCount:  result.SanitizedCount,
			URLBlockedCount: result.URLBlockedCount,
			LimitExceeded:   result.LimitExceeded,
			Warnings:        result.Warnings,
		})
	}

	return result, nil
}
