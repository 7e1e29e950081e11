package renderers

import "github.com/greentic/messaging-fabric/internal/cardir"

// markPayloadTrimmed records that a renderer clamped its output to fit
// a platform payload limit (spec §4.1/§8), setting LimitExceeded and
// appending a single payload_trimmed warning regardless of how many
// limits a render trips.
func markPayloadTrimmed(result *cardir.RenderResult) {
	result.LimitExceeded = true
	for _, w := range result.Warnings {
		if w == "payload_trimmed" {
			return
		}
	}
	result.Warnings = append(result.Warnings, "payload_trimmed")
}
