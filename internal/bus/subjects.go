// Package bus abstracts the durable pub/sub and work-queue primitive
// the fabric's stages communicate through (spec §6 "Bus subjects").
// Bus is the seam a production JetStream (or equivalent) client would
// satisfy; bus.Local is the OSS-shipped in-process implementation —
// see DESIGN.md for why no NATS client ships here.
package bus

import "fmt"

// InSubject builds the ingress publication subject.
func InSubject(tenant, platform, chatID string) string {
	return fmt.Sprintf("greentic.msg.in.%s.%s.%s", tenant, platform, chatID)
}

// WebchatInSubject builds the WebChat-specific ingress subject, which
// carries env/team ahead of the fixed "incoming" token (spec §4.7).
func WebchatInSubject(env, tenant, team string) string {
	if team == "" {
		return fmt.Sprintf("greentic.msg.in.%s.%s.incoming", env, tenant)
	}
	return fmt.Sprintf("greentic.msg.in.%s.%s.%s.incoming", env, tenant, team)
}

// InWildcard matches every InSubject subject for tenant across
// platforms and chat ids.
func InWildcard(tenant string) string {
	return fmt.Sprintf("greentic.msg.in.%s.>", tenant)
}

// OutSubject builds the egress publication subject.
func OutSubject(env, tenant, team, platform string) string {
	return fmt.Sprintf("greentic.msg.out.%s.%s.%s.%s", env, tenant, team, platform)
}

// OutQueueWildcard matches every outbound subject for (tenant,
// platform) across env/team — what an egress worker's durable push
// consumer subscribes to (spec §4.4 "subject greentic.msg.out.<tenant>.<platform>.>").
func OutQueueWildcard(tenant, platform string) string {
	return fmt.Sprintf("greentic.msg.out.*.%s.*.%s", tenant, platform)
}

// DLQSubject builds the dead-letter subject for stage (ingress,
// translate, egress).
func DLQSubject(stage string) string {
	return fmt.Sprintf("greentic.dlq.%s", stage)
}

// ReplaySubject builds the replay-trigger subject a DLQ consumer for
// stage also subscribes to.
func ReplaySubject(stage string) string {
	return fmt.Sprintf("greentic.replay.%s", stage)
}

// AdminSubsSubject builds the admin-subscription-command subject.
func AdminSubsSubject(tenant, platform string) string {
	return fmt.Sprintf("greentic.subs.admin.%s.%s", tenant, platform)
}

// EgressDurableName builds the durable consumer name spec §4.4 names
// ("egress-<tenant>-<platform>").
func EgressDurableName(tenant, platform string) string {
	return fmt.Sprintf("egress-%s-%s", tenant, platform)
}
