package models

import "time"

// Session is the runner's per-(tenant,user) cursor and accumulated
// state (spec §3 "Session").
type Session struct {
	Ctx         TenantContext          `json:"ctx"`
	FlowID      string                 `json:"flow_id"`
	Cursor      string                 `json:"cursor"`
	ContextJSON map[string]interface{} `json:"context_json"`
	PackID      string                 `json:"pack_id,omitempty"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// StoredActivity wraps a Direct-Line-shaped activity with the
// watermark it was assigned at append time (spec §3).
type StoredActivity struct {
	Watermark uint64                 `json:"watermark"`
	Activity  map[string]interface{} `json:"activity"`
}

// WebchatSession tracks a Direct-Line bearer token issued to a widget
// (spec §3).
type WebchatSession struct {
	ConversationID string    `json:"conversation_id"`
	Ctx            TenantContext
	BearerToken    string     `json:"bearer_token"`
	Watermark      *uint64    `json:"watermark,omitempty"`
	LastSeenAt     time.Time  `json:"last_seen_at"`
	ProactiveOK    bool       `json:"proactive_ok"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// ProviderInstallState is the immutable binding of a tenant to a
// configured provider instance (spec §3).
type ProviderInstallState struct {
	Tenant           string            `json:"tenant"`
	ProviderID       string            `json:"provider_id"`
	InstallID        string            `json:"install_id"`
	PackID           string            `json:"pack_id"`
	PackVersion      string            `json:"pack_version"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	ConfigRefs       map[string]string `json:"config_refs,omitempty"`
	SecretRefs       map[string]string `json:"secret_refs,omitempty"`
	RoutingPlatform  Platform          `json:"routing_platform"`
	RoutingChannelID string            `json:"routing_channel_id"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	SubscriptionsState string          `json:"subscriptions_state,omitempty"`
}
