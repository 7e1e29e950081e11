// Package config loads fabric configuration from environment
// variables, following the teacher's envStr/envInt/envBool loader
// shape.
package config

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// Config aggregates every per-concern configuration block consumed by
// the core (spec §6 "Environment variables consumed by the core").
type Config struct {
	NATSURL string
	Tenant  string
	Env     string

	Telemetry      TelemetryConfig
	JWT            JWTConfig
	Idempotency    IdempotencyConfig
	RateLimits     map[string]RateLimit
	OAuthBaseURL   string
	WebchatSendURL string
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// JWTConfig configures the action-link signer (spec §4.6/§6).
type JWTConfig struct {
	Alg        string // HS256, RS256, ES256
	Secret     string
	PrivateKey string
	PublicKey  string
}

type IdempotencyConfig struct {
	TTLHours    float64
	KVNamespace string
}

// RateLimit is a single tenant's backpressure configuration (spec §4.3).
type RateLimit struct {
	RPS   float64 `json:"rps"`
	Burst float64 `json:"burst"`
}

// Load reads configuration from environment variables with the
// defaults spec §4.3/§4.6 describe.
func Load() *Config {
	cfg := &Config{
		NATSURL: envStr("NATS_URL", "nats://localhost:4222"),
		Tenant:  envStr("TENANT", ""),
		Env:     envStr("GREENTIC_ENV", "dev"),
		Telemetry: TelemetryConfig{
			Enabled:      envBool("OTEL_ENABLED", true),
			OTLPEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:  envStr("OTEL_SERVICE_NAME", "greentic-messaging-fabric"),
		},
		JWT: JWTConfig{
			Alg:        envStr("JWT_ALG", "HS256"),
			Secret:     envStr("JWT_SECRET", ""),
			PrivateKey: envStr("JWT_PRIVATE_KEY", ""),
			PublicKey:  envStr("JWT_PUBLIC_KEY", ""),
		},
		Idempotency: IdempotencyConfig{
			TTLHours:    envFloat("IDEMPOTENCY_TTL_HOURS", 36),
			KVNamespace: envStr("JS_KV_NAMESPACE_IDEMPOTENCY", "idempotency"),
		},
		OAuthBaseURL:   envStr("OAUTH_BASE_URL", ""),
		WebchatSendURL: envStr("WEBCHAT_SEND_URL", ""),
	}

	cfg.RateLimits = parseRateLimits(envStr("TENANT_RATE_LIMITS", ""))
	return cfg
}

func parseRateLimits(raw string) map[string]RateLimit {
	out := make(map[string]RateLimit)
	if raw == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		log.Warn().Err(err).Msg("failed to parse TENANT_RATE_LIMITS, ignoring")
		return make(map[string]RateLimit)
	}
	return out
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
