// Command server runs the messaging fabric's HTTP surface: platform
// ingress webhooks, the WebChat Direct Line emulation, signed action
// links, and the admin broadcast route. Egress delivery and flow
// execution run in the separate runner binary (cmd/runner).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/greentic/messaging-fabric/internal/actionlink"
	"github.com/greentic/messaging-fabric/internal/adminauth"
	"github.com/greentic/messaging-fabric/internal/api"
	"github.com/greentic/messaging-fabric/internal/bus"
	"github.com/greentic/messaging-fabric/internal/config"
	"github.com/greentic/messaging-fabric/internal/idempotency"
	"github.com/greentic/messaging-fabric/internal/ingress"
	"github.com/greentic/messaging-fabric/internal/kv"
	"github.com/greentic/messaging-fabric/internal/providerinstall"
	"github.com/greentic/messaging-fabric/internal/secrets"
	"github.com/greentic/messaging-fabric/internal/telemetry"
	"github.com/greentic/messaging-fabric/internal/webchat"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := config.Load()
	if cfg.Tenant == "" {
		log.Fatal().Msg("TENANT environment variable is required")
	}

	shutdownTelemetry, err := telemetry.Init(cfg.Telemetry)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer shutdownTelemetry(context.Background())
	facade := telemetry.NewFacade()

	messageBus := bus.NewLocal()
	defer messageBus.Close()

	secretsBackend := secrets.NewMemory()
	seedSecretsFromEnv(secretsBackend, cfg.Env, cfg.Tenant)

	idempotencyStore := kv.NewMemory(time.Minute)
	defer idempotencyStore.Close()
	guard := idempotency.New(idempotencyStore, time.Duration(cfg.Idempotency.TTLHours*float64(time.Hour)))

	nonceStore := actionlink.NewKVNonceStore(kv.NewMemory(time.Minute))
	signer, err := actionlink.New(cfg.JWT, nonceStore)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize action-link signer")
	}

	webchatStore := webchat.NewMemoryStore()
	webchatHandler := webchat.NewHandler(webchatStore, secretsBackend, messageBus, facade)
	oauthRelay := webchat.NewOAuthRelay(secretsBackend)
	installStore := providerinstall.NewMemory()

	deps := &api.Deps{
		Cfg: cfg,
		Ingress: &api.IngressHandlers{
			Cfg:       cfg,
			Secrets:   secretsBackend,
			Pipeline:  &ingress.Pipeline{Idempotency: guard, Bus: messageBus},
			Telemetry: facade,
		},
		IPLimiter:       ingress.NewIPRateLimiter(),
		Webchat:         webchatHandler,
		OAuthRelay:      oauthRelay,
		ActionLink:      &api.ActionLinkHandlers{Signer: signer},
		AdminAuth:       adminauth.New(),
		ProviderInstall: &api.ProviderInstallHandlers{Store: installStore},
	}

	handler := api.NewRouter(deps)

	port := envInt("PORT", 8080)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info().
		Str("tenant", cfg.Tenant).
		Str("env", cfg.Env).
		Int("port", port).
		Msg("messaging fabric server ready")

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server failed")
	}
}

// seedSecretsFromEnv installs every per-platform webhook credential
// this process holds directly into the secrets double. A production
// deployment swaps secrets.NewMemory() for a real Backend and skips
// this step entirely.
func seedSecretsFromEnv(backend *secrets.Memory, env, tenant string) {
	set := func(key, envVar string) {
		if v := os.Getenv(envVar); v != "" {
			backend.Set(env, tenant, "", key, v)
		}
	}
	set(api.SlackSigningSecretKey, "SLACK_SIGNING_SECRET")
	set(api.TelegramSecretTokenKey, "TELEGRAM_SECRET_TOKEN")
	set(api.WhatsAppAppSecretKey, "WHATSAPP_APP_SECRET")
	set(api.WhatsAppVerifyTokenKey, "WHATSAPP_VERIFY_TOKEN")
	set(api.WebexSigningSecretKey, "WEBEX_SIGNING_SECRET")
	set(api.TeamsBearerTokenKey, "TEAMS_BEARER_TOKEN")
	set(api.TeamsValidationTokenKey, "TEAMS_VALIDATION_TOKEN")
	set(webchat.ChannelSecretKey, "WEBCHAT_CHANNEL_SECRET")
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return fallback
	}
	return n
}
