// Command runner consumes inbound envelopes, executes the configured
// flow against them, and delivers the resulting OutMessages to each
// platform. It is split from cmd/server so flow execution and egress
// delivery scale independently of the HTTP ingress surface.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/greentic/messaging-fabric/internal/bus"
	"github.com/greentic/messaging-fabric/internal/cardir"
	_ "github.com/greentic/messaging-fabric/internal/cardir/renderers"
	"github.com/greentic/messaging-fabric/internal/config"
	"github.com/greentic/messaging-fabric/internal/dispatch"
	"github.com/greentic/messaging-fabric/internal/egress"
	"github.com/greentic/messaging-fabric/internal/flowstore"
	"github.com/greentic/messaging-fabric/internal/limiter"
	"github.com/greentic/messaging-fabric/internal/runner"
	"github.com/greentic/messaging-fabric/internal/secrets"
	"github.com/greentic/messaging-fabric/internal/sessions"
	"github.com/greentic/messaging-fabric/internal/telemetry"
	"github.com/greentic/messaging-fabric/pkg/models"
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

	flowDir := envStr("FLOW_DIR", "./flows")
	flows, err := flowstore.Load(flowDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", flowDir).Msg("failed to load flow definitions")
	}

	engine := runner.NewEngine(sessions.NewMemory())

	secretsBackend := secrets.NewMemory()
	seedEgressSecretsFromEnv(secretsBackend, cfg.Env, cfg.Tenant)

	rateLimits := make(map[string]limiter.Config, len(cfg.RateLimits))
	for tenant, rl := range cfg.RateLimits {
		rateLimits[tenant] = limiter.Config{RPS: rl.RPS, Burst: rl.Burst}
	}
	hybridLimiter := limiter.New(rateLimits, nil)

	signer := cardir.HMACAppLink{Secret: os.Getenv("CARDIR_APPLINK_SECRET")}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Info().Msg("shutting down gracefully")
		cancel()
	}()

	runnerWorker := &dispatch.Worker{
		Env:       cfg.Env,
		Tenant:    cfg.Tenant,
		Bus:       messageBus,
		Engine:    engine,
		Flows:     flows,
		Telemetry: facade,
	}
	go func() {
		if err := runnerWorker.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("runner dispatch loop exited")
		}
	}()

	for _, ew := range egressWorkers(cfg, secretsBackend, messageBus, hybridLimiter, signer, facade) {
		ew := ew
		go func() {
			if err := ew.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Str("platform", string(ew.Platform)).Msg("egress worker exited")
			}
		}()
	}

	log.Info().Str("tenant", cfg.Tenant).Str("env", cfg.Env).Msg("runner ready")
	<-ctx.Done()
}

func egressWorkers(cfg *config.Config, secretsBackend secrets.Backend, b bus.Bus, lim *limiter.Hybrid, signer cardir.LinkSigner, facade *telemetry.Facade) []*egress.Worker {
	platforms := []struct {
		platform models.Platform
		sender   egress.Sender
	}{
		{models.PlatformSlack, egress.NewSlackSender()},
		{models.PlatformTeams, egress.NewTeamsSender()},
		{models.PlatformTelegram, egress.NewTelegramSender()},
		{models.PlatformWebex, egress.NewWebexSender()},
		{models.PlatformWhatsApp, egress.NewWhatsAppSender(
			envStr("WHATSAPP_PHONE_ID", ""),
			egress.WhatsAppTemplateConfig{
				Name:     envStr("WHATSAPP_FALLBACK_TEMPLATE", "session_expired"),
				Language: envStr("WHATSAPP_FALLBACK_LANGUAGE", "en_US"),
			},
		)},
	}

	workers := make([]*egress.Worker, 0, len(platforms))
	for _, p := range platforms {
		workers = append(workers, &egress.Worker{
			Tenant:    cfg.Tenant,
			Platform:  p.platform,
			Bus:       b,
			Limiter:   lim,
			Secrets:   secretsBackend,
			Sender:    p.sender,
			Signer:    signer,
			Telemetry: facade,
		})
	}
	return workers
}

// seedEgressSecretsFromEnv installs the single bot_token every Worker
// looks up at send time. A production deployment swaps this for a
// real secrets.Backend and skips this step entirely.
func seedEgressSecretsFromEnv(backend *secrets.Memory, env, tenant string) {
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		backend.Set(env, tenant, "", egress.CredentialKey, v)
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
