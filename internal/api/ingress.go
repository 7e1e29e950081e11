package api

import (
	"io"
	"net/http"

	"github.com/greentic/messaging-fabric/internal/config"
	"github.com/greentic/messaging-fabric/internal/ingress"
	"github.com/greentic/messaging-fabric/internal/secrets"
	"github.com/greentic/messaging-fabric/internal/telemetry"
	"github.com/greentic/messaging-fabric/pkg/models"
)

// Secret keys ingress handlers read from the secrets backend, one per
// platform's webhook credential, following the egress worker's
// CredentialKey naming convention.
const (
	SlackSigningSecretKey   = "slack_signing_secret"
	TelegramSecretTokenKey  = "telegram_secret_token"
	WhatsAppAppSecretKey    = "whatsapp_app_secret"
	WhatsAppVerifyTokenKey  = "whatsapp_verify_token"
	WebexSigningSecretKey   = "webex_signing_secret"
	TeamsBearerTokenKey     = "teams_bearer_token"
	TeamsValidationTokenKey = "teams_validation_token"
)

// IngressHandlers wires the per-platform webhook HTTP surface (spec
// §4.2/§6) to the shared ingress.Pipeline.
type IngressHandlers struct {
	Cfg       *config.Config
	Secrets   secrets.Backend
	Pipeline  *ingress.Pipeline
	Telemetry *telemetry.Facade
}

func (h *IngressHandlers) accept(w http.ResponseWriter, r *http.Request, env models.MessageEnvelope) {
	outcome, err := h.Pipeline.Accept(r.Context(), env)
	switch outcome {
	case ingress.OutcomeDuplicate:
		if h.Telemetry != nil {
			h.Telemetry.IdempotencyHit(r.Context(), telemetry.Labels{Tenant: env.Tenant, Platform: env.Platform.String(), ChatID: env.ChatID, MsgID: env.MsgID})
		}
		w.WriteHeader(http.StatusAccepted)
	case ingress.OutcomePublishFailed:
		_ = err
		w.WriteHeader(http.StatusInternalServerError)
	default:
		if h.Telemetry != nil {
			h.Telemetry.MessageIngressed(r.Context(), telemetry.Labels{Tenant: env.Tenant, Platform: env.Platform.String(), ChatID: env.ChatID, MsgID: env.MsgID})
		}
		w.WriteHeader(http.StatusOK)
	}
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

// Telegram handles POST /telegram/webhook.
func (h *IngressHandlers) Telegram(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	secret, _, _ := h.Secrets.Get(r.Context(), h.Cfg.Env, h.Cfg.Tenant, "", TelegramSecretTokenKey)
	if err := ingress.VerifyTelegram(r, ingress.TelegramConfig{SecretToken: secret}); err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	env, ok, err := ingress.NormalizeTelegram(h.Cfg.Tenant, body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	h.accept(w, r, env)
}

// WhatsApp handles GET (handshake)/POST /whatsapp/webhook.
func (h *IngressHandlers) WhatsApp(w http.ResponseWriter, r *http.Request) {
	verifyToken, _, _ := h.Secrets.Get(r.Context(), h.Cfg.Env, h.Cfg.Tenant, "", WhatsAppVerifyTokenKey)
	cfg := ingress.WhatsAppConfig{VerifyToken: verifyToken}

	if r.Method == http.MethodGet {
		mode := r.URL.Query().Get("hub.mode")
		token := r.URL.Query().Get("hub.verify_token")
		challenge := r.URL.Query().Get("hub.challenge")
		if body, ok := ingress.HandshakeWhatsApp(mode, token, challenge, cfg); ok {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(body))
			return
		}
		w.WriteHeader(http.StatusForbidden)
		return
	}

	body, err := readBody(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	appSecret, _, _ := h.Secrets.Get(r.Context(), h.Cfg.Env, h.Cfg.Tenant, "", WhatsAppAppSecretKey)
	cfg.AppSecret = appSecret
	if err := ingress.VerifyWhatsApp(r, body, cfg); err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	envs, err := ingress.NormalizeWhatsApp(h.Cfg.Tenant, body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	for _, env := range envs {
		h.accept(w, r, env)
	}
	if len(envs) == 0 {
		w.WriteHeader(http.StatusOK)
	}
}

// Webex handles POST /webex/messages.
func (h *IngressHandlers) Webex(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	secret, _, _ := h.Secrets.Get(r.Context(), h.Cfg.Env, h.Cfg.Tenant, "", WebexSigningSecretKey)
	if err := ingress.VerifyWebex(r, body, ingress.WebexConfig{Secret: secret}); err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	env, err := ingress.NormalizeWebex(h.Cfg.Tenant, body, nil)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	h.accept(w, r, env)
}

// Teams handles GET (validationToken)/POST /teams/webhook.
func (h *IngressHandlers) Teams(w http.ResponseWriter, r *http.Request) {
	verifyToken, _, _ := h.Secrets.Get(r.Context(), h.Cfg.Env, h.Cfg.Tenant, "", TeamsValidationTokenKey)
	if validationToken := r.URL.Query().Get("validationToken"); validationToken != "" {
		if echoed, ok := ingress.HandshakeTeams(validationToken, ingress.TeamsConfig{VerifyToken: verifyToken}); ok {
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(echoed))
			return
		}
		w.WriteHeader(http.StatusForbidden)
		return
	}

	bearer, _, _ := h.Secrets.Get(r.Context(), h.Cfg.Env, h.Cfg.Tenant, "", TeamsBearerTokenKey)
	if err := ingress.VerifyTeams(r, ingress.TeamsConfig{BearerToken: bearer}); err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	body, err := readBody(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	envs, err := ingress.NormalizeTeams(h.Cfg.Tenant, body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	for _, env := range envs {
		h.accept(w, r, env)
	}
	if len(envs) == 0 {
		w.WriteHeader(http.StatusOK)
	}
}

// Slack handles POST /slack/events.
func (h *IngressHandlers) Slack(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if challenge, ok := ingress.SlackURLVerificationChallenge(body); ok {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(challenge))
		return
	}

	secret, _, _ := h.Secrets.Get(r.Context(), h.Cfg.Env, h.Cfg.Tenant, "", SlackSigningSecretKey)
	if err := ingress.VerifySlack(r, body, ingress.SlackConfig{SigningSecret: secret}); err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	env, ok, err := ingress.NormalizeSlack(h.Cfg.Tenant, body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	h.accept(w, r, env)
}
