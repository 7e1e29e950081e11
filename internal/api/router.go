package api

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/greentic/messaging-fabric/internal/adminauth"
	"github.com/greentic/messaging-fabric/internal/config"
	"github.com/greentic/messaging-fabric/internal/ingress"
	"github.com/greentic/messaging-fabric/internal/webchat"
	"github.com/greentic/messaging-fabric/pkg/models"
)

// Deps collects everything NewRouter wires into the HTTP surface.
type Deps struct {
	Cfg             *config.Config
	Ingress         *IngressHandlers
	IPLimiter       *ingress.IPRateLimiter
	Webchat         *webchat.Handler
	OAuthRelay      *webchat.OAuthRelay
	ActionLink      *ActionLinkHandlers
	AdminAuth       *adminauth.APIKeyAuth
	ProviderInstall *ProviderInstallHandlers
}

// NewRouter builds the full HTTP surface: ingress webhooks, the
// WebChat Direct Line surface, signed action links, and the admin
// broadcast route, sharing the teacher's middleware stack shape
// (request ID, real IP, recovery, compression, structured logging,
// CORS).
func NewRouter(d *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(Logger)

	corsOrigins := parseCORSOrigins()
	isWildcard := len(corsOrigins) == 1 && corsOrigins[0] == "*"
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Admin-Key", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: !isWildcard,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler)

	// Ingress webhooks: each platform's path carries no {tenant}
	// segment, this deployment serves exactly one (env, tenant) pair
	// fixed at startup (spec §6's ingress surface table).
	r.Group(func(r chi.Router) {
		r.Use(d.IPLimiter.Middleware)
		r.Post("/telegram/webhook", d.Ingress.Telegram)
		r.Get("/whatsapp/webhook", d.Ingress.WhatsApp)
		r.Post("/whatsapp/webhook", d.Ingress.WhatsApp)
		r.Post("/webex/messages", d.Ingress.Webex)
		r.Get("/teams/webhook", d.Ingress.Teams)
		r.Post("/teams/webhook", d.Ingress.Teams)
		r.Post("/slack/events", d.Ingress.Slack)
	})

	// WebChat Direct Line surface, scoped to this process's fixed
	// tenant for token/conversation creation.
	fixedTenant := func(r *http.Request) models.TenantContext {
		return models.TenantContext{Env: d.Cfg.Env, Tenant: d.Cfg.Tenant}
	}
	r.Post("/tokens/generate", d.Webchat.GenerateToken(fixedTenant))
	r.Post("/conversations", d.Webchat.StartConversation(fixedTenant))
	r.Route("/conversations/{id}/activities", func(r chi.Router) {
		r.Get("/", d.Webchat.GetActivities)
		r.Post("/", d.Webchat.PostActivity)
	})
	r.Get("/webchat/oauth/start", d.Webchat.OAuthStart(fixedTenant, d.OAuthRelay))
	r.Get("/webchat/oauth/callback", d.Webchat.OAuthCallback(d.OAuthRelay))

	// Signed action links (spec §4.6).
	r.Get("/a", d.ActionLink.Verify)
	r.Get("/a/{platform}", d.ActionLink.Verify)

	// Admin: proactive broadcast, per-(env, tenant) scope, guarded by
	// the admin API key when configured.
	r.Group(func(r chi.Router) {
		r.Use(d.AdminAuth.Middleware)
		r.Post("/{env}/{tenant}/activities", func(w http.ResponseWriter, r *http.Request) {
			env := chi.URLParam(r, "env")
			tenant := chi.URLParam(r, "tenant")
			d.Webchat.AdminBroadcast(env, tenant)(w, r)
		})
		r.Route("/{env}/{tenant}/provider-installs", func(r chi.Router) {
			r.Post("/", d.ProviderInstall.Create)
			r.Get("/", d.ProviderInstall.List)
			r.Get("/{providerID}/{installID}", d.ProviderInstall.Get)
			r.Delete("/{providerID}/{installID}", d.ProviderInstall.Delete)
		})
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func parseCORSOrigins() []string {
	originsEnv := os.Getenv("GREENTIC_CORS_ORIGINS")
	if originsEnv == "" {
		return []string{"*"}
	}
	var origins []string
	for _, o := range strings.Split(originsEnv, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
