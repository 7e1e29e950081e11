package webchat

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/greentic/messaging-fabric/internal/bus"
	"github.com/greentic/messaging-fabric/internal/secrets"
	"github.com/greentic/messaging-fabric/internal/telemetry"
	"github.com/greentic/messaging-fabric/pkg/models"
)

// ChannelSecretKey names the secrets.Backend key Handler.GenerateToken
// authenticates the caller against.
const ChannelSecretKey = "webchat_channel_secret"

// TokenTTL bounds a minted bearer token's lifetime.
const TokenTTL = 1 * time.Hour

// Handler implements the Direct Line HTTP surface spec §4.7 lists:
// token generation, conversation start, activity poll/post.
type Handler struct {
	Store     ConversationStore
	Secrets   secrets.Backend
	Bus       bus.Bus
	Telemetry *telemetry.Facade
}

// NewHandler builds a Handler over the given store/secrets/bus.
func NewHandler(store ConversationStore, backend secrets.Backend, b bus.Bus, facade *telemetry.Facade) *Handler {
	return &Handler{Store: store, Secrets: backend, Bus: b, Telemetry: facade}
}

type tenantFromRequest func(r *http.Request) models.TenantContext

// GenerateToken handles POST /tokens/generate: authenticates against
// the tenant-scoped channel secret and returns a bearer token.
func (h *Handler) GenerateToken(tctxOf tenantFromRequest) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tctx := tctxOf(r)
		secret, ok, err := h.Secrets.Get(r.Context(), tctx.Env, tctx.Tenant, tctx.TeamOrDefault(), ChannelSecretKey)
		if err != nil || !ok {
			respondError(w, http.StatusUnauthorized, "no channel secret configured")
			return
		}
		presented := r.Header.Get("Authorization")
		if presented != "Bearer "+secret {
			respondError(w, http.StatusUnauthorized, "invalid channel secret")
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"token":      uuid.NewString(),
			"expires_in": int(TokenTTL.Seconds()),
		})
	}
}

// StartConversation handles POST /conversations: creates a
// ConversationRecord and returns {token, conversationId, expires_in}.
func (h *Handler) StartConversation(tctxOf tenantFromRequest) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tctx := tctxOf(r)
		conversationID, err := h.Store.Create(r.Context(), tctx)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, http.StatusCreated, map[string]interface{}{
			"token":          uuid.NewString(),
			"conversationId": conversationID,
			"expires_in":     int(TokenTTL.Seconds()),
		})
	}
}

// GetActivities handles GET /conversations/{id}/activities?watermark=<w>.
func (h *Handler) GetActivities(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	watermark := parseWatermark(r.URL.Query().Get("watermark"))

	activities, next, err := h.Store.Activities(r.Context(), id, watermark)
	if err != nil {
		respondNotFoundOrError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"activities": activitiesPayload(activities),
		"watermark":  strconv.FormatUint(next, 10),
	})
}

// PostActivity handles POST /conversations/{id}/activities: appends a
// user activity, assigning a new watermark, broadcasting to subscribers.
func (h *Handler) PostActivity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var activity map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&activity); err != nil {
		respondError(w, http.StatusBadRequest, "malformed activity body")
		return
	}

	stored, err := h.Store.Append(r.Context(), id, activity)
	if err != nil {
		if err == ErrQuotaExceeded {
			respondError(w, http.StatusTooManyRequests, err.Error())
			return
		}
		respondNotFoundOrError(w, err)
		return
	}

	tctx, err := h.Store.TenantCtx(r.Context(), id)
	if err == nil {
		data, marshalErr := json.Marshal(stored.Activity)
		if marshalErr == nil {
			subject := bus.WebchatInSubject(tctx.Env, tctx.Tenant, tctx.Team)
			if pubErr := h.Bus.Publish(r.Context(), subject, data); pubErr != nil && h.Telemetry != nil {
				h.Telemetry.WebchatError(r.Context(), telemetry.Labels{Tenant: tctx.Tenant, Env: tctx.Env, ChatID: id}, "publish")
			}
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id": stored.Activity["id"],
	})
}

func parseWatermark(raw string) uint64 {
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func activitiesPayload(activities []models.StoredActivity) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(activities))
	for _, a := range activities {
		out = append(out, a.Activity)
	}
	return out
}

func respondNotFoundOrError(w http.ResponseWriter, err error) {
	if _, ok := err.(*ErrConversationNotFound); ok {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, err.Error())
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
