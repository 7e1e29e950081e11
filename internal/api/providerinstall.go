package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/greentic/messaging-fabric/internal/providerinstall"
	"github.com/greentic/messaging-fabric/pkg/models"
)

// ProviderInstallHandlers exposes admin CRUD over the tenant's
// configured provider installs (spec §3 "ProviderInstallState"). It
// sits behind the same admin API key as the broadcast route since
// both mutate state for a tenant the caller doesn't own directly.
type ProviderInstallHandlers struct {
	Store providerinstall.Store
}

type createInstallRequest struct {
	ProviderID       string            `json:"provider_id"`
	InstallID        string            `json:"install_id"`
	PackID           string            `json:"pack_id"`
	PackVersion      string            `json:"pack_version"`
	ConfigRefs       map[string]string `json:"config_refs,omitempty"`
	SecretRefs       map[string]string `json:"secret_refs,omitempty"`
	RoutingPlatform  models.Platform   `json:"routing_platform"`
	RoutingChannelID string            `json:"routing_channel_id"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// Create handles POST /{env}/{tenant}/provider-installs.
func (h *ProviderInstallHandlers) Create(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")

	var req createInstallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondInstallError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.ProviderID == "" || req.InstallID == "" {
		respondInstallError(w, http.StatusBadRequest, "provider_id and install_id are required")
		return
	}

	now := time.Now().UTC()
	state := models.ProviderInstallState{
		Tenant:           tenant,
		ProviderID:       req.ProviderID,
		InstallID:        req.InstallID,
		PackID:           req.PackID,
		PackVersion:      req.PackVersion,
		CreatedAt:        now,
		UpdatedAt:        now,
		ConfigRefs:       req.ConfigRefs,
		SecretRefs:       req.SecretRefs,
		RoutingPlatform:  req.RoutingPlatform,
		RoutingChannelID: req.RoutingChannelID,
		Metadata:         req.Metadata,
	}

	if err := h.Store.Insert(r.Context(), state); err != nil {
		if _, ok := err.(*providerinstall.ErrDuplicateInstall); ok {
			respondInstallError(w, http.StatusConflict, err.Error())
			return
		}
		respondInstallError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondInstallJSON(w, http.StatusCreated, state)
}

// Get handles GET /{env}/{tenant}/provider-installs/{providerID}/{installID}.
func (h *ProviderInstallHandlers) Get(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	providerID := chi.URLParam(r, "providerID")
	installID := chi.URLParam(r, "installID")

	state, err := h.Store.Get(r.Context(), tenant, providerID, installID)
	if err != nil {
		respondInstallNotFoundOrError(w, err)
		return
	}
	respondInstallJSON(w, http.StatusOK, state)
}

// List handles GET /{env}/{tenant}/provider-installs.
func (h *ProviderInstallHandlers) List(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	respondInstallJSON(w, http.StatusOK, map[string]interface{}{
		"installs": h.Store.ListByTenant(r.Context(), tenant),
	})
}

// Delete handles DELETE /{env}/{tenant}/provider-installs/{providerID}/{installID}.
func (h *ProviderInstallHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	providerID := chi.URLParam(r, "providerID")
	installID := chi.URLParam(r, "installID")

	if err := h.Store.Delete(r.Context(), tenant, providerID, installID); err != nil {
		respondInstallNotFoundOrError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondInstallNotFoundOrError(w http.ResponseWriter, err error) {
	if _, ok := err.(*providerinstall.ErrNotFound); ok {
		respondInstallError(w, http.StatusNotFound, err.Error())
		return
	}
	respondInstallError(w, http.StatusInternalServerError, err.Error())
}

func respondInstallJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondInstallError(w http.ResponseWriter, status int, message string) {
	respondInstallJSON(w, status, map[string]string{"error": message})
}
