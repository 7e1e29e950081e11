package api

import (
	"html/template"
	"net/http"

	"github.com/greentic/messaging-fabric/internal/actionlink"
)

// ActionLinkHandlers serves the signed-link verification route (spec
// §4.6): GET /a and GET /a/<platform>, both sharing the same
// verification path since the platform segment is informational only.
type ActionLinkHandlers struct {
	Signer *actionlink.Signer
}

var (
	actionLinkSuccessPage = template.Must(template.New("success").Parse(`<!DOCTYPE html>
<html><head><title>Done</title></head>
<body><p>Thanks, you're all set. You can close this window.</p></body></html>`))

	actionLinkExpiredPage = template.Must(template.New("expired").Parse(`<!DOCTYPE html>
<html><head><title>Link expired</title></head>
<body><p>This link has expired or was already used.</p></body></html>`))
)

// Verify handles both GET /a and GET /a/{platform}. The platform path
// segment, when present, is not trusted over the claim's own platform
// field; it exists only so providers can present distinct URLs.
func (h *ActionLinkHandlers) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("action")
	if token == "" {
		h.expired(w)
		return
	}

	claims, err := h.Signer.Verify(r.Context(), token)
	if err != nil {
		h.expired(w)
		return
	}
	if claims.Tenant == "" {
		h.expired(w)
		return
	}

	if redirect, ok := claims.Data["redirect"].(string); ok && redirect != "" {
		http.Redirect(w, r, redirect, http.StatusSeeOther)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = actionLinkSuccessPage.Execute(w, nil)
}

func (h *ActionLinkHandlers) expired(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusGone)
	_ = actionLinkExpiredPage.Execute(w, nil)
}
