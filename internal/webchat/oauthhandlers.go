package webchat

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// oauthSignedInHTML is the self-closing page the callback returns —
// it posts a message to the opener window and closes, per the widget
// embedding pattern Direct-Line-compatible OAuth flows use.
const oauthSignedInHTML = `<!DOCTYPE html><html><body><script>
if (window.opener) { window.opener.postMessage({type:"webchat_oauth_complete"}, "*"); }
window.close();
</script>You're signed in. You may close this window.</body></html>`

// OAuthStart handles GET /webchat/oauth/start?conversationId&state?:
// builds the tenant-scoped authorize URL and 307-redirects.
func (h *Handler) OAuthStart(tctxOf tenantFromRequest, relay *OAuthRelay) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conversationID := r.URL.Query().Get("conversationId")
		if conversationID == "" {
			respondError(w, http.StatusBadRequest, "conversationId is required")
			return
		}
		state := r.URL.Query().Get("state")
		if state == "" {
			state = uuid.NewString()
		}

		tctx, err := h.Store.TenantCtx(r.Context(), conversationID)
		if err != nil {
			respondNotFoundOrError(w, err)
			return
		}

		url, err := relay.AuthorizeURL(r.Context(), tctx, conversationID, state)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		http.Redirect(w, r, url, http.StatusTemporaryRedirect)
	}
}

// OAuthCallback handles GET /webchat/oauth/callback?conversationId&code|error&state?:
// exchanges the code, appends a bot activity carrying the opaque
// token handle, and returns a self-closing HTML page.
func (h *Handler) OAuthCallback(relay *OAuthRelay) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conversationID := r.URL.Query().Get("conversationId")
		if conversationID == "" {
			respondError(w, http.StatusBadRequest, "conversationId is required")
			return
		}
		if errParam := r.URL.Query().Get("error"); errParam != "" {
			h.appendSignInFailure(r, conversationID, errParam)
			respondError(w, http.StatusBadRequest, fmt.Sprintf("oauth error: %s", errParam))
			return
		}

		code := r.URL.Query().Get("code")
		tctx, err := h.Store.TenantCtx(r.Context(), conversationID)
		if err != nil {
			respondNotFoundOrError(w, err)
			return
		}

		handle, err := relay.ExchangeCallback(r.Context(), tctx, conversationID, code)
		if err != nil {
			log.Error().Err(err).Str("conversation_id", conversationID).Msg("webchat: oauth exchange failed")
			respondError(w, http.StatusBadGateway, "token exchange failed")
			return
		}

		_, _ = h.Store.Append(r.Context(), conversationID, map[string]interface{}{
			"type": "message",
			"text": "You're signed in.",
			"channelData": map[string]interface{}{
				"oauth_token_handle": handle.Handle,
			},
		})

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(oauthSignedInHTML))
	}
}

func (h *Handler) appendSignInFailure(r *http.Request, conversationID, reason string) {
	_, _ = h.Store.Append(r.Context(), conversationID, map[string]interface{}{
		"type": "message",
		"text": "Sign-in failed: " + reason,
	})
}
