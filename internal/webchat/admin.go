package webchat

import (
	"encoding/json"
	"net/http"
)

// BroadcastRequest is the body of the admin proactive-broadcast
// endpoint (spec §4.7 "POST /{env}/{tenant}/activities").
type BroadcastRequest struct {
	ConversationID string                 `json:"conversation_id,omitempty"`
	Team           string                 `json:"team,omitempty"`
	Activity       map[string]interface{} `json:"activity"`
}

// AdminBroadcast handles POST /{env}/{tenant}/activities: appends
// Activity to one named conversation, or to every conversation in
// (env, tenant, team?) scope with proactive_ok set, when
// ConversationID is empty.
func (h *Handler) AdminBroadcast(env, tenant string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BroadcastRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "malformed broadcast body")
			return
		}
		if req.Activity == nil {
			respondError(w, http.StatusBadRequest, "activity is required")
			return
		}

		ctx := r.Context()
		var targets []string
		if req.ConversationID != "" {
			targets = []string{req.ConversationID}
		} else {
			targets = h.Store.ListProactive(ctx, env, tenant, req.Team)
		}

		delivered := 0
		for _, id := range targets {
			if _, err := h.Store.Append(ctx, id, req.Activity); err == nil {
				delivered++
			}
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"delivered": delivered})
	}
}
