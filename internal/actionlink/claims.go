// Package actionlink implements the signed, single-use action-link
// protocol spec §4.6 describes: a MessageCard OpenUrl action whose
// jwt flag is set carries a token identifying the tenant, session,
// and flow/node the click must resume, redeemed exactly once via a
// nonce store.
package actionlink

import (
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/greentic/messaging-fabric/pkg/models"
)

// Claims is the JWT payload minted for a single action-link click. It
// embeds the tenant scope so /a/<platform> can resume the right flow
// node without a round trip to session storage.
type Claims struct {
	jwt.RegisteredClaims

	Env        string `json:"env"`
	Tenant     string `json:"tenant"`
	Team       string `json:"team,omitempty"`
	User       string `json:"user"`
	SessionID  string `json:"session_id"`
	FlowID     string `json:"flow_id"`
	NodeID     string `json:"node_id"`
	ProviderID string `json:"provider_id,omitempty"`
	Platform   string `json:"platform"`

	// Nonce is the single-use token; the verifier rejects any replay.
	Nonce string `json:"nonce"`

	// Data carries the action's postback payload, if any, so the
	// resumed flow node sees exactly what the card declared.
	Data map[string]interface{} `json:"data,omitempty"`
}

// TenantContext reconstructs the scoping context the claims were
// minted from.
func (c Claims) TenantContext() models.TenantContext {
	return models.TenantContext{
		Env: c.Env, Tenant: c.Tenant, Team: c.Team, User: c.User,
		SessionID: c.SessionID, FlowID: c.FlowID, NodeID: c.NodeID, ProviderID: c.ProviderID,
	}
}

// newClaims builds the claims for a fresh mint, ctx scoping the link
// and ttl bounding its validity (spec §4.6: links expire; there is no
// indefinite action link).
func newClaims(ctx models.TenantContext, platform models.Platform, nonce string, data map[string]interface{}, ttl time.Duration) Claims {
	now := time.Now()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Env: ctx.Env, Tenant: ctx.Tenant, Team: ctx.Team, User: ctx.User,
		SessionID: ctx.SessionID, FlowID: ctx.FlowID, NodeID: ctx.NodeID, ProviderID: ctx.ProviderID,
		Platform: string(platform),
		Nonce:    nonce,
		Data:     data,
	}
}
