package ingress

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/greentic/messaging-fabric/pkg/models"
)

// TeamsConfig is the per-tenant Teams webhook configuration.
type TeamsConfig struct {
	BearerToken string
	VerifyToken string
}

type teamsNotification struct {
	ChangeNotification struct {
		Value []teamsChange `json:"value"`
	} `json:"changeNotification"`
}

type teamsChange struct {
	ResourceData struct {
		ID      string `json:"id"`
		From    struct {
			User struct {
				ID string `json:"id"`
			} `json:"user"`
		} `json:"from"`
		ChatID  string `json:"chatId"`
		Body    struct {
			Content string `json:"content"`
		} `json:"body"`
		CreatedDateTime string `json:"createdDateTime"`
	} `json:"resourceData"`
}

// VerifyTeams checks the bearer token on the subscription webhook
// (spec §4.2).
func VerifyTeams(r *http.Request, cfg TeamsConfig) error {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return errUnauthorized("teams missing bearer token")
	}
	token := strings.TrimPrefix(auth, prefix)
	if !constantTimeEqual(token, cfg.BearerToken) {
		return errUnauthorized("teams bearer token mismatch")
	}
	return nil
}

// HandshakeTeams echoes validationToken on the initial subscription
// handshake when it matches the configured token.
func HandshakeTeams(validationToken string, cfg TeamsConfig) (string, bool) {
	if validationToken == "" {
		return "", false
	}
	if cfg.VerifyToken != "" && !constantTimeEqual(validationToken, cfg.VerifyToken) {
		return "", false
	}
	return validationToken, true
}

// NormalizeTeams extracts every change notification's message
// (spec §4.2 "Teams changeNotification.value[]").
func NormalizeTeams(tenant string, body []byte) ([]models.MessageEnvelope, error) {
	var payload teamsNotification
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: teams payload: %v", models.ErrBadRequest, err)
	}

	var envs []models.MessageEnvelope
	for _, change := range payload.ChangeNotification.Value {
		ts := change.ResourceData.CreatedDateTime
		if _, err := time.Parse(time.RFC3339, ts); err != nil {
			ts = time.Now().UTC().Format(time.RFC3339)
		}
		envs = append(envs, models.MessageEnvelope{
			Tenant:    tenant,
			Platform:  models.PlatformTeams,
			ChatID:    change.ResourceData.ChatID,
			UserID:    change.ResourceData.From.User.ID,
			MsgID:     fmt.Sprintf("teams:%s", change.ResourceData.ID),
			Text:      change.ResourceData.Body.Content,
			Timestamp: ts,
		})
	}
	return envs, nil
}
