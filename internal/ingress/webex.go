package ingress

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/greentic/messaging-fabric/pkg/models"
)

// WebexConfig is the per-tenant Webex webhook configuration.
type WebexConfig struct {
	Secret        string
	SignatureHdr  string // default X-Webex-Signature
	Alg           HMACAlg
}

// DefaultWebexSignatureHeader is used when WebexConfig.SignatureHdr is unset.
const DefaultWebexSignatureHeader = "X-Webex-Signature"

type webexWebhook struct {
	Data struct {
		ID        string `json:"id"`
		RoomID    string `json:"roomId"`
		PersonID  string `json:"personId"`
		ParentID  string `json:"parentId"`
		Created   string `json:"created"`
	} `json:"data"`
}

// VerifyWebex checks the configured signature header (spec §4.2/§6.1;
// header name and algorithm are configurable per tenant).
func VerifyWebex(r *http.Request, body []byte, cfg WebexConfig) error {
	hdr := cfg.SignatureHdr
	if hdr == "" {
		hdr = DefaultWebexSignatureHeader
	}
	alg := cfg.Alg
	if alg == "" {
		alg = AlgSHA1
	}
	sig := r.Header.Get(hdr)
	if !verifyHMAC(alg, []byte(cfg.Secret), body, sig) {
		return errUnauthorized("webex signature mismatch")
	}
	return nil
}

// NormalizeWebex extracts the envelope from a decoded webhook body.
// Webex's webhook only carries message metadata, not text; a real
// deployment resolves the body via the Messages API using
// data.id — that fetch is left to the resolveText function the caller
// passes in, matching the spec's "normalizer extracts... from the platform's
// payload shape" framing without over-specifying the Webex REST call.
func NormalizeWebex(tenant string, body []byte, resolveText func(messageID string) (string, error)) (models.MessageEnvelope, error) {
	var payload webexWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		return models.MessageEnvelope{}, fmt.Errorf("%w: webex payload: %v", models.ErrBadRequest, err)
	}

	text := ""
	if resolveText != nil {
		if t, err := resolveText(payload.Data.ID); err == nil {
			text = t
		}
	}

	ts := payload.Data.Created
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		ts = time.Now().UTC().Format(time.RFC3339)
	}

	return models.MessageEnvelope{
		Tenant:    tenant,
		Platform:  models.PlatformWebex,
		ChatID:    payload.Data.RoomID,
		UserID:    payload.Data.PersonID,
		ThreadID:  payload.Data.ParentID,
		MsgID:     fmt.Sprintf("webex:%s", payload.Data.ID),
		Text:      text,
		Timestamp: ts,
	}, nil
}
