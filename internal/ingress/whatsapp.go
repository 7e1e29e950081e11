package ingress

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/greentic/messaging-fabric/pkg/models"
)

// WhatsAppConfig is the per-tenant WhatsApp Cloud API webhook config.
type WhatsAppConfig struct {
	AppSecret   string
	VerifyToken string
}

type whatsappEnvelope struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []whatsappMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type whatsappMessage struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      struct {
		Body string `json:"body"`
	} `json:"text"`
	Interactive struct {
		ButtonReply struct {
			ID string `json:"id"`
		} `json:"button_reply"`
	} `json:"interactive"`
	Context *struct {
		ID string `json:"id"`
	} `json:"context,omitempty"`
}

// VerifyWhatsApp checks the X-Hub-Signature-256 HMAC-SHA256 over the
// raw body (spec §4.2).
func VerifyWhatsApp(r *http.Request, body []byte, cfg WhatsAppConfig) error {
	sig := r.Header.Get("X-Hub-Signature-256")
	const prefix = "sha256="
	if len(sig) > len(prefix) && sig[:len(prefix)] == prefix {
		sig = sig[len(prefix):]
	}
	if !verifyHMAC(AlgSHA256, []byte(cfg.AppSecret), body, sig) {
		return errUnauthorized("whatsapp signature mismatch")
	}
	return nil
}

// HandshakeWhatsApp answers the GET hub.mode=subscribe challenge
// (spec §4.2 "State machine — handshake").
func HandshakeWhatsApp(mode, verifyToken, challenge string, cfg WhatsAppConfig) (string, bool) {
	if mode == "subscribe" && constantTimeEqual(verifyToken, cfg.VerifyToken) {
		return challenge, true
	}
	return "", false
}

// NormalizeWhatsApp extracts every inbound message from a webhook
// POST payload (spec §4.2 "WhatsApp entry[].changes[].value.messages[]").
func NormalizeWhatsApp(tenant string, body []byte) ([]models.MessageEnvelope, error) {
	var payload whatsappEnvelope
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: whatsapp payload: %v", models.ErrBadRequest, err)
	}

	var envs []models.MessageEnvelope
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				envs = append(envs, normalizeWhatsAppMessage(tenant, msg))
			}
		}
	}
	return envs, nil
}

func normalizeWhatsAppMessage(tenant string, msg whatsappMessage) models.MessageEnvelope {
	ts, err := strconv.ParseInt(msg.Timestamp, 10, 64)
	var timestamp string
	if err == nil {
		timestamp = time.Unix(ts, 0).UTC().Format(time.RFC3339)
	} else {
		timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	env := models.MessageEnvelope{
		Tenant:    tenant,
		Platform:  models.PlatformWhatsApp,
		ChatID:    msg.From,
		UserID:    msg.From,
		MsgID:     fmt.Sprintf("wa:%s", msg.ID),
		Text:      msg.Text.Body,
		Timestamp: timestamp,
	}
	if msg.Context != nil {
		env.ThreadID = msg.Context.ID
	}
	if msg.Type == "interactive" && msg.Interactive.ButtonReply.ID != "" {
		env.Context = map[string]interface{}{"postback": msg.Interactive.ButtonReply.ID}
	}
	return env
}
