package egress

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/greentic/messaging-fabric/internal/cardir"
	"github.com/greentic/messaging-fabric/pkg/models"
)

// whatsappSessionWindow is the 24h window outside which free-text
// messages must fall back to a pre-approved template (spec §4.4
// "Session-window fallback (WhatsApp)").
const whatsappSessionWindow = 24 * time.Hour

// WhatsAppSender POSTs to {phone_id}/messages on the Graph API.
type WhatsAppSender struct {
	Client   *http.Client
	BaseURL  string
	PhoneID  string
	Template WhatsAppTemplateConfig
}

// WhatsAppTemplateConfig names the fallback template sent outside the
// session window, with up to two substitution variables.
type WhatsAppTemplateConfig struct {
	Name     string
	Language string
}

// NewWhatsAppSender builds a sender with a bounded timeout client.
func NewWhatsAppSender(phoneID string, tmpl WhatsAppTemplateConfig) *WhatsAppSender {
	return &WhatsAppSender{
		Client:  &http.Client{Timeout: 15 * time.Second},
		BaseURL: "https://graph.facebook.com/v19.0",
		PhoneID: phoneID,
		Template: tmpl,
	}
}

func (s *WhatsAppSender) Send(ctx context.Context, cred string, msg models.OutMessage, render cardir.RenderResult) (SendResult, error) {
	if s.outsideSessionWindow(msg) {
		result, err := s.sendTemplate(ctx, cred, msg)
		if err == nil && ClassifyStatus(result.StatusCode) != DispositionPermanent {
			return result, nil
		}
		// Template send failed or was rejected: fall back to plain text
		// with the same content (spec §4.4 "falls back to a plain-text
		// message with the same content").
	}

	payload := make(map[string]interface{}, len(render.Payload)+3)
	for k, v := range render.Payload {
		payload[k] = v
	}
	payload["messaging_product"] = "whatsapp"
	payload["to"] = msg.ChatID
	if _, hasType := payload["type"]; !hasType {
		payload["type"] = "text"
	}

	return s.post(ctx, cred, payload)
}

func (s *WhatsAppSender) outsideSessionWindow(msg models.OutMessage) bool {
	raw := msg.MetaString("wa_last_interaction")
	if raw == "" {
		return true
	}
	last, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return true
	}
	return time.Since(last) > whatsappSessionWindow
}

func (s *WhatsAppSender) sendTemplate(ctx context.Context, cred string, msg models.OutMessage) (SendResult, error) {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                msg.ChatID,
		"type":              "template",
		"template": map[string]interface{}{
			"name":     s.Template.Name,
			"language": map[string]string{"code": s.Template.Language},
			"components": []map[string]interface{}{
				{
					"type": "body",
					"parameters": []map[string]string{
						{"type": "text", "text": msg.MetaString("title")},
						{"type": "text", "text": msg.MetaString("fallback_url")},
					},
				},
			},
		},
	}
	return s.post(ctx, cred, payload)
}

func (s *WhatsAppSender) post(ctx context.Context, cred string, payload map[string]interface{}) (SendResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return SendResult{}, fmt.Errorf("whatsapp: marshal payload: %w", err)
	}
	url := fmt.Sprintf("%s/%s/messages", s.BaseURL, s.PhoneID)
	result, err := doJSON(ctx, s.Client, url, body, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+cred)
	})
	if err != nil {
		return SendResult{}, err
	}
	result.MessageID = extractJSONString(result.Body, "messages", "0", "id")
	return result, nil
}
