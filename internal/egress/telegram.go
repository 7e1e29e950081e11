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

// TelegramSender POSTs to bot<token>/sendMessage (spec §6 "Egress HTTP
// calls").
type TelegramSender struct {
	Client  *http.Client
	BaseURL string // override for tests; defaults to api.telegram.org
}

// NewTelegramSender builds a sender with a bounded timeout client.
func NewTelegramSender() *TelegramSender {
	return &TelegramSender{Client: &http.Client{Timeout: 15 * time.Second}, BaseURL: "https://api.telegram.org"}
}

func (s *TelegramSender) Send(ctx context.Context, cred string, msg models.OutMessage, render cardir.RenderResult) (SendResult, error) {
	payload := make(map[string]interface{}, len(render.Payload)+2)
	for k, v := range render.Payload {
		payload[k] = v
	}
	payload["chat_id"] = msg.ChatID
	if msg.ThreadID != "" {
		payload["reply_to_message_id"] = msg.ThreadID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return SendResult{}, fmt.Errorf("telegram: marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.BaseURL, cred)
	result, err := doJSON(ctx, s.Client, url, body, nil)
	if err != nil {
		return SendResult{}, err
	}
	result.MessageID = extractJSONString(result.Body, "result", "message_id")
	return result, nil
}
