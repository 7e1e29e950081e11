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

// WebexSender POSTs to the Webex /messages endpoint.
type WebexSender struct {
	Client  *http.Client
	BaseURL string
}

// NewWebexSender builds a sender with a bounded timeout client.
func NewWebexSender() *WebexSender {
	return &WebexSender{Client: &http.Client{Timeout: 15 * time.Second}, BaseURL: "https://webexapis.com/v1"}
}

func (s *WebexSender) Send(ctx context.Context, cred string, msg models.OutMessage, render cardir.RenderResult) (SendResult, error) {
	payload := make(map[string]interface{}, len(render.Payload)+1)
	for k, v := range render.Payload {
		payload[k] = v
	}
	payload["roomId"] = msg.ChatID
	if msg.ThreadID != "" {
		payload["parentId"] = msg.ThreadID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return SendResult{}, fmt.Errorf("webex: marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/messages", s.BaseURL)
	result, err := doJSON(ctx, s.Client, url, body, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+cred)
	})
	if err != nil {
		return SendResult{}, err
	}
	result.MessageID = extractJSONString(result.Body, "id")
	return result, nil
}
