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

// SlackSender POSTs to chat.postMessage.
type SlackSender struct {
	Client  *http.Client
	BaseURL string
}

// NewSlackSender builds a sender with a bounded timeout client.
func NewSlackSender() *SlackSender {
	return &SlackSender{Client: &http.Client{Timeout: 15 * time.Second}, BaseURL: "https://slack.com/api"}
}

func (s *SlackSender) Send(ctx context.Context, cred string, msg models.OutMessage, render cardir.RenderResult) (SendResult, error) {
	payload := make(map[string]interface{}, len(render.Payload)+2)
	for k, v := range render.Payload {
		payload[k] = v
	}
	payload["channel"] = msg.ChatID
	if msg.ThreadID != "" {
		payload["thread_ts"] = msg.ThreadID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return SendResult{}, fmt.Errorf("slack: marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/chat.postMessage", s.BaseURL)
	result, err := doJSON(ctx, s.Client, url, body, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+cred)
	})
	if err != nil {
		return SendResult{}, err
	}

	// Slack's API always answers 200 and signals failure via {"ok":
	// false, "error": "..."} in the body; translate that into the same
	// 4xx/5xx classification space the other platforms use natively.
	if result.StatusCode == http.StatusOK && !slackOK(result.Body) {
		result.StatusCode = http.StatusBadRequest
	}
	result.MessageID = extractJSONString(result.Body, "ts")
	return result, nil
}

func slackOK(body []byte) bool {
	var decoded struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return true
	}
	return decoded.OK
}
