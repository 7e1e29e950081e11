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

// TeamsSender POSTs to the Graph API chats/{id}/messages endpoint.
// A successful send is never retried due to a failed delivery ack
// from the client side — Teams' own ack channel is out of scope here
// (Open Question decision recorded in DESIGN.md), this sender only
// concerns itself with the HTTP response to the POST itself.
type TeamsSender struct {
	Client  *http.Client
	BaseURL string
}

// NewTeamsSender builds a sender with a bounded timeout client.
func NewTeamsSender() *TeamsSender {
	return &TeamsSender{Client: &http.Client{Timeout: 15 * time.Second}, BaseURL: "https://graph.microsoft.com/v1.0"}
}

func (s *TeamsSender) Send(ctx context.Context, cred string, msg models.OutMessage, render cardir.RenderResult) (SendResult, error) {
	body, err := json.Marshal(render.Payload)
	if err != nil {
		return SendResult{}, fmt.Errorf("teams: marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/chats/%s/messages", s.BaseURL, msg.ChatID)
	result, err := doJSON(ctx, s.Client, url, body, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+cred)
	})
	if err != nil {
		return SendResult{}, err
	}
	result.MessageID = extractJSONString(result.Body, "id")
	return result, nil
}
