package egress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/greentic/messaging-fabric/internal/cardir"
	"github.com/greentic/messaging-fabric/pkg/models"
)

// SendResult carries the platform's raw response shape far enough for
// the worker to classify and log it, and the extracted message_id
// when the platform's response exposes one (spec §6 "Responses are
// parsed only enough to extract message_id").
type SendResult struct {
	StatusCode int
	Body       []byte
	RetryAfter string
	MessageID  string
}

// Sender enriches a rendered payload with platform destination fields
// (spec §4.4 step 4) and POSTs it to the platform's native endpoint
// using the tenant's credential (spec §4.4 step 5).
type Sender interface {
	Send(ctx context.Context, cred string, msg models.OutMessage, render cardir.RenderResult) (SendResult, error)
}

// doJSON is the shared HTTP POST helper every platform sender builds
// on: marshal, authenticate, post, read body, never more than the
// status/body/headers the caller needs to classify.
func doJSON(ctx context.Context, client *http.Client, url string, body []byte, setAuth func(*http.Request)) (SendResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return SendResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if setAuth != nil {
		setAuth(req)
	}

	resp, err := client.Do(req)
	if err != nil {
		return SendResult{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return SendResult{}, err
	}

	return SendResult{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		RetryAfter: resp.Header.Get("Retry-After"),
	}, nil
}

// extractJSONString walks a decoded JSON object through path and
// stringifies whatever scalar it finds, tolerating platforms that
// return message_id as either a JSON number or a string. Returns ""
// on any decode/path miss — spec §6 only asks that responses be
// "parsed only enough to extract message_id", not validated.
func extractJSONString(body []byte, path ...string) string {
	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return ""
	}
	cur := decoded
	for i, key := range path {
		switch node := cur.(type) {
		case map[string]interface{}:
			v, ok := node[key]
			if !ok {
				return ""
			}
			cur = v
		case []interface{}:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(node) {
				return ""
			}
			cur = node[idx]
		default:
			return ""
		}
		if i == len(path)-1 {
			return fmt.Sprintf("%v", cur)
		}
	}
	return ""
}
