package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// AgentResolver extracts structured answers from free text when a QA
// question's own extraction (number regex / first max_words tokens)
// comes up empty (spec §4.5 "fallback_agent", supplemental from the
// original's qa_node.rs: request shape `{text} -> {field: value, ...}`).
type AgentResolver interface {
	Resolve(ctx context.Context, endpoint, text string) (map[string]interface{}, error)
}

// HTTPAgentResolver posts {"text": ...} to the configured endpoint and
// expects a flat JSON object of extracted field -> value back.
type HTTPAgentResolver struct {
	Client *http.Client
}

// NewHTTPAgentResolver builds a resolver with a bounded timeout client.
func NewHTTPAgentResolver() *HTTPAgentResolver {
	return &HTTPAgentResolver{Client: &http.Client{Timeout: 10 * time.Second}}
}

func (r *HTTPAgentResolver) Resolve(ctx context.Context, endpoint, text string) (map[string]interface{}, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("agent: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("agent: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("agent: endpoint returned status %d", resp.StatusCode)
	}

	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("agent: decode response: %w", err)
	}
	return out, nil
}
