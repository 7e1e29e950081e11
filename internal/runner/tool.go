package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/greentic/messaging-fabric/internal/flow"
)

// ToolInvoker calls a tool endpoint with a resolved JSON payload and
// returns its decoded response. Stubbed sections never reach this.
type ToolInvoker interface {
	Invoke(ctx context.Context, endpoint string, payload map[string]interface{}) (map[string]interface{}, error)
}

// HTTPToolInvoker is the live, non-stub implementation.
type HTTPToolInvoker struct {
	Client *http.Client
}

// NewHTTPToolInvoker builds an invoker with a bounded timeout client.
func NewHTTPToolInvoker() *HTTPToolInvoker {
	return &HTTPToolInvoker{Client: &http.Client{Timeout: 20 * time.Second}}
}

func (inv *HTTPToolInvoker) Invoke(ctx context.Context, endpoint string, payload map[string]interface{}) (map[string]interface{}, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("tool: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tool: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := inv.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tool: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("tool: endpoint returned status %d", resp.StatusCode)
	}

	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("tool: decode response: %w", err)
	}
	return out, nil
}

// runTool resolves the section's input template against scope, then
// stubs or invokes the endpoint, recording a ToolCallRecord either
// way, and returns the response for the caller to merge into state.
func (e *Engine) runTool(ctx context.Context, section *flow.ToolSection, scope map[string]interface{}) (map[string]interface{}, *ToolCallRecord, error) {
	request := renderPayload(section.InputPayload, scope)

	if section.Stub {
		rec := &ToolCallRecord{Endpoint: section.Endpoint, Stub: true, Request: request, Response: section.StubOutput}
		return section.StubOutput, rec, nil
	}

	if e.Tool == nil {
		return nil, nil, fmt.Errorf("tool: no invoker configured for endpoint %q", section.Endpoint)
	}
	response, err := e.Tool.Invoke(ctx, section.Endpoint, request)
	if err != nil {
		return nil, nil, err
	}
	rec := &ToolCallRecord{Endpoint: section.Endpoint, Stub: false, Request: request, Response: response}
	return response, rec, nil
}

// renderPayload walks a payload template tree, rendering every string
// leaf against scope and leaving other JSON value kinds untouched.
func renderPayload(payload map[string]interface{}, scope map[string]interface{}) map[string]interface{} {
	if payload == nil {
		return nil
	}
	out := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		out[k] = renderValue(v, scope)
	}
	return out
}

func renderValue(v interface{}, scope map[string]interface{}) interface{} {
	switch val := v.(type) {
	case string:
		return renderTemplate(val, scope)
	case map[string]interface{}:
		return renderPayload(val, scope)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = renderValue(item, scope)
		}
		return out
	default:
		return v
	}
}
