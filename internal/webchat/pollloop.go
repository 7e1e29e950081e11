package webchat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/greentic/messaging-fabric/internal/bus"
	"github.com/greentic/messaging-fabric/internal/telemetry"
	"github.com/greentic/messaging-fabric/pkg/models"
)

// pollResult is the classification spec §4.7's long-poll ingress loop
// table names.
type pollResult int

const (
	pollPublish pollResult = iota
	pollTerminate
	pollBackoff
)

// PollLoop is the provider-variant long-poll ingress loop: it polls an
// external Direct-Line-compatible conversation on behalf of a tenant
// and republishes each activity onto the internal bus (spec §4.7
// "Long-poll ingress loop (provider variant)").
type PollLoop struct {
	Ctx            models.TenantContext
	ConversationID string
	BaseURL        string
	Token          string
	Client         *http.Client
	Bus            bus.Bus
	Breaker        *CircuitBreaker
	Telemetry      *telemetry.Facade

	PollInterval time.Duration
	BackoffBase  time.Duration
	BackoffCap   time.Duration

	watermark uint64
}

// activityFeed is the Direct Line activities response shape.
type activityFeed struct {
	Activities []map[string]interface{} `json:"activities"`
	Watermark  string                   `json:"watermark"`
}

// Run polls until ctx is cancelled or the remote terminates the
// conversation (401/403/404, or an unrecognized status).
func (p *PollLoop) Run(ctx context.Context) error {
	interval := p.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	backoff := p.BackoffBase
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	backoffCap := p.BackoffCap
	if backoffCap <= 0 {
		backoffCap = 8 * time.Second
	}

	labels := telemetry.Labels{Tenant: p.Ctx.Tenant, Env: p.Ctx.Env, Team: p.Ctx.Team, ChatID: p.ConversationID}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if p.Breaker != nil && !p.Breaker.Allow() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
			continue
		}

		result, err := p.poll(ctx, labels)
		switch result {
		case pollPublish:
			if p.Breaker != nil {
				p.Breaker.RecordSuccess()
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
			backoff = p.BackoffBase
		case pollBackoff:
			if p.Breaker != nil {
				p.Breaker.RecordFailure()
			}
			if p.Telemetry != nil {
				p.Telemetry.WebchatError(ctx, labels, "backoff")
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > backoffCap {
				backoff = backoffCap
			}
		case pollTerminate:
			log.Warn().Str("conversation_id", p.ConversationID).Err(err).Msg("webchat: poll loop terminating")
			return err
		}
	}
}

func (p *PollLoop) poll(ctx context.Context, labels telemetry.Labels) (pollResult, error) {
	start := time.Now()
	url := fmt.Sprintf("%s/conversations/%s/activities?watermark=%d", p.BaseURL, p.ConversationID, p.watermark)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return pollTerminate, err
	}
	req.Header.Set("Authorization", "Bearer "+p.Token)

	resp, err := p.Client.Do(req)
	if err != nil {
		return pollBackoff, err
	}
	defer resp.Body.Close()

	if p.Telemetry != nil {
		p.Telemetry.WebchatPollLatency(ctx, labels, time.Since(start).Seconds())
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return p.handleOK(ctx, resp.Body, labels)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusNotFound:
		return pollTerminate, fmt.Errorf("webchat: poll loop terminated with status %d", resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return pollBackoff, fmt.Errorf("webchat: transient poll status %d", resp.StatusCode)
	default:
		return pollTerminate, fmt.Errorf("webchat: unrecognized poll status %d", resp.StatusCode)
	}
}

func (p *PollLoop) handleOK(ctx context.Context, body io.Reader, labels telemetry.Labels) (pollResult, error) {
	var feed activityFeed
	if err := json.NewDecoder(body).Decode(&feed); err != nil {
		return pollBackoff, err
	}

	subject := bus.WebchatInSubject(p.Ctx.Env, p.Ctx.Tenant, p.Ctx.Team)
	published := 0
	for _, activity := range feed.Activities {
		data, err := json.Marshal(activity)
		if err != nil {
			continue
		}
		if err := p.Bus.Publish(ctx, subject, data); err != nil {
			log.Error().Err(err).Str("conversation_id", p.ConversationID).Msg("webchat: publish failed")
			continue
		}
		published++
	}
	if p.Telemetry != nil && published > 0 {
		p.Telemetry.WebchatPolled(ctx, labels, published)
		p.Telemetry.WebchatPublished(ctx, labels, published)
	}

	if feed.Watermark != "" {
		var next uint64
		if _, err := fmt.Sscanf(feed.Watermark, "%d", &next); err == nil {
			p.watermark = next
		}
	}
	return pollPublish, nil
}
