package egress

import (
	"context"
	"encoding/json"

	"github.com/greentic/messaging-fabric/internal/bus"
	"github.com/greentic/messaging-fabric/internal/cardir"
	"github.com/greentic/messaging-fabric/internal/limiter"
	"github.com/greentic/messaging-fabric/internal/secrets"
	"github.com/greentic/messaging-fabric/internal/telemetry"
	"github.com/greentic/messaging-fabric/pkg/models"
	"github.com/rs/zerolog/log"
)

// maxAttempts is the default poison-pill threshold before a message
// is promoted straight to DLQ regardless of its transient/permanent
// classification (spec §7 "Nak'd more than max_attempts times").
const maxAttempts = 5

// CredentialKey names the secrets.Backend key a Worker looks up for
// its platform's send credential.
const CredentialKey = "bot_token"

// Worker consumes OutMessages for one (tenant, platform) pair from
// its durable queue subscription and delivers them (spec §4.4).
type Worker struct {
	Tenant   string
	Platform models.Platform
	Bus      bus.Bus
	Limiter  *limiter.Hybrid
	Secrets  secrets.Backend
	Sender   Sender
	Signer   cardir.LinkSigner
	Telemetry *telemetry.Facade
}

// Run subscribes to this worker's durable queue group and processes
// messages until ctx is cancelled or the subscription errors.
func (w *Worker) Run(ctx context.Context) error {
	sub, err := w.Bus.QueueSubscribe(
		ctx,
		bus.OutQueueWildcard(w.Tenant, w.Platform.String()),
		bus.EgressDurableName(w.Tenant, w.Platform.String()),
		maxAttempts,
	)
	if err != nil {
		return err
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-sub.Messages():
			if !ok {
				return nil
			}
			w.handle(ctx, msg)
		}
	}
}

func (w *Worker) handle(ctx context.Context, msg bus.Message) {
	var out models.OutMessage
	if err := json.Unmarshal(msg.Data(), &out); err != nil {
		log.Error().Err(err).Msg("egress: malformed OutMessage, dropping")
		w.dlq(ctx, out, "E_TRANSLATE", "malformed OutMessage JSON", msg.Attempt())
		_ = msg.Ack()
		return
	}

	if out.Platform != w.Platform {
		_ = msg.Ack()
		return
	}

	permit, err := w.Limiter.Acquire(ctx, out.Tenant)
	if err != nil {
		if msg.Attempt() >= maxAttempts {
			w.dlq(ctx, out, "E_MAX_ATTEMPTS", "exceeded max delivery attempts", msg.Attempt())
			_ = msg.Ack()
			return
		}
		_ = msg.Nak()
		return
	}
	defer permit.Release()

	render, err := w.translate(ctx, out)
	if err != nil {
		w.dlq(ctx, out, "E_TRANSLATE", err.Error(), msg.Attempt())
		_ = msg.Ack()
		return
	}

	cred, _, err := w.Secrets.Get(ctx, out.Ctx.Env, out.Ctx.Tenant, out.Ctx.TeamOrDefault(), CredentialKey)
	if err != nil {
		w.dlq(ctx, out, "E_SEND", "credential lookup failed: "+err.Error(), msg.Attempt())
		_ = msg.Ack()
		return
	}

	result, err := w.Sender.Send(ctx, cred, out, render)
	if err != nil {
		if msg.Attempt() >= maxAttempts {
			w.dlq(ctx, out, "E_MAX_ATTEMPTS", "exceeded max delivery attempts", msg.Attempt())
			_ = msg.Ack()
			return
		}
		_ = msg.Nak()
		return
	}

	switch ClassifyStatus(result.StatusCode) {
	case DispositionSuccess:
		_ = msg.Ack()
	case DispositionTransient:
		if msg.Attempt() >= maxAttempts {
			w.dlq(ctx, out, "E_MAX_ATTEMPTS", "exceeded max delivery attempts", msg.Attempt())
			_ = msg.Ack()
			return
		}
		_ = msg.Nak()
	case DispositionPermanent:
		w.dlq(ctx, out, "E_SEND", string(result.Body), msg.Attempt())
		_ = msg.Ack()
	}
}

func (w *Worker) translate(ctx context.Context, out models.OutMessage) (cardir.RenderResult, error) {
	var ir cardir.MessageCardIR
	switch out.Kind {
	case models.OutText:
		ir = cardir.NormalizePlain(&models.MessageCard{Title: out.Text})
	case models.OutCard:
		ir = cardir.NormalizePlain(out.MessageCard)
	default:
		ir = cardir.NormalizePlain(&models.MessageCard{Title: out.Text})
	}

	labels := telemetry.Labels{
		Tenant:   out.Tenant,
		Platform: out.Platform.String(),
		ChatID:   out.ChatID,
		Env:      out.Ctx.Env,
		Team:     out.Ctx.TeamOrDefault(),
	}
	return cardir.Render(ctx, out.Platform, ir, w.Signer, w.Telemetry, labels)
}

func (w *Worker) dlq(ctx context.Context, out models.OutMessage, code, message string, attempt uint32) {
	record := models.DLQRecord{
		Tenant:   out.Tenant,
		Platform: out.Platform,
		Attempt:  attempt,
		Error: models.DLQError{
			Code:    code,
			Message: message,
			Stage:   "egress",
		},
		Data: out,
	}
	data, err := json.Marshal(record)
	if err != nil {
		log.Error().Err(err).Msg("egress: failed to marshal DLQ record")
		return
	}
	if err := w.Bus.Publish(ctx, bus.DLQSubject("egress"), data); err != nil {
		log.Error().Err(err).Str("tenant", out.Tenant).Msg("egress: failed to publish DLQ record")
	}
}
