package ingress

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/greentic/messaging-fabric/internal/bus"
	"github.com/greentic/messaging-fabric/internal/idempotency"
	"github.com/greentic/messaging-fabric/pkg/models"
	"github.com/rs/zerolog/log"
)

// Pipeline is the shared tail of every platform handler: dedupe,
// serialize, publish, DLQ on publish failure (spec §4.2
// "Idempotency"/"Publication").
type Pipeline struct {
	Idempotency *idempotency.Guard
	Bus         bus.Bus
}

// Outcome tells the HTTP handler which status to return.
type Outcome int

const (
	OutcomePublished Outcome = iota
	OutcomeDuplicate
	OutcomePublishFailed
)

// Accept runs an envelope through dedupe + publish. Duplicate
// sightings return OutcomeDuplicate without publishing (202, per
// spec). A publish failure emits a DLQ record on greentic.dlq.ingress
// and returns OutcomePublishFailed (the caller maps this to 500).
func (p *Pipeline) Accept(ctx context.Context, env models.MessageEnvelope) (Outcome, error) {
	if !p.Idempotency.ShouldProcess(ctx, env.Tenant, env.Platform, env.MsgID) {
		return OutcomeDuplicate, nil
	}

	data, err := json.Marshal(env)
	if err != nil {
		return OutcomePublishFailed, fmt.Errorf("ingress: marshal envelope: %w", err)
	}

	subject := bus.InSubject(env.Tenant, env.Platform.String(), env.ChatID)
	if err := p.Bus.Publish(ctx, subject, data); err != nil {
		p.publishDLQ(ctx, env, err)
		return OutcomePublishFailed, err
	}
	return OutcomePublished, nil
}

func (p *Pipeline) publishDLQ(ctx context.Context, env models.MessageEnvelope, cause error) {
	record := models.DLQRecord{
		Tenant:   env.Tenant,
		Platform: env.Platform,
		MsgID:    env.MsgID,
		Error: models.DLQError{
			Code:    "E_PUBLISH",
			Message: cause.Error(),
			Stage:   "ingress",
		},
		Data: env,
	}
	data, err := json.Marshal(record)
	if err != nil {
		log.Error().Err(err).Msg("ingress: failed to marshal DLQ record")
		return
	}
	if err := p.Bus.Publish(ctx, bus.DLQSubject("ingress"), data); err != nil {
		log.Error().Err(err).Str("msg_id", env.MsgID).Msg("ingress: failed to publish DLQ record")
	}
}
