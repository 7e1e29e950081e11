// Package dispatch wires the flow runner to the bus: consume an
// inbound envelope, run it through the engine, and publish or DLQ the
// result. This is the runner binary's core loop (no sink/DLQ callback
// lives inside internal/runner itself; the caller owns that
// decision).
package dispatch

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/greentic/messaging-fabric/internal/bus"
	"github.com/greentic/messaging-fabric/internal/flow"
	"github.com/greentic/messaging-fabric/internal/runner"
	"github.com/greentic/messaging-fabric/internal/telemetry"
	"github.com/greentic/messaging-fabric/pkg/models"
)

// maxAttempts is the redelivery bound handed to the runner's queue
// subscription, the same threshold the egress worker uses. Engine and
// publish failures are not redelivered: they are DLQ'd and acked.
const maxAttempts = 5

// FlowProvider resolves the flow definition an envelope's session
// should run against.
type FlowProvider interface {
	Resolve(tctx models.TenantContext) (*flow.Flow, bool)
}

// Worker consumes inbound envelopes for one tenant across every
// platform and chat, running each through Engine and publishing the
// resulting OutMessages.
type Worker struct {
	Env       string
	Tenant    string
	Bus       bus.Bus
	Engine    *runner.Engine
	Flows     FlowProvider
	Telemetry *telemetry.Facade
}

// Run subscribes to every ingress subject and processes messages
// until ctx is cancelled or the subscription errors.
func (w *Worker) Run(ctx context.Context) error {
	sub, err := w.Bus.QueueSubscribe(ctx, "greentic.msg.in.>", "runner-"+w.Tenant, maxAttempts)
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
	var env models.MessageEnvelope
	if err := json.Unmarshal(msg.Data(), &env); err != nil {
		log.Error().Err(err).Msg("dispatch: malformed MessageEnvelope, dropping")
		_ = msg.Ack()
		return
	}
	if env.Tenant != w.Tenant {
		_ = msg.Ack()
		return
	}

	tctx := models.TenantContext{Env: w.Env, Tenant: env.Tenant, User: env.UserID}
	f, ok := w.Flows.Resolve(tctx)
	if !ok {
		w.dlq(ctx, env, "E_TRANSLATE", "no flow configured for tenant")
		_ = msg.Ack()
		return
	}

	outcome, err := w.Engine.Run(ctx, f, tctx, &env)
	if err != nil {
		w.dlq(ctx, env, "E_TRANSLATE", err.Error())
		_ = msg.Ack()
		return
	}

	for _, out := range outcome.OutMessages {
		data, marshalErr := json.Marshal(out)
		if marshalErr != nil {
			w.dlq(ctx, env, "E_TRANSLATE", marshalErr.Error())
			continue
		}
		subject := bus.OutSubject(out.Ctx.Env, out.Ctx.Tenant, out.Ctx.TeamOrDefault(), out.Platform.String())
		if pubErr := w.Bus.Publish(ctx, subject, data); pubErr != nil {
			w.dlq(ctx, env, "E_TRANSLATE", pubErr.Error())
			_ = msg.Ack()
			return
		}
	}

	if w.Telemetry != nil {
		w.Telemetry.RunnerOutcome(ctx, telemetry.Labels{Tenant: env.Tenant, Env: w.Env, Platform: env.Platform.String(), ChatID: env.ChatID, MsgID: env.MsgID}, true)
	}
	_ = msg.Ack()
}

func (w *Worker) dlq(ctx context.Context, env models.MessageEnvelope, code, message string) {
	record := models.DLQRecord{
		Tenant:   env.Tenant,
		Platform: env.Platform,
		MsgID:    env.MsgID,
		Error: models.DLQError{
			Code:    code,
			Message: message,
			Stage:   "translate",
		},
		Data: env,
	}
	data, err := json.Marshal(record)
	if err != nil {
		log.Error().Err(err).Msg("dispatch: failed to marshal DLQ record")
		return
	}
	if err := w.Bus.Publish(ctx, bus.DLQSubject("translate"), data); err != nil {
		log.Error().Err(err).Str("msg_id", env.MsgID).Msg("dispatch: failed to publish DLQ record")
	}
	if w.Telemetry != nil {
		w.Telemetry.RunnerOutcome(ctx, telemetry.Labels{Tenant: env.Tenant, Env: w.Env, Platform: env.Platform.String(), ChatID: env.ChatID, MsgID: env.MsgID}, false)
	}
}
