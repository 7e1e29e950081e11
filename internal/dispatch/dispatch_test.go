package dispatch

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/greentic/messaging-fabric/internal/bus"
	"github.com/greentic/messaging-fabric/internal/flow"
	"github.com/greentic/messaging-fabric/internal/runner"
	"github.com/greentic/messaging-fabric/internal/sessions"
	"github.com/greentic/messaging-fabric/internal/telemetry"
	"github.com/greentic/messaging-fabric/pkg/models"
)

type staticFlows struct {
	f *flow.Flow
}

func (s staticFlows) Resolve(models.TenantContext) (*flow.Flow, bool) {
	return s.f, s.f != nil
}

func greetFlow() *flow.Flow {
	return &flow.Flow{
		ID:          "greet",
		EntryNodeID: "reply",
		Nodes: map[string]flow.Node{
			"reply": {
				Template: &flow.TemplateSection{Text: "hello {{envelope.text}}"},
				Routes:   []string{flow.EndNode},
			},
		},
	}
}

func publishIn(t *testing.T, b *bus.Local, env models.MessageEnvelope) {
	t.Helper()
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	if err := b.Publish(context.Background(), bus.InSubject(env.Tenant, env.Platform.String(), env.ChatID), data); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func TestWorker_RunsFlowAndPublishesOutMessage(t *testing.T) {
	b := bus.NewLocal()
	defer b.Close()

	out, err := b.Subscribe(context.Background(), bus.OutQueueWildcard("acme", "slack"))
	if err != nil {
		t.Fatalf("subscribe out: %v", err)
	}

	w := &Worker{
		Env:       "prod",
		Tenant:    "acme",
		Bus:       b,
		Engine:    runner.NewEngine(sessions.NewMemory()),
		Flows:     staticFlows{f: greetFlow()},
		Telemetry: telemetry.NewFacade(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	publishIn(t, b, models.MessageEnvelope{
		Tenant: "acme", Platform: models.PlatformSlack, ChatID: "C1", UserID: "U1",
		MsgID: "m1", Text: "world", Timestamp: "2026-01-01T00:00:00Z",
	})

	select {
	case msg := <-out.Messages():
		var outMsg models.OutMessage
		if err := json.Unmarshal(msg.Data(), &outMsg); err != nil {
			t.Fatalf("unmarshal OutMessage: %v", err)
		}
		if outMsg.Text != "hello world" {
			t.Fatalf("text = %q, want %q", outMsg.Text, "hello world")
		}
		_ = msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OutMessage")
	}
}

func TestWorker_IgnoresEnvelopesForOtherTenants(t *testing.T) {
	b := bus.NewLocal()
	defer b.Close()

	out, err := b.Subscribe(context.Background(), bus.OutQueueWildcard("acme", "slack"))
	if err != nil {
		t.Fatalf("subscribe out: %v", err)
	}

	w := &Worker{
		Env:    "prod",
		Tenant: "acme",
		Bus:    b,
		Engine: runner.NewEngine(sessions.NewMemory()),
		Flows:  staticFlows{f: greetFlow()},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	publishIn(t, b, models.MessageEnvelope{
		Tenant: "globex", Platform: models.PlatformSlack, ChatID: "C1", UserID: "U1",
		MsgID: "m1", Text: "world", Timestamp: "2026-01-01T00:00:00Z",
	})

	select {
	case <-out.Messages():
		t.Fatal("did not expect an OutMessage for a foreign tenant's envelope")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWorker_NoFlowConfiguredPublishesDLQ(t *testing.T) {
	b := bus.NewLocal()
	defer b.Close()

	dlq, err := b.Subscribe(context.Background(), bus.DLQSubject("translate"))
	if err != nil {
		t.Fatalf("subscribe dlq: %v", err)
	}

	w := &Worker{
		Env:    "prod",
		Tenant: "acme",
		Bus:    b,
		Engine: runner.NewEngine(sessions.NewMemory()),
		Flows:  staticFlows{f: nil},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	publishIn(t, b, models.MessageEnvelope{
		Tenant: "acme", Platform: models.PlatformSlack, ChatID: "C1", UserID: "U1",
		MsgID: "m1", Text: "world", Timestamp: "2026-01-01T00:00:00Z",
	})

	select {
	case msg := <-dlq.Messages():
		var record models.DLQRecord
		if err := json.Unmarshal(msg.Data(), &record); err != nil {
			t.Fatalf("unmarshal DLQRecord: %v", err)
		}
		if record.Error.Code != "E_TRANSLATE" {
			t.Fatalf("code = %q, want E_TRANSLATE", record.Error.Code)
		}
		_ = msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for DLQ record")
	}
}
