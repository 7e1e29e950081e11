// Package runner interprets flow.Flow graphs against an inbound
// envelope, producing a RunnerOutcome the caller publishes or DLQs
// (spec §4.5, §9 Design Notes).
package runner

import (
	"context"
	"fmt"

	"github.com/greentic/messaging-fabric/internal/flow"
	"github.com/greentic/messaging-fabric/internal/sessions"
	"github.com/greentic/messaging-fabric/pkg/models"
)

// maxHops bounds a single Run call's node traversal so a flow authored
// with a routing cycle fails loudly instead of spinning forever.
const maxHops = 64

// Engine executes flow graphs. Agent and Tool may be nil; a flow that
// never uses fallback_agent or a live tool endpoint works without them.
type Engine struct {
	Sessions sessions.Store
	Agent    AgentResolver
	Tool     ToolInvoker
}

// NewEngine builds an Engine with the live HTTP-backed resolvers.
func NewEngine(store sessions.Store) *Engine {
	return &Engine{
		Sessions: store,
		Agent:    NewHTTPAgentResolver(),
		Tool:     NewHTTPToolInvoker(),
	}
}

// Run executes f starting from the caller's persisted cursor (or
// f.EntryNodeID on a fresh session), one node at a time, until a node
// routes to flow.EndNode or maxHops is exceeded.
func (e *Engine) Run(ctx context.Context, f *flow.Flow, tctx models.TenantContext, envelope *models.MessageEnvelope) (RunnerOutcome, error) {
	session, found, err := e.Sessions.Get(ctx, tctx.Env, tctx.Tenant, envelope.UserID)
	if err != nil {
		return RunnerOutcome{}, fmt.Errorf("runner: session lookup: %w", err)
	}

	state := map[string]interface{}{}
	cursor := f.EntryNodeID
	if found && session.FlowID == f.ID {
		cursor = session.Cursor
		if session.ContextJSON != nil {
			state = session.ContextJSON
		}
	}

	envelopeMap := envelopeToMap(envelope)
	outcome := RunnerOutcome{State: state}

	for hop := 0; ; hop++ {
		if cursor == flow.EndNode {
			break
		}
		if hop >= maxHops {
			return outcome, fmt.Errorf("runner: flow %q exceeded %d hops, possible routing cycle at node %q", f.ID, maxHops, cursor)
		}

		node, ok := f.Nodes[cursor]
		if !ok {
			return outcome, fmt.Errorf("runner: flow %q has no node %q", f.ID, cursor)
		}

		if node.QA != nil {
			if err := e.runQA(ctx, node.QA, envelope.Text, state); err != nil {
				return outcome, err
			}
		}

		var lastToolOutput map[string]interface{}
		if node.Tool != nil {
			scope := scopeFor(envelopeMap, state, nil)
			output, rec, err := e.runTool(ctx, node.Tool, scope)
			if err != nil {
				return outcome, err
			}
			if rec != nil {
				outcome.ToolCalls = append(outcome.ToolCalls, *rec)
			}
			lastToolOutput = output
			for k, v := range output {
				state[k] = v
			}
		}

		if node.Template != nil {
			scope := scopeFor(envelopeMap, state, lastToolOutput)
			text := renderTemplate(node.Template.Text, scope)
			outcome.OutMessages = append(outcome.OutMessages, models.OutMessage{
				Ctx:      tctx,
				Tenant:   envelope.Tenant,
				Platform: envelope.Platform,
				ChatID:   envelope.ChatID,
				ThreadID: envelope.ThreadID,
				Kind:     models.OutText,
				Text:     text,
			})
		}

		if node.Card != nil {
			scope := scopeFor(envelopeMap, state, lastToolOutput)
			card := renderCard(node.Card, scope)
			outcome.OutMessages = append(outcome.OutMessages, models.OutMessage{
				Ctx:         tctx,
				Tenant:      envelope.Tenant,
				Platform:    envelope.Platform,
				ChatID:      envelope.ChatID,
				ThreadID:    envelope.ThreadID,
				Kind:        models.OutCard,
				MessageCard: &card,
			})
		}

		if len(node.Routes) == 0 {
			return outcome, fmt.Errorf("runner: flow %q node %q has no routes", f.ID, cursor)
		}
		cursor = node.Routes[0]
	}

	outcome.NextCursor = cursor
	outcome.State = state

	newSession := &models.Session{
		Ctx:         tctx,
		FlowID:      f.ID,
		Cursor:      cursor,
		ContextJSON: state,
	}
	if err := e.Sessions.Put(ctx, envelope.UserID, newSession); err != nil {
		return outcome, fmt.Errorf("runner: session persist: %w", err)
	}

	return outcome, nil
}

func envelopeToMap(e *models.MessageEnvelope) map[string]interface{} {
	return map[string]interface{}{
		"tenant":     e.Tenant,
		"platform":   string(e.Platform),
		"chat_id":    e.ChatID,
		"user_id":    e.UserID,
		"thread_id":  e.ThreadID,
		"msg_id":     e.MsgID,
		"text":       e.Text,
		"timestamp":  e.Timestamp,
		"context":    e.Context,
	}
}
