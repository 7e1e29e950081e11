// Package renderers holds one pure function per platform translating
// a tier-downgraded cardir.MessageCardIR into that platform's native
// payload shape (spec §4.1). Each file registers itself against
// cardir's dispatch registry from an init() func so cmd/*/main.go only
// needs to blank-import this package once.
package renderers

import (
	"encoding/json"
	"fmt"

	"github.com/greentic/messaging-fabric/internal/cardir"
	"github.com/greentic/messaging-fabric/pkg/models"
)

// Slack Block Kit limits (spec §4.1; mirrors the original HEADER_LIMIT,
// MODAL_TITLE_LIMIT and BUTTON_LIMIT constants).
const (
	slackHeaderLimit     = 150
	slackModalTitleLimit = 24
	slackButtonLimit     = 5
	slackFactSetLimit    = 10
)

func init() {
	cardir.RegisterRenderer(models.PlatformSlack, renderSlack)
}

// renderSlack builds a Block Kit payload. Slack renders at Advanced
// tier, but Input elements still reach here (cardir.Render keeps them
// alive for Slack specifically) and force a modal rendering instead of
// being dropped.
func renderSlack(ir cardir.MessageCardIR, signer cardir.LinkSigner) (cardir.RenderResult, error) {
	result := cardir.RenderResult{}

	hasInputs := false
	for _, e := range ir.Elements {
		if e.Kind == cardir.ElementInput {
			hasInputs = true
			break
		}
	}

	blocks := slackBlocks(ir, &result, hasInputs)

	if hasInputs {
		title := ir.Head.Title
		if title == "" {
			title = ir.Head.Text
		}
		if title == "" {
			title = "Card"
		}
		result.Payload = map[string]interface{}{
			"type":        "modal",
			"callback_id": "messaging_fabric_card",
			"title":       map[string]interface{}{"type": "plain_text", "text": truncateSlack(title, slackModalTitleLimit)},
			"submit":      map[string]interface{}{"type": "plain_text", "text": "Submit"},
			"close":       map[string]interface{}{"type": "plain_text", "text": "Cancel"},
			"blocks":      blocks,
		}
		result.UsedModal = true
		return result, nil
	}

	result.Payload = map[string]interface{}{"blocks": blocks}
	return result, nil
}

// slackBlocks builds the shared block list both the plain-message and
// modal render paths use. The header block is only emitted outside a
// modal, since the modal's title carries that role instead; the
// actions block is appended unconditionally in both paths.
func slackBlocks(ir cardir.MessageCardIR, result *cardir.RenderResult, includeInputs bool) []map[string]interface{} {
	sanitizer := cardir.Sanitizer{SupportsHTML: false, SupportsMarkdown: true}

	var blocks []map[string]interface{}
	if !includeInputs && ir.Head.Title != "" {
		blocks = append(blocks, textBlock("mrkdwn", "*"+truncateSlack(ir.Head.Title, slackHeaderLimit)+"*"))
	}

	for _, e := range ir.Elements {
		switch e.Kind {
		case cardir.ElementText:
			text, mutated := sanitizer.Clean(e.Text)
			if mutated {
				result.SanitizedCount++
			}
			blocks = append(blocks, textBlock("mrkdwn", text))
			result.NativeCount++
		case cardir.ElementImage:
			blocks = append(blocks, map[string]interface{}{
				"type":      "image",
				"image_url": e.URL,
				"alt_text":  e.Alt,
			})
			result.NativeCount++
		case cardir.ElementFactSet:
			if len(e.Facts) == 0 {
				continue
			}
			facts := e.Facts
			if len(facts) > slackFactSetLimit {
				facts = facts[:slackFactSetLimit]
				result.Warnings = append(result.Warnings, "slack.factset_truncated")
			}
			var fields []map[string]interface{}
			for _, f := range facts {
				fields = append(fields, textBlock("mrkdwn", "*"+f.Label+"*\n"+f.Value))
			}
			blocks = append(blocks, map[string]interface{}{
				"type":   "section",
				"fields": fields,
			})
			result.NativeCount++
		case cardir.ElementInput:
			if !includeInputs {
				result.Warnings = append(result.Warnings, "slack.inputs_require_modal")
				continue
			}
			block, ok := slackInputBlock(e, result)
			if ok {
				blocks = append(blocks, block)
			}
			result.NativeCount++
		}
	}

	if actions := slackActionsBlock(ir.Actions, result); actions != nil {
		blocks = append(blocks, actions)
	}

	return blocks
}

// slackInputBlock converts an Input element to its Block Kit input
// block. Choice inputs with no options are dropped with a warning
// instead of emitting an empty static_select.
func slackInputBlock(e cardir.Element, result *cardir.RenderResult) (map[string]interface{}, bool) {
	switch e.InputKind {
	case cardir.InputChoice:
		if len(e.Choices) == 0 {
			result.Warnings = append(result.Warnings, "slack.choice_without_options")
			return nil, false
		}
		var options []map[string]interface{}
		for _, c := range e.Choices {
			options = append(options, map[string]interface{}{
				"text":  map[string]interface{}{"type": "plain_text", "text": c},
				"value": c,
			})
		}
		return map[string]interface{}{
			"type":     "input",
			"block_id": e.ID,
			"label":    map[string]interface{}{"type": "plain_text", "text": e.Label},
			"optional": !e.Required,
			"element": map[string]interface{}{
				"type":      "static_select",
				"action_id": e.ID,
				"options":   options,
			},
		}, true
	default:
		return map[string]interface{}{
			"type":     "input",
			"block_id": e.ID,
			"label":    map[string]interface{}{"type": "plain_text", "text": e.Label},
			"optional": !e.Required,
			"element": map[string]interface{}{
				"type":      "plain_text_input",
				"action_id": e.ID,
			},
		}, true
	}
}

// slackActionsBlock builds the actions block, capping at
// slackButtonLimit buttons and serializing Postback data to a JSON
// string for the button's value.
func slackActionsBlock(actions []cardir.IRAction, result *cardir.RenderResult) map[string]interface{} {
	if len(actions) == 0 {
		return nil
	}

	truncated := false
	if len(actions) > slackButtonLimit {
		actions = actions[:slackButtonLimit]
		truncated = true
	}

	var elements []map[string]interface{}
	for i, a := range actions {
		switch a.Kind {
		case cardir.IRActionOpenURL:
			if !cardir.URLAllowed(a.URL) {
				result.URLBlockedCount++
				continue
			}
			elements = append(elements, map[string]interface{}{
				"type": "button",
				"text": map[string]interface{}{"type": "plain_text", "text": a.Title},
				"url":  a.URL,
			})
		case cardir.IRActionPostback:
			value, err := json.Marshal(a.Data)
			if err != nil {
				result.Warnings = append(result.Warnings, "slack.postback_unserializable")
				value = []byte("{}")
			}
			elements = append(elements, map[string]interface{}{
				"type":      "button",
				"text":      map[string]interface{}{"type": "plain_text", "text": a.Title},
				"action_id": fmt.Sprintf("postback_%d", i),
				"value":     string(value),
			})
		}
	}

	if truncated {
		result.Warnings = append(result.Warnings, "slack.actions_truncated")
	}

	if len(elements) == 0 {
		return nil
	}
	return map[string]interface{}{
		"type":     "actions",
		"elements": elements,
	}
}

func textBlock(kind, text string) map[string]interface{} {
	return map[string]interface{}{
		"type": "section",
		"text": map[string]interface{}{"type": kind, "text": text},
	}
}

// truncateSlack clamps s to limit runes, replacing the final rune with
// an ellipsis when it must cut (mirrors the original's truncate()).
func truncateSlack(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 0 {
		return ""
	}
	return string(r[:limit-1]) + "…"
}
