package renderers

import (
	"fmt"
	"strings"

	"github.com/greentic/messaging-fabric/internal/cardir"
	"github.com/greentic/messaging-fabric/pkg/models"
)

// whatsappMaxButtons is the Cloud API's interactive.button limit.
const whatsappMaxButtons = 3

// whatsappBodyLineLimit caps the title+body-block lines that make up
// the message body (spec §4.1: "truncated to 5 lines of (title + body
// blocks)"). whatsappTitleLimit caps button/reply titles.
const (
	whatsappBodyLineLimit = 5
	whatsappTitleLimit    = 20
)

func init() {
	cardir.RegisterRenderer(models.PlatformWhatsApp, renderWhatsApp)
}

// renderWhatsApp renders at Advanced: cardir.Render downgrades to
// MaxTierFor(WhatsApp), which does not consider the 24h session
// window; outside that window the egress sender sends a template
// message first instead of downgrading this payload further. At
// most 3 postback actions become an interactive.button message; more
// actions, or any OpenUrl action, fall back to a single cta_url button
// (first OpenUrl found) or a plain text summary of the options.
func renderWhatsApp(ir cardir.MessageCardIR, signer cardir.LinkSigner) (cardir.RenderResult, error) {
	sanitizer := cardir.Sanitizer{SupportsHTML: false, SupportsMarkdown: false}
	result := cardir.RenderResult{}

	var lines []string
	if ir.Head.Title != "" {
		lines = append(lines, ir.Head.Title)
	}
	for _, e := range ir.Elements {
		switch e.Kind {
		case cardir.ElementText:
			text, mutated := sanitizer.Clean(e.Text)
			if mutated {
				result.SanitizedCount++
			}
			lines = append(lines, text)
			result.NativeCount++
		case cardir.ElementFactSet:
			var facts []string
			for _, f := range e.Facts {
				facts = append(facts, fmt.Sprintf("%s: %s", f.Label, f.Value))
			}
			if len(facts) > 0 {
				lines = append(lines, strings.Join(facts, "\n"))
			}
			result.NativeCount++
		case cardir.ElementImage:
			result.NativeCount++
		}
	}

	if len(lines) > whatsappBodyLineLimit {
		lines = lines[:whatsappBodyLineLimit]
		markPayloadTrimmed(&result)
	}
	body := strings.Join(lines, "\n\n")
	if body != "" {
		body += "\n\n"
	}

	var postbacks []cardir.IRAction
	var openURL *cardir.IRAction
	for i, a := range ir.Actions {
		switch a.Kind {
		case cardir.IRActionPostback:
			postbacks = append(postbacks, a)
		case cardir.IRActionOpenURL:
			if !cardir.URLAllowed(a.URL) {
				result.URLBlockedCount++
				continue
			}
			if openURL == nil {
				openURL = &ir.Actions[i]
			}
		}
	}

	switch {
	case len(postbacks) > 0 && len(postbacks) <= whatsappMaxButtons && openURL == nil:
		var buttons []map[string]interface{}
		for i, a := range postbacks {
			buttons = append(buttons, map[string]interface{}{
				"type": "reply",
				"reply": map[string]interface{}{
					"id":    fmt.Sprintf("btn_%d", i),
					"title": truncateWhatsApp(a.Title, whatsappTitleLimit),
				},
			})
		}
		result.Payload = map[string]interface{}{
			"type": "interactive",
			"interactive": map[string]interface{}{
				"type":   "button",
				"body":   map[string]interface{}{"text": trimTo(body, 1024, &result)},
				"action": map[string]interface{}{"buttons": buttons},
			},
		}
	case openURL != nil && len(postbacks) == 0:
		result.Payload = map[string]interface{}{
			"type": "interactive",
			"interactive": map[string]interface{}{
				"type": "cta_url",
				"body": map[string]interface{}{"text": trimTo(body, 1024, &result)},
				"action": map[string]interface{}{
					"name": "cta_url",
					"parameters": map[string]interface{}{
						"display_text": truncateWhatsApp(openURL.Title, whatsappTitleLimit),
						"url":          openURL.URL,
					},
				},
			},
		}
		result.DowngradeCount += len(postbacks)
	default:
		for _, a := range postbacks {
			body += fmt.Sprintf("- %s\n", truncateWhatsApp(a.Title, whatsappTitleLimit))
		}
		if openURL != nil {
			body += fmt.Sprintf("- %s: %s\n", truncateWhatsApp(openURL.Title, whatsappTitleLimit), openURL.URL)
		}
		result.Payload = map[string]interface{}{
			"type": "text",
			"text": map[string]interface{}{"body": trimTo(body, 4096, &result)},
		}
		result.DowngradeCount += len(postbacks)
	}

	return result, nil
}

// trimTo clamps s to limit bytes, marking result as trimmed when it
// actually had to cut.
func trimTo(s string, limit int, result *cardir.RenderResult) string {
	if len(s) <= limit {
		return s
	}
	markPayloadTrimmed(result)
	return s[:limit]
}

// truncateWhatsApp clamps s to limit runes with no ellipsis, matching
// the Cloud API's own hard title truncation behavior.
func truncateWhatsApp(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
