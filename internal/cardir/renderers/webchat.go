package renderers

import (
	"github.com/greentic/messaging-fabric/internal/cardir"
	"github.com/greentic/messaging-fabric/pkg/models"
)

func init() {
	cardir.RegisterRenderer(models.PlatformWebChat, renderWebChat)
}

// renderWebChat emits a Bot Framework Activity carrying the Adaptive
// Card as its single attachment, the shape the Direct Line
// conversation engine's poll responses hand back verbatim. WebChat is
// Premium-tier so every element/action kind passes through.
func renderWebChat(ir cardir.MessageCardIR, signer cardir.LinkSigner) (cardir.RenderResult, error) {
	sanitizer := cardir.Sanitizer{SupportsHTML: true, SupportsMarkdown: true}
	result := cardir.RenderResult{}

	var body []map[string]interface{}
	if ir.Head.Title != "" {
		body = append(body, map[string]interface{}{
			"type": "TextBlock", "text": ir.Head.Title, "weight": "bolder", "size": "medium", "wrap": true,
		})
	}

	for _, e := range ir.Elements {
		switch e.Kind {
		case cardir.ElementText:
			text, mutated := sanitizer.Clean(e.Text)
			if mutated {
				result.SanitizedCount++
			}
			body = append(body, map[string]interface{}{"type": "TextBlock", "text": text, "wrap": true})
			result.NativeCount++
		case cardir.ElementImage:
			body = append(body, map[string]interface{}{"type": "Image", "url": e.URL, "altText": e.Alt})
			result.NativeCount++
		case cardir.ElementFactSet:
			var facts []map[string]interface{}
			for _, f := range e.Facts {
				facts = append(facts, map[string]interface{}{"title": f.Label, "value": f.Value})
			}
			body = append(body, map[string]interface{}{"type": "FactSet", "facts": facts})
			result.NativeCount++
		case cardir.ElementInput:
			body = append(body, renderWebChatInput(e))
			result.NativeCount++
		}
	}

	var actions []map[string]interface{}
	for _, a := range ir.Actions {
		switch a.Kind {
		case cardir.IRActionOpenURL:
			if !cardir.URLAllowed(a.URL) {
				result.URLBlockedCount++
				continue
			}
			actions = append(actions, map[string]interface{}{"type": "Action.OpenUrl", "title": a.Title, "url": a.URL})
		case cardir.IRActionPostback:
			actions = append(actions, map[string]interface{}{"type": "Action.Execute", "title": a.Title, "data": a.Data})
		}
	}

	card := map[string]interface{}{
		"type":    "AdaptiveCard",
		"version": "1.6",
		"$schema": "http://adaptivecards.io/schemas/adaptive-card.json",
		"body":    body,
	}
	if len(actions) > 0 {
		card["actions"] = actions
	}

	result.Payload = map[string]interface{}{
		"type": "message",
		"attachments": []map[string]interface{}{
			{"contentType": "application/vnd.microsoft.card.adaptive", "content": card},
		},
	}
	return result, nil
}

func renderWebChatInput(e cardir.Element) map[string]interface{} {
	switch e.InputKind {
	case cardir.InputChoice:
		var choices []map[string]interface{}
		for _, c := range e.Choices {
			choices = append(choices, map[string]interface{}{"title": c, "value": c})
		}
		return map[string]interface{}{
			"type": "Input.ChoiceSet", "id": e.ID, "label": e.Label, "isRequired": e.Required, "choices": choices,
		}
	default:
		return map[string]interface{}{
			"type": "Input.Text", "id": e.ID, "label": e.Label, "isRequired": e.Required,
		}
	}
}
