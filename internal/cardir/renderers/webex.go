package renderers

import (
	"github.com/greentic/messaging-fabric/internal/cardir"
	"github.com/greentic/messaging-fabric/pkg/models"
)

func init() {
	cardir.RegisterRenderer(models.PlatformWebex, renderWebex)
}

// renderWebex reuses the Adaptive Card 1.3 body Webex's Buttons & Cards
// API accepts, wrapped in the attachments envelope rather than Teams'
// contentType/content pair. Webex is Premium-tier.
func renderWebex(ir cardir.MessageCardIR, signer cardir.LinkSigner) (cardir.RenderResult, error) {
	sanitizer := cardir.Sanitizer{SupportsHTML: false, SupportsMarkdown: true}
	result := cardir.RenderResult{}

	var body []map[string]interface{}
	if ir.Head.Title != "" {
		body = append(body, map[string]interface{}{
			"type": "TextBlock", "text": ir.Head.Title, "weight": "bolder", "wrap": true,
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
			body = append(body, map[string]interface{}{
				"type": "Input.Text", "id": e.ID, "placeholder": e.Label, "isRequired": e.Required,
			})
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
			actions = append(actions, map[string]interface{}{"type": "Action.Submit", "title": a.Title, "data": a.Data})
		}
	}

	card := map[string]interface{}{
		"type":    "AdaptiveCard",
		"version": "1.3",
		"$schema": "http://adaptivecards.io/schemas/adaptive-card.json",
		"body":    body,
	}
	if len(actions) > 0 {
		card["actions"] = actions
	}

	result.Payload = map[string]interface{}{
		"attachments": []map[string]interface{}{
			{"contentType": "application/vnd.microsoft.card.adaptive", "content": card},
		},
	}
	return result, nil
}
