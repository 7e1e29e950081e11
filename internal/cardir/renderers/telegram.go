package renderers

import (
	"strings"

	"github.com/greentic/messaging-fabric/internal/cardir"
	"github.com/greentic/messaging-fabric/pkg/models"
)

// telegramMessageLimit is the Bot API's sendMessage text length cap.
const telegramMessageLimit = 4096

func init() {
	cardir.RegisterRenderer(models.PlatformTelegram, renderTelegram)
}

// renderTelegram flattens the card to a single Markdown text body
// followed by an inline keyboard, clamping at Telegram's 4096-char
// message limit. Telegram is Advanced-tier: FactSets and images render
// natively, Inputs never arrive here.
func renderTelegram(ir cardir.MessageCardIR, signer cardir.LinkSigner) (cardir.RenderResult, error) {
	sanitizer := cardir.Sanitizer{SupportsHTML: false, SupportsMarkdown: false}
	result := cardir.RenderResult{}

	var sb strings.Builder
	if ir.Head.Title != "" {
		sb.WriteString("*" + ir.Head.Title + "*\n\n")
	}

	var photoURL string
	for _, e := range ir.Elements {
		switch e.Kind {
		case cardir.ElementText:
			text, mutated := sanitizer.Clean(e.Text)
			if mutated {
				result.SanitizedCount++
			}
			sb.WriteString(text + "\n\n")
			result.NativeCount++
		case cardir.ElementImage:
			if photoURL == "" {
				photoURL = e.URL
			}
			result.NativeCount++
		case cardir.ElementFactSet:
			for _, f := range e.Facts {
				sb.WriteString("*" + f.Label + ":* " + f.Value + "\n")
			}
			sb.WriteString("\n")
			result.NativeCount++
		}
	}

	text := strings.TrimSpace(sb.String())
	if len(text) > telegramMessageLimit {
		text = text[:telegramMessageLimit]
		markPayloadTrimmed(&result)
	}

	var rows [][]map[string]interface{}
	for _, a := range ir.Actions {
		switch a.Kind {
		case cardir.IRActionOpenURL:
			if !cardir.URLAllowed(a.URL) {
				result.URLBlockedCount++
				continue
			}
			rows = append(rows, []map[string]interface{}{{"text": a.Title, "url": a.URL}})
		case cardir.IRActionPostback:
			rows = append(rows, []map[string]interface{}{{"text": a.Title, "callback_data": a.Title}})
		}
	}

	payload := map[string]interface{}{
		"text":       text,
		"parse_mode": "Markdown",
	}
	if photoURL != "" {
		payload["photo"] = photoURL
	}
	if len(rows) > 0 {
		payload["reply_markup"] = map[string]interface{}{"inline_keyboard": rows}
	}

	result.Payload = payload
	return result, nil
}
