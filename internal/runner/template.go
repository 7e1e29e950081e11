package runner

import "github.com/cbroglie/mustache"

// renderTemplate renders a handlebars/mustache-style template string
// against the combined {envelope, state, payload} scope (spec §4.5
// Template/Card section semantics). A render error yields the
// original text unchanged rather than failing the node — a malformed
// template is an authoring bug, not a runtime fault worth a DLQ.
func renderTemplate(text string, scope map[string]interface{}) string {
	if text == "" {
		return text
	}
	out, err := mustache.Render(text, scope)
	if err != nil {
		return text
	}
	return out
}

func scopeFor(envelopeMap, state, payload map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"envelope": envelopeMap,
		"state":    state,
		"payload":  payload,
	}
}
