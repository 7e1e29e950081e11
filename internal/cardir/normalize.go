package cardir

import (
	"github.com/greentic/messaging-fabric/pkg/models"
)

// NormalizePlain maps a neutral models.MessageCard to the IR (spec §4.1).
func NormalizePlain(card *models.MessageCard) MessageCardIR {
	ir := MessageCardIR{Meta: newMeta()}
	ir.Head.Title = card.Title

	for _, block := range card.Body {
		switch block.Kind {
		case models.BlockText:
			ir.Elements = append(ir.Elements, Element{Kind: ElementText, Text: block.Text, Markdown: block.Markdown})
		case models.BlockFact:
			ir.Elements = append(ir.Elements, Element{Kind: ElementFactSet, Facts: []Fact{{Label: block.Label, Value: block.Value}}})
		case models.BlockImage:
			ir.Elements = append(ir.Elements, Element{Kind: ElementImage, URL: block.URL, Alt: block.Alt})
		}
	}
	ir.Elements = mergeFactSets(ir.Elements)

	for _, action := range card.Actions {
		switch action.Kind {
		case models.ActionOpenURL:
			ir.Actions = append(ir.Actions, IRAction{Kind: IRActionOpenURL, Title: action.Title, URL: action.URL, JWT: action.JWT})
		case models.ActionPostback:
			ir.Actions = append(ir.Actions, IRAction{Kind: IRActionPostback, Title: action.Title, Data: action.Data})
			ir.Meta.addCapability("postback")
		}
	}

	ir.Tier = deriveTier(ir.Elements, ir.Actions)
	return ir
}

// mergeFactSets folds consecutive single-fact elements produced from
// MessageCard.Body (one CardBlock per fact) into one FactSet element,
// matching how a renderer expects to find a single FactSet to flatten
// rather than a run of one-fact sets.
func mergeFactSets(elements []Element) []Element {
	var out []Element
	for _, e := range elements {
		if e.Kind == ElementFactSet && len(out) > 0 && out[len(out)-1].Kind == ElementFactSet {
			out[len(out)-1].Facts = append(out[len(out)-1].Facts, e.Facts...)
			continue
		}
		out = append(out, e)
	}
	return out
}

// NormalizeAdaptive walks a provider-shaped Adaptive Card JSON payload
// into the IR (spec §4.1). Unknown element/action types are silently
// dropped with a warning.
func NormalizeAdaptive(raw map[string]interface{}) MessageCardIR {
	ir := MessageCardIR{Meta: newMeta()}
	ir.Meta.RawAdaptive = raw

	if body, ok := raw["body"].([]interface{}); ok {
		for _, item := range body {
			node, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			if el, ok := normalizeAdaptiveElement(node, &ir.Meta); ok {
				ir.Elements = append(ir.Elements, el)
			}
		}
	}
	ir.Elements = mergeFactSets(ir.Elements)

	if actions, ok := raw["actions"].([]interface{}); ok {
		for _, item := range actions {
			node, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			if act, ok := normalizeAdaptiveAction(node, &ir.Meta); ok {
				ir.Actions = append(ir.Actions, act)
			}
		}
	}

	ir.Tier = deriveTier(ir.Elements, ir.Actions)
	return ir
}

func normalizeAdaptiveElement(node map[string]interface{}, meta *Meta) (Element, bool) {
	switch str(node["type"]) {
	case "TextBlock":
		return Element{Kind: ElementText, Text: str(node["text"]), Markdown: true}, true
	case "Image":
		return Element{Kind: ElementImage, URL: str(node["url"]), Alt: str(node["altText"])}, true
	case "FactSet":
		var facts []Fact
		if rawFacts, ok := node["facts"].([]interface{}); ok {
			for _, rf := range rawFacts {
				fm, ok := rf.(map[string]interface{})
				if !ok {
					continue
				}
				facts = append(facts, Fact{Label: str(fm["title"]), Value: str(fm["value"])})
			}
		}
		return Element{Kind: ElementFactSet, Facts: facts}, true
	case "Input.Text":
		return Element{
			Kind: ElementInput, InputKind: InputText,
			Label: str(node["label"]), ID: str(node["id"]), Required: boolVal(node["isRequired"]),
		}, true
	case "Input.ChoiceSet":
		var choices []string
		if raw, ok := node["choices"].([]interface{}); ok {
			for _, c := range raw {
				cm, ok := c.(map[string]interface{})
				if !ok {
					continue
				}
				choices = append(choices, str(cm["title"]))
			}
		}
		return Element{
			Kind: ElementInput, InputKind: InputChoice,
			Label: str(node["label"]), ID: str(node["id"]), Required: boolVal(node["isRequired"]),
			Choices: choices,
		}, true
	default:
		meta.warn("Dropped unknown adaptive element type %q", str(node["type"]))
		return Element{}, false
	}
}

func normalizeAdaptiveAction(node map[string]interface{}, meta *Meta) (IRAction, bool) {
	switch str(node["type"]) {
	case "Action.OpenUrl":
		return IRAction{Kind: IRActionOpenURL, Title: str(node["title"]), URL: str(node["url"])}, true
	case "Action.Submit", "Action.Execute":
		meta.addCapability("execute")
		var data map[string]interface{}
		if d, ok := node["data"].(map[string]interface{}); ok {
			data = d
		}
		return IRAction{Kind: IRActionPostback, Title: str(node["title"]), Data: data}, true
	case "Action.ShowCard":
		meta.addCapability("showcard")
		meta.warn("Dropped Action.ShowCard (not supported in neutral IR)")
		return IRAction{}, false
	default:
		meta.warn("Dropped unknown adaptive action type %q", str(node["type"]))
		return IRAction{}, false
	}
}

func str(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func boolVal(v interface{}) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}
