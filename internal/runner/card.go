package runner

import (
	"github.com/greentic/messaging-fabric/internal/flow"
	"github.com/greentic/messaging-fabric/pkg/models"
)

// renderCard turns a templated CardSection into a neutral
// models.MessageCard by rendering every string field against scope.
func renderCard(section *flow.CardSection, scope map[string]interface{}) models.MessageCard {
	card := models.MessageCard{
		Title: renderTemplate(section.Title, scope),
	}
	for _, b := range section.Body {
		card.Body = append(card.Body, renderCardBlock(b, scope))
	}
	for _, a := range section.Actions {
		card.Actions = append(card.Actions, renderCardAction(a, scope))
	}
	return card
}

func renderCardBlock(b flow.CardBlockTpl, scope map[string]interface{}) models.CardBlock {
	return models.CardBlock{
		Kind:     models.CardBlockKind(b.Kind),
		Text:     renderTemplate(b.Text, scope),
		Markdown: b.Markdown,
		Label:    renderTemplate(b.Label, scope),
		Value:    renderTemplate(b.Value, scope),
		URL:      renderTemplate(b.URL, scope),
		Alt:      renderTemplate(b.Alt, scope),
	}
}

func renderCardAction(a flow.CardActionTpl, scope map[string]interface{}) models.CardAction {
	return models.CardAction{
		Kind:  models.CardActionKind(a.Kind),
		Title: renderTemplate(a.Title, scope),
		URL:   renderTemplate(a.URL, scope),
		JWT:   a.JWT,
		Data:  a.Data,
	}
}
