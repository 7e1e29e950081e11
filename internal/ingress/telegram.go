package ingress

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/greentic/messaging-fabric/pkg/models"
)

// TelegramConfig is the per-tenant Telegram webhook configuration.
type TelegramConfig struct {
	SecretToken string
}

// telegramUpdate mirrors the subset of Telegram's Update payload the
// fabric needs (spec §4.2 "Telegram update.message or edited_message").
type telegramUpdate struct {
	UpdateID      int64            `json:"update_id"`
	Message       *telegramMessage `json:"message"`
	EditedMessage *telegramMessage `json:"edited_message"`
	CallbackQuery *telegramCallback `json:"callback_query"`
}

type telegramMessage struct {
	MessageID int64         `json:"message_id"`
	Date      int64         `json:"date"`
	Text      string        `json:"text"`
	Chat      telegramChat  `json:"chat"`
	From      telegramUser  `json:"from"`
	ReplyTo   *telegramMessage `json:"reply_to_message,omitempty"`
}

type telegramChat struct {
	ID int64 `json:"id"`
}

type telegramUser struct {
	ID int64 `json:"id"`
}

type telegramCallback struct {
	ID      string           `json:"id"`
	From    telegramUser     `json:"from"`
	Message *telegramMessage `json:"message"`
	Data    string           `json:"data"`
}

// VerifyTelegram checks the shared-secret header per spec §4.2/§6.
func VerifyTelegram(r *http.Request, cfg TelegramConfig) error {
	got := r.Header.Get("X-Telegram-Bot-Api-Secret-Token")
	if !constantTimeEqual(got, cfg.SecretToken) {
		return errUnauthorized("telegram secret token mismatch")
	}
	return nil
}

// NormalizeTelegram extracts zero or one MessageEnvelope from a
// decoded Update. Edited messages and plain messages both normalize;
// an update with neither a message nor a callback yields ok=false.
func NormalizeTelegram(tenant string, body []byte) (models.MessageEnvelope, bool, error) {
	var update telegramUpdate
	if err := json.Unmarshal(body, &update); err != nil {
		return models.MessageEnvelope{}, false, fmt.Errorf("%w: telegram payload: %v", models.ErrBadRequest, err)
	}

	msg := update.Message
	if msg == nil {
		msg = update.EditedMessage
	}

	if msg == nil && update.CallbackQuery != nil {
		cb := update.CallbackQuery
		env := models.MessageEnvelope{
			Tenant:    tenant,
			Platform:  models.PlatformTelegram,
			ChatID:    fmt.Sprintf("%d", cb.Message.Chat.ID),
			UserID:    fmt.Sprintf("%d", cb.From.ID),
			MsgID:     fmt.Sprintf("tg:cb:%s", cb.ID),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Context:   map[string]interface{}{"postback": cb.Data},
		}
		return env, true, nil
	}

	if msg == nil {
		return models.MessageEnvelope{}, false, nil
	}

	env := models.MessageEnvelope{
		Tenant:    tenant,
		Platform:  models.PlatformTelegram,
		ChatID:    fmt.Sprintf("%d", msg.Chat.ID),
		UserID:    fmt.Sprintf("%d", msg.From.ID),
		MsgID:     fmt.Sprintf("tg:%d", msg.MessageID),
		Text:      msg.Text,
		Timestamp: time.Unix(msg.Date, 0).UTC().Format(time.RFC3339),
	}
	if msg.ReplyTo != nil {
		env.ThreadID = fmt.Sprintf("%d", msg.ReplyTo.MessageID)
	}
	return env, true, nil
}
