package models

import (
	"fmt"
	"time"
)

// MessageEnvelope is the neutral inbound message representation
// produced by ingress normalizers (spec §3).
type MessageEnvelope struct {
	Tenant    string                 `json:"tenant"`
	Platform  Platform               `json:"platform"`
	ChatID    string                 `json:"chat_id"`
	UserID    string                 `json:"user_id"`
	ThreadID  string                 `json:"thread_id,omitempty"`
	MsgID     string                 `json:"msg_id"`
	Text      string                 `json:"text,omitempty"`
	Timestamp string                 `json:"timestamp"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

// Validate enforces the invariants named in spec §3: required fields
// non-empty, timestamp parses as RFC3339.
func (e *MessageEnvelope) Validate() error {
	if e.Tenant == "" {
		return fmt.Errorf("%w: tenant is required", ErrBadRequest)
	}
	if !e.Platform.Valid() {
		return fmt.Errorf("%w: unknown platform %q", ErrBadRequest, e.Platform)
	}
	if e.ChatID == "" {
		return fmt.Errorf("%w: chat_id is required", ErrBadRequest)
	}
	if e.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrBadRequest)
	}
	if e.MsgID == "" {
		return fmt.Errorf("%w: msg_id is required", ErrBadRequest)
	}
	if _, err := time.Parse(time.RFC3339, e.Timestamp); err != nil {
		return fmt.Errorf("%w: timestamp %q is not RFC3339: %v", ErrBadRequest, e.Timestamp, err)
	}
	return nil
}

// OutKind distinguishes a text OutMessage from a card OutMessage.
type OutKind string

const (
	OutText OutKind = "text"
	OutCard OutKind = "card"
)

// OutMessage is the neutral outbound message representation consumed
// by egress workers (spec §3).
type OutMessage struct {
	Ctx          TenantContext          `json:"ctx"`
	Tenant       string                 `json:"tenant"`
	Platform     Platform               `json:"platform"`
	ChatID       string                 `json:"chat_id"`
	ThreadID     string                 `json:"thread_id,omitempty"`
	Kind         OutKind                `json:"kind"`
	Text         string                 `json:"text,omitempty"`
	MessageCard  *MessageCard           `json:"message_card,omitempty"`
	AdaptiveCard map[string]interface{} `json:"adaptive_card,omitempty"`
	Meta         map[string]interface{} `json:"meta,omitempty"`
}

// Validate enforces spec §3's OutMessage invariants.
func (m *OutMessage) Validate() error {
	if m.Tenant == "" {
		return fmt.Errorf("%w: tenant is required", ErrBadRequest)
	}
	if !m.Platform.Valid() {
		return fmt.Errorf("%w: unknown platform %q", ErrBadRequest, m.Platform)
	}
	if m.ChatID == "" {
		return fmt.Errorf("%w: chat_id is required", ErrBadRequest)
	}
	switch m.Kind {
	case OutText:
		if m.Text == "" {
			return fmt.Errorf("%w: text is required for kind=text", ErrBadRequest)
		}
	case OutCard:
		if m.MessageCard == nil {
			return fmt.Errorf("%w: message_card is required for kind=card", ErrBadRequest)
		}
		if err := m.MessageCard.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrBadRequest, m.Kind)
	}
	return nil
}

// MetaString returns a string field from Meta, or "" if absent/wrong type.
func (m *OutMessage) MetaString(key string) string {
	if m.Meta == nil {
		return ""
	}
	if v, ok := m.Meta[key].(string); ok {
		return v
	}
	return ""
}
