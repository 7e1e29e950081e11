package models

import "errors"

// ErrorKind classifies a failure for the purposes of HTTP status
// mapping and bus ack/nak/DLQ routing (spec §7).
type ErrorKind string

const (
	KindUnauthorized  ErrorKind = "unauthorized"
	KindBadRequest    ErrorKind = "bad_request"
	KindDuplicate     ErrorKind = "duplicate"
	KindTransient     ErrorKind = "transient"
	KindPermanent     ErrorKind = "permanent"
	KindQuotaExceeded ErrorKind = "quota_exceeded"
)

// Sentinel errors used with errors.Is/errors.As for kind comparisons
// where no extra context is needed.
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrBadRequest    = errors.New("bad request")
	ErrDuplicate     = errors.New("duplicate")
	ErrTransient     = errors.New("transient failure")
	ErrPermanent     = errors.New("permanent failure")
	ErrQuotaExceeded = errors.New("quota exceeded")
)

// FabricError carries a kind plus a code/message pair suitable for a
// DLQ payload (spec §6 "DLQ payload schema").
type FabricError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Stage   string
	Err     error
}

func (e *FabricError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *FabricError) Unwrap() error { return e.Err }

// NewFabricError constructs a FabricError, wrapping the matching
// sentinel so errors.Is(err, ErrTransient) etc. keeps working.
func NewFabricError(kind ErrorKind, code, message string, cause error) *FabricError {
	return &FabricError{Kind: kind, Code: code, Message: message, Err: joinSentinel(kind, cause)}
}

func joinSentinel(kind ErrorKind, cause error) error {
	sentinel := sentinelFor(kind)
	if cause == nil {
		return sentinel
	}
	return errors.Join(sentinel, cause)
}

func sentinelFor(kind ErrorKind) error {
	switch kind {
	case KindUnauthorized:
		return ErrUnauthorized
	case KindBadRequest:
		return ErrBadRequest
	case KindDuplicate:
		return ErrDuplicate
	case KindTransient:
		return ErrTransient
	case KindPermanent:
		return ErrPermanent
	case KindQuotaExceeded:
		return ErrQuotaExceeded
	default:
		return errors.New(string(kind))
	}
}

// DLQError is the schema of a dead-letter entry (spec §6).
type DLQError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Stage   string `json:"stage,omitempty"`
}

// DLQRecord is the full payload published to greentic.dlq.<stage>.
type DLQRecord struct {
	Tenant   string      `json:"tenant"`
	Platform Platform    `json:"platform"`
	MsgID    string      `json:"msg_id"`
	Attempt  uint32      `json:"attempt"`
	Error    DLQError    `json:"error"`
	Data     interface{} `json:"data"`
}
