package runner

import "github.com/greentic/messaging-fabric/pkg/models"

// ToolCallRecord records one Tool section invocation for observability
// and for tests asserting on runner behavior.
type ToolCallRecord struct {
	Endpoint string
	Stub     bool
	Request  map[string]interface{}
	Response map[string]interface{}
}

// RunnerOutcome is the Engine.Run return value: the caller performs
// every publish/DLQ decision from it, with no callback/sink owned by
// the runner itself (spec §9 "re-architect cyclic references... as an
// explicit RunnerOutcome value").
type RunnerOutcome struct {
	OutMessages []models.OutMessage
	ToolCalls   []ToolCallRecord
	State       map[string]interface{}
	NextCursor  string
}
