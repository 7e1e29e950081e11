// Package flow defines the declarative graph internal/runner
// interprets (spec §4.5). Flow definitions are loaded from disk/bytes
// and never persisted by the core.
package flow

// EndNode is the literal route token that terminates execution.
const EndNode = "end"

// Flow is a named graph of Nodes, entered at EntryNodeID.
type Flow struct {
	ID          string          `yaml:"id"`
	Kind        string          `yaml:"kind"`
	EntryNodeID string          `yaml:"entry_node_id"`
	Nodes       map[string]Node `yaml:"nodes"`
}

// Node executes each declared section in order, then routes to the
// first entry of Routes.
type Node struct {
	QA       *QASection       `yaml:"qa,omitempty"`
	Tool     *ToolSection     `yaml:"tool,omitempty"`
	Template *TemplateSection `yaml:"template,omitempty"`
	Card     *CardSection     `yaml:"card,omitempty"`
	Routes   []string         `yaml:"routes"`
}

// AnswerType is a QA question's expected answer shape.
type AnswerType string

const (
	AnswerText   AnswerType = "text"
	AnswerNumber AnswerType = "number"
)

// RangeValidation clamps a numeric answer into [Min, Max].
type RangeValidation struct {
	Min *float64 `yaml:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty"`
}

// Validate bundles the question's validation rules.
type Validate struct {
	Range *RangeValidation `yaml:"range,omitempty"`
}

// Question is one QA section entry.
type Question struct {
	ID            string      `yaml:"id"`
	Prompt        string      `yaml:"prompt"`
	AnswerType    AnswerType  `yaml:"answer_type"`
	MaxWords      int         `yaml:"max_words,omitempty"`
	Default       interface{} `yaml:"default,omitempty"`
	Validate      Validate    `yaml:"validate,omitempty"`
	FallbackAgent string      `yaml:"fallback_agent,omitempty"`
}

// QASection asks zero or more questions, filling answers from the
// envelope's text, an optional fallback agent, then validating.
type QASection struct {
	Questions []Question `yaml:"questions"`
}

// ToolSection renders an input template then invokes (or stubs) a
// tool endpoint.
type ToolSection struct {
	Endpoint     string                 `yaml:"endpoint,omitempty"`
	InputPayload map[string]interface{} `yaml:"input,omitempty"`
	Stub         bool                   `yaml:"stub,omitempty"`
	StubOutput   map[string]interface{} `yaml:"stub_output,omitempty"`
}

// TemplateSection renders a handlebars-style text template against
// {envelope, state, payload} and emits a Text OutMessage.
type TemplateSection struct {
	Text string `yaml:"text"`
}

// CardSection renders a templated card and emits a Card OutMessage.
type CardSection struct {
	Title   string             `yaml:"title,omitempty"`
	Body    []CardBlockTpl     `yaml:"body,omitempty"`
	Actions []CardActionTpl    `yaml:"actions,omitempty"`
}

// CardBlockTpl mirrors models.CardBlock but every string field may
// carry {{ }} template placeholders resolved at render time.
type CardBlockTpl struct {
	Kind     string `yaml:"kind"`
	Text     string `yaml:"text,omitempty"`
	Markdown bool   `yaml:"markdown,omitempty"`
	Label    string `yaml:"label,omitempty"`
	Value    string `yaml:"value,omitempty"`
	URL      string `yaml:"url,omitempty"`
	Alt      string `yaml:"alt,omitempty"`
}

// CardActionTpl mirrors models.CardAction with templated strings.
type CardActionTpl struct {
	Kind  string                 `yaml:"kind"`
	Title string                 `yaml:"title"`
	URL   string                 `yaml:"url,omitempty"`
	JWT   bool                   `yaml:"jwt,omitempty"`
	Data  map[string]interface{} `yaml:"data,omitempty"`
}
