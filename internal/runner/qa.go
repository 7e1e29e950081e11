package runner

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/greentic/messaging-fabric/internal/flow"
)

var numberPattern = regexp.MustCompile(`\d+`)

// fatalQAError marks a QA validation failure the caller must surface
// as E_TRANSLATE (spec §4.5: "over-max_words text fails with a fatal
// error").
type fatalQAError struct {
	questionID string
	reason     string
}

func (e *fatalQAError) Error() string {
	return fmt.Sprintf("qa: question %q: %s", e.questionID, e.reason)
}

// runQA fills state[q.ID] for every question in section, in order,
// mutating state in place.
func (e *Engine) runQA(ctx context.Context, section *flow.QASection, text string, state map[string]interface{}) error {
	for _, q := range section.Questions {
		if _, answered := state[q.ID]; answered {
			continue
		}

		extracted, ok := extractAnswer(q, text)
		if !ok && q.FallbackAgent != "" && e.Agent != nil {
			if fields, err := e.Agent.Resolve(ctx, q.FallbackAgent, text); err == nil {
				if v, present := fields[q.ID]; present {
					extracted = v
					ok = true
				}
			}
		}
		if !ok {
			if q.Default != nil {
				state[q.ID] = q.Default
			}
			continue
		}

		validated, err := validateAnswer(q, extracted)
		if err != nil {
			return err
		}
		state[q.ID] = validated
	}
	return nil
}

func extractAnswer(q flow.Question, text string) (interface{}, bool) {
	switch q.AnswerType {
	case flow.AnswerNumber:
		match := numberPattern.FindString(text)
		if match == "" {
			return nil, false
		}
		n, err := strconv.ParseFloat(match, 64)
		if err != nil {
			return nil, false
		}
		return n, true
	default:
		words := strings.Fields(text)
		if len(words) == 0 {
			return nil, false
		}
		if q.MaxWords > 0 && len(words) > q.MaxWords {
			words = words[:q.MaxWords]
		}
		return strings.Join(words, " "), true
	}
}

// validateAnswer clamps numeric answers into [min, max] inclusive
// (supplemental behavior preserved from the original's qa_node.rs
// rather than the distilled spec's bare "clamps") and fails fatally
// when a text answer exceeds max_words.
func validateAnswer(q flow.Question, value interface{}) (interface{}, error) {
	switch q.AnswerType {
	case flow.AnswerNumber:
		n, ok := value.(float64)
		if !ok {
			return value, nil
		}
		if q.Validate.Range != nil {
			if q.Validate.Range.Min != nil && n < *q.Validate.Range.Min {
				n = *q.Validate.Range.Min
			}
			if q.Validate.Range.Max != nil && n > *q.Validate.Range.Max {
				n = *q.Validate.Range.Max
			}
		}
		return n, nil
	default:
		s, ok := value.(string)
		if !ok {
			return value, nil
		}
		if q.MaxWords > 0 && len(strings.Fields(s)) > q.MaxWords {
			return nil, &fatalQAError{questionID: q.ID, reason: "answer exceeds max_words"}
		}
		return s, nil
	}
}
