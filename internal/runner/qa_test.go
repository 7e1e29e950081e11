package runner

import (
	"context"
	"testing"

	"github.com/greentic/messaging-fabric/internal/flow"
)

func TestRunQA_ExtractsNumber(t *testing.T) {
	e := &Engine{}
	section := &flow.QASection{Questions: []flow.Question{
		{ID: "age", AnswerType: flow.AnswerNumber},
	}}
	state := map[string]interface{}{}

	if err := e.runQA(context.Background(), section, "I am 42 years old", state); err != nil {
		t.Fatalf("runQA: %v", err)
	}
	if state["age"] != float64(42) {
		t.Fatalf("age = %v, want 42", state["age"])
	}
}

func TestRunQA_ClampsNumberToRange(t *testing.T) {
	e := &Engine{}
	min, max := 0.0, 10.0
	section := &flow.QASection{Questions: []flow.Question{
		{ID: "rating", AnswerType: flow.AnswerNumber, Validate: flow.Validate{Range: &flow.RangeValidation{Min: &min, Max: &max}}},
	}}
	state := map[string]interface{}{}

	if err := e.runQA(context.Background(), section, "rating is 99", state); err != nil {
		t.Fatalf("runQA: %v", err)
	}
	if state["rating"] != float64(10) {
		t.Fatalf("rating = %v, want clamped to 10", state["rating"])
	}
}

func TestRunQA_TruncatesFreeTextToMaxWords(t *testing.T) {
	e := &Engine{}
	section := &flow.QASection{Questions: []flow.Question{
		{ID: "reason", AnswerType: flow.AnswerText, MaxWords: 2},
	}}
	state := map[string]interface{}{}

	if err := e.runQA(context.Background(), section, "the quick brown fox jumps", state); err != nil {
		t.Fatalf("runQA: %v", err)
	}
	if state["reason"] != "the quick" {
		t.Fatalf("reason = %q, want %q", state["reason"], "the quick")
	}
}

func TestValidateAnswer_OverMaxWordsIsFatal(t *testing.T) {
	q := flow.Question{ID: "reason", AnswerType: flow.AnswerText, MaxWords: 2}
	_, err := validateAnswer(q, "three whole words")
	if err == nil {
		t.Fatal("expected fatal error for over-max_words answer")
	}
	if _, ok := err.(*fatalQAError); !ok {
		t.Fatalf("error type = %T, want *fatalQAError", err)
	}
}

func TestRunQA_SkipsAlreadyAnsweredQuestions(t *testing.T) {
	e := &Engine{}
	section := &flow.QASection{Questions: []flow.Question{
		{ID: "age", AnswerType: flow.AnswerNumber},
	}}
	state := map[string]interface{}{"age": float64(7)}

	if err := e.runQA(context.Background(), section, "I am 42 years old", state); err != nil {
		t.Fatalf("runQA: %v", err)
	}
	if state["age"] != float64(7) {
		t.Fatalf("age = %v, want preserved 7", state["age"])
	}
}

func TestRunQA_AppliesDefaultWhenUnanswered(t *testing.T) {
	e := &Engine{}
	section := &flow.QASection{Questions: []flow.Question{
		{ID: "age", AnswerType: flow.AnswerNumber, Default: float64(18)},
	}}
	state := map[string]interface{}{}

	if err := e.runQA(context.Background(), section, "no numbers here", state); err != nil {
		t.Fatalf("runQA: %v", err)
	}
	if state["age"] != float64(18) {
		t.Fatalf("age = %v, want default 18", state["age"])
	}
}
