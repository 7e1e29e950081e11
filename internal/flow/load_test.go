package flow_test

import (
	"testing"

	"github.com/greentic/messaging-fabric/internal/flow"
)

const validFlowYAML = `
id: greet
entry_node_id: ask
nodes:
  ask:
    qa:
      questions:
        - id: age
          answer_type: number
    routes: [reply]
  reply:
    template:
      text: "You are {{state.age}}"
    routes: ["end"]
`

func TestLoad_ParsesValidFlow(t *testing.T) {
	f, err := flow.Load([]byte(validFlowYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.ID != "greet" {
		t.Fatalf("ID = %q", f.ID)
	}
	if len(f.Nodes) != 2 {
		t.Fatalf("Nodes = %d, want 2", len(f.Nodes))
	}
	if f.Nodes["ask"].QA.Questions[0].ID != "age" {
		t.Fatalf("question id = %q", f.Nodes["ask"].QA.Questions[0].ID)
	}
}

func TestLoad_MissingEntryNodeErrors(t *testing.T) {
	_, err := flow.Load([]byte("id: x\nentry_node_id: missing\nnodes:\n  a:\n    routes: [\"end\"]\n"))
	if err == nil {
		t.Fatal("expected error for missing entry node")
	}
}

func TestLoad_MissingIDErrors(t *testing.T) {
	_, err := flow.Load([]byte("entry_node_id: a\nnodes:\n  a:\n    routes: [\"end\"]\n"))
	if err == nil {
		t.Fatal("expected error for missing id")
	}
}
