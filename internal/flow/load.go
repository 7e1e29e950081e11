package flow

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Load parses a flow definition from YAML bytes (spec §4.5: flow
// *definitions* are loaded from disk/bytes, never persisted by the
// core — no database write-back of flow definitions).
func Load(data []byte) (*Flow, error) {
	var f Flow
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("flow: parse: %w", err)
	}
	if f.ID == "" {
		return nil, fmt.Errorf("flow: missing id")
	}
	if f.EntryNodeID == "" {
		return nil, fmt.Errorf("flow: missing entry_node_id")
	}
	if _, ok := f.Nodes[f.EntryNodeID]; !ok {
		return nil, fmt.Errorf("flow: entry_node_id %q not found in nodes", f.EntryNodeID)
	}
	return &f, nil
}
