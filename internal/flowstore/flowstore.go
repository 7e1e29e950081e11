// Package flowstore loads flow definitions from a directory of YAML
// files at startup. Flow definitions are never persisted back by the
// core; this is a read-only, load-once directory scan, not a
// database.
package flowstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/greentic/messaging-fabric/internal/flow"
	"github.com/greentic/messaging-fabric/pkg/models"
)

// Store holds every flow loaded from a directory, keyed by flow id.
// The first flow in lexical filename order is the default: the one a
// fresh session with no persisted flow_id resumes into.
type Store struct {
	mu          sync.RWMutex
	flows       map[string]*flow.Flow
	defaultFlow *flow.Flow
}

// Load scans dir for *.yaml/*.yml files and parses each as a flow
// definition.
func Load(dir string) (*Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("flowstore: read dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	s := &Store{flows: make(map[string]*flow.Flow)}
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("flowstore: read %s: %w", name, err)
		}
		f, err := flow.Load(data)
		if err != nil {
			return nil, fmt.Errorf("flowstore: parse %s: %w", name, err)
		}
		s.flows[f.ID] = f
		if s.defaultFlow == nil {
			s.defaultFlow = f
		}
	}
	return s, nil
}

// Resolve picks tctx.FlowID when it names a loaded flow, falling back
// to the store's default flow for a fresh session.
func (s *Store) Resolve(tctx models.TenantContext) (*flow.Flow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if tctx.FlowID != "" {
		if f, ok := s.flows[tctx.FlowID]; ok {
			return f, true
		}
	}
	return s.defaultFlow, s.defaultFlow != nil
}
