// Package memory provides an in-memory FlowStore, suitable for tests and
// single-process hosts.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/fable/pkg/domain"
)

// Store implements ports.FlowStore in memory. Safe for concurrent use.
// Definitions are held serialized so loads never alias stored data.
type Store struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Save persists the definition under its flow id.
func (s *Store) Save(ctx context.Context, def *domain.FlowDefinition) error {
	if def == nil || def.ID == "" {
		return fmt.Errorf("definition must have a flow id")
	}
	raw, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to marshal definition: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[def.ID] = raw
	return nil
}

// Load retrieves a definition by flow id.
func (s *Store) Load(ctx context.Context, flowID string) (*domain.FlowDefinition, error) {
	s.mu.RLock()
	raw, ok := s.data[flowID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrFlowNotFound
	}

	var def domain.FlowDefinition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal definition: %w", err)
	}
	return &def, nil
}

// Delete removes a definition.
func (s *Store) Delete(ctx context.Context, flowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, flowID)
	return nil
}

// List returns stored flow ids in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	flows := make([]string, 0, len(s.data))
	for id := range s.data {
		flows = append(flows, id)
	}
	sort.Strings(flows)
	return flows, nil
}
