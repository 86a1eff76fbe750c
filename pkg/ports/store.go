package ports

import (
	"context"

	"github.com/aretw0/fable/pkg/domain"
)

// FlowStore defines the interface for persisting flow definitions. The
// engine treats the store as an opaque keyed collection; hosts choose the
// backend.
type FlowStore interface {
	// Save persists a definition under its flow id.
	Save(ctx context.Context, def *domain.FlowDefinition) error

	// Load retrieves the definition for a flow id.
	// Returns domain.ErrFlowNotFound if the flow does not exist.
	Load(ctx context.Context, flowID string) (*domain.FlowDefinition, error)

	// Delete removes the definition for a flow id.
	Delete(ctx context.Context, flowID string) error

	// List returns the ids of all stored flows.
	List(ctx context.Context) ([]string, error)
}
