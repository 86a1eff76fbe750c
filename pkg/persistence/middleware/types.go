// Package middleware wraps a FlowStore with cross-cutting behavior, such
// as encryption at rest.
package middleware

import "github.com/aretw0/fable/pkg/ports"

// Middleware allows wrapping a FlowStore to add behavior.
type Middleware func(ports.FlowStore) ports.FlowStore

// Chain applies middlewares so the first listed is the outermost.
func Chain(store ports.FlowStore, mws ...Middleware) ports.FlowStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
