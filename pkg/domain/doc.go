// Package domain holds the canonical flow definition types, execution
// events and errors shared by every layer of the engine. It has no
// dependencies on the runtime or any adapter.
package domain
