/*
Package ports defines the driven ports (interfaces) for the fable engine.

These interfaces decouple the core logic from external implementations,
allowing hosts to keep flow definitions in various storage backends.

# Key Interfaces

  - FlowStore: persists and retrieves flow definitions by id.
*/
package ports
