/*
Package fable is a deterministic execution engine for flowchart-shaped
interactive flows: branching stories, guided wizards, decision trees and
conversational scripts.

A flow is a graph of nodes connected by outlets. The engine walks the
graph one node at a time, evaluating outlet conditions against a managed
state object, applying declarative state actions along the way, and
interpolating live state into node content. Hosts own all IO; the engine
only answers "where are we, what can happen next".

# Concept

The core follows a hexagonal layout. pkg/domain holds the flow data model,
pkg/state the validated mutable state, pkg/graph the traversal analysis,
and internal/runtime the transition procedure. Adapters (in-memory and
Redis flow stores, an HTTP session host) live under pkg/adapters and can
be swapped without touching the core.

# Usage

Build an Engine from a flow definition and drive it:

	package main

	import (
		"fmt"
		"log"

		"github.com/aretw0/fable"
		"github.com/aretw0/fable/pkg/domain"
	)

	func main() {
		def := &domain.FlowDefinition{
			ID:          "hello",
			StartNodeID: "start",
			Nodes: []domain.Node{
				{ID: "start", Content: "Hello!", Outlets: []domain.Outlet{{ID: "go", To: "end"}}},
				{ID: "end", Content: "Goodbye."},
			},
		}

		engine, err := fable.New(def)
		if err != nil {
			log.Fatal(err)
		}

		res, err := engine.Start()
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(res.Node.Content)

		res, err = engine.Next("")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(res.Node.Content, res.Completed)
	}

Interactive hosts can use Runner for a ready-made terminal loop, or render
Result themselves.
*/
package fable
