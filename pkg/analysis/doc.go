// Package analysis provides authoring-time diagnostics over flow
// definitions: static structural validation, exhaustive bounded path
// testing with coverage reporting, and a heuristic quality analyzer. None
// of it is required at runtime; results are collected into reports, never
// thrown.
package analysis
