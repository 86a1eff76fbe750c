// Package schema validates state objects against JSON-Schema documents.
// Validation is backed by kin-openapi's schema implementation; compiled
// schemas are cached by their serialized form so repeated validation of the
// same shape does not recompile.
package schema
