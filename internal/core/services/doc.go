// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The retrieval core lives here: IndexStore owns stored indexes,
// IndexManager decides between opening and building them, Compose turns
// one or more indexes into a query engine and GlossaryExtractor runs the
// glossary prompt protocol over an engine.
//
// Services are pure Go with no CGO or external dependencies.
package services
