// Package domain defines the core business entities for refchat.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - DocumentMetadata: A reference-manager entry resolved by citekey
//   - Chunk: A semantically coherent span of document text
//   - VectorRecord: An embedded chunk stored in a per-document index
//   - Answer: The synthesised response to a question
//   - GlossaryEntry: A keyword and its definition
//   - ChatHistoryEntry: One question/answer exchange
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
