// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Library: Reference-manager metadata listing (Zotero Better BibTeX)
//   - TextExtractor: Document-to-text conversion (pdftotext)
//   - EmbeddingService: Vector embeddings for chunking, indexing and queries
//   - LLMService: Text completion for answer synthesis and glossaries
//   - VectorStore: Per-document index persistence (SQLite file per citekey)
//   - HistoryStore: Chat history persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - PromptStore: User-editable prompt templates. Built-in defaults apply when nil.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or postprocessor package
package driven
