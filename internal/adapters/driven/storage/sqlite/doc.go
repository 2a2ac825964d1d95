// Package sqlite provides SQLite-based implementations of the refchat storage ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It provides two stores:
//
//   - VectorStore: one database file per document index
//   - HistoryStore: the append-only chat history log
//
// # Index Files
//
// Each index lives at <index_dir>/<escaped citekey>-index.sqlite3 and holds a
// single-row manifest table and a records table. Embeddings are stored as
// little-endian float32 blobs. A new index is written to a temporary file,
// synced, and renamed over the old one, so readers never observe a partial index.
//
// # Schema
//
// The history schema is managed through versioned migrations stored in the
// migrations/ directory. Index files are written once and carry their own schema.
//
// # Data Location
//
// By default, history is stored at ~/.refchat/history.db and indexes under
// ~/.refchat/vector_database.
package sqlite
