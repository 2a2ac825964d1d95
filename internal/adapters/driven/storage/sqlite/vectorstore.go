package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// indexSuffix names index files: <escaped citekey>-index.sqlite3.
const indexSuffix = "-index.sqlite3"

const indexSchema = `
CREATE TABLE manifest (
    citekey TEXT NOT NULL,
    embedding_model TEXT NOT NULL,
    dimensions INTEGER NOT NULL,
    source_path TEXT NOT NULL,
    source_hash TEXT NOT NULL,
    chunk_count INTEGER NOT NULL,
    built_at INTEGER NOT NULL
);

CREATE TABLE records (
    position INTEGER PRIMARY KEY,
    node_id TEXT NOT NULL,
    citekey TEXT NOT NULL,
    text TEXT NOT NULL,
    embedding BLOB NOT NULL
);
`

// VectorStore keeps one SQLite file per citekey under a directory.
type VectorStore struct {
	dir string
}

// NewVectorStore creates a vector store rooted at dir.
// If dir is empty, defaults to ~/.refchat/vector_database.
func NewVectorStore(dir string) (*VectorStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".refchat", "vector_database")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	return &VectorStore{dir: dir}, nil
}

// Dir returns the index directory.
func (s *VectorStore) Dir() string {
	return s.dir
}

// Path returns the index file for citekey.
func (s *VectorStore) Path(citekey domain.Citekey) string {
	return filepath.Join(s.dir, escapeCitekey(citekey)+indexSuffix)
}

// Exists reports whether a regular, non-empty index file is present.
func (s *VectorStore) Exists(citekey domain.Citekey) bool {
	info, err := os.Stat(s.Path(citekey))
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}

// Load reads the manifest and records of citekey's index.
func (s *VectorStore) Load(ctx context.Context, citekey domain.Citekey) (*domain.IndexManifest, []domain.VectorRecord, error) {
	if !s.Exists(citekey) {
		return nil, nil, fmt.Errorf("index %s: %w", citekey, domain.ErrNotFound)
	}

	db, err := sql.Open("sqlite", s.Path(citekey)+"?_pragma=query_only(1)")
	if err != nil {
		return nil, nil, corrupt(citekey, err)
	}
	defer db.Close()

	manifest, err := readManifest(ctx, db)
	if err != nil {
		return nil, nil, corrupt(citekey, err)
	}

	records, err := readRecords(ctx, db)
	if err != nil {
		return nil, nil, corrupt(citekey, err)
	}
	if len(records) != manifest.ChunkCount {
		return nil, nil, corrupt(citekey, fmt.Errorf("manifest lists %d chunks, file holds %d", manifest.ChunkCount, len(records)))
	}

	return manifest, records, nil
}

func corrupt(citekey domain.Citekey, err error) error {
	return fmt.Errorf("index %s: %w: %w", citekey, domain.ErrCorruptIndex, err)
}

func readManifest(ctx context.Context, db *sql.DB) (*domain.IndexManifest, error) {
	var m domain.IndexManifest
	var builtAt int64
	err := db.QueryRowContext(ctx, `
		SELECT citekey, embedding_model, dimensions, source_path, source_hash, chunk_count, built_at
		FROM manifest LIMIT 1
	`).Scan(&m.Citekey, &m.EmbeddingModel, &m.Dimensions, &m.SourcePath, &m.SourceHash, &m.ChunkCount, &builtAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.New("missing manifest")
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	m.BuiltAt = time.Unix(0, builtAt).UTC()
	return &m, nil
}

func readRecords(ctx context.Context, db *sql.DB) ([]domain.VectorRecord, error) {
	rows, err := db.QueryContext(ctx, `SELECT node_id, citekey, text, embedding FROM records ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []domain.VectorRecord
	for rows.Next() {
		var r domain.VectorRecord
		var blob []byte
		if err := rows.Scan(&r.NodeID, &r.Citekey, &r.Text, &blob); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if r.Embedding, err = bytesToFloat32Slice(blob); err != nil {
			return nil, fmt.Errorf("record %s: %w", r.NodeID, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Publish writes the index to a temporary file in the index directory,
// syncs it and renames it over any existing index for manifest.Citekey.
func (s *VectorStore) Publish(ctx context.Context, manifest domain.IndexManifest, records []domain.VectorRecord) error {
	if manifest.Citekey == "" {
		return fmt.Errorf("publish: empty citekey: %w", domain.ErrInvalidInput)
	}

	tmp, err := os.CreateTemp(s.dir, "."+escapeCitekey(manifest.Citekey)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary index: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	published := false
	defer func() {
		if !published {
			os.Remove(tmpPath)
		}
	}()

	if err := writeIndex(ctx, tmpPath, manifest, records); err != nil {
		return fmt.Errorf("writing index %s: %w", manifest.Citekey, err)
	}
	if err := syncFile(tmpPath); err != nil {
		return fmt.Errorf("syncing index %s: %w", manifest.Citekey, err)
	}
	if err := os.Rename(tmpPath, s.Path(manifest.Citekey)); err != nil {
		return fmt.Errorf("publishing index %s: %w", manifest.Citekey, err)
	}
	published = true
	return nil
}

func writeIndex(ctx context.Context, path string, manifest domain.IndexManifest, records []domain.VectorRecord) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, indexSchema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO manifest (citekey, embedding_model, dimensions, source_path, source_hash, chunk_count, built_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, manifest.Citekey, manifest.EmbeddingModel, manifest.Dimensions, manifest.SourcePath,
		manifest.SourceHash, len(records), manifest.BuiltAt.UnixNano())
	if err != nil {
		return fmt.Errorf("inserting manifest: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records (position, node_id, citekey, text, embedding) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, i, r.NodeID, r.Citekey, r.Text, float32SliceToBytes(r.Embedding)); err != nil {
			return fmt.Errorf("inserting record %s: %w", r.NodeID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return db.Close()
}

func syncFile(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Delete removes the index file for citekey.
func (s *VectorStore) Delete(citekey domain.Citekey) error {
	if err := os.Remove(s.Path(citekey)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting index %s: %w", citekey, err)
	}
	return nil
}

// List returns the citekeys with an index file, sorted.
func (s *VectorStore) List(_ context.Context) ([]domain.Citekey, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading index directory: %w", err)
	}

	var citekeys []domain.Citekey
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || !strings.HasSuffix(name, indexSuffix) {
			continue
		}
		citekey, err := unescapeCitekey(strings.TrimSuffix(name, indexSuffix))
		if err != nil || citekey == "" {
			continue
		}
		citekeys = append(citekeys, citekey)
	}
	sort.Strings(citekeys)
	return citekeys, nil
}
