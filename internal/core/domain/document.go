package domain

import "time"

// Citekey is the stable short identifier of one reference-manager entry.
// It is the primary key for metadata, file location and stored index.
type Citekey = string

// DocumentMetadata describes one reference-manager entry.
// It is fetched per request and never cached across requests.
type DocumentMetadata struct {
	// Citekey identifies the entry.
	Citekey Citekey `json:"citekey"`

	// Title is the cleaned entry title.
	Title string `json:"title"`

	// Authors is the cleaned author list as written in the bibliography.
	Authors string `json:"authors"`

	// Year is the publication year, if known.
	Year string `json:"year,omitempty"`

	// Tags is a comma-separated keyword list.
	Tags string `json:"tags"`

	// ItemType is the reference-manager item type (article, book, ...).
	ItemType string `json:"item_type"`

	// FolderPath is the local attachment folder. Empty when the entry has no file.
	FolderPath string `json:"folder_path,omitempty"`
}

// HasAttachment reports whether a local folder was derived for the entry.
func (m DocumentMetadata) HasAttachment() bool {
	return m.FolderPath != ""
}

// LibraryEntry is a metadata record annotated with index availability.
type LibraryEntry struct {
	DocumentMetadata

	// HasIndex is true when a stored index exists for the citekey.
	HasIndex bool `json:"has_index"`
}

// Chunk represents a semantically self-contained span of document text.
// Only the text is carried forward to embedding; positional metadata is not retained.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int
}

// VectorRecord is one embedded chunk stored in a document index.
type VectorRecord struct {
	// NodeID uniquely identifies the record.
	NodeID string `json:"node_id"`

	// Citekey is the source document.
	Citekey Citekey `json:"citekey"`

	// Text is the chunk content.
	Text string `json:"text"`

	// Embedding is the vector representation of Text.
	Embedding []float32 `json:"embedding"`
}

// Dimensions returns the embedding width.
func (r VectorRecord) Dimensions() int {
	return len(r.Embedding)
}

// IndexManifest describes how a stored index was built.
type IndexManifest struct {
	// Citekey is the indexed document.
	Citekey Citekey `json:"citekey"`

	// EmbeddingModel is the model that produced the vectors.
	EmbeddingModel string `json:"embedding_model"`

	// Dimensions is the embedding width of the stored vectors.
	Dimensions int `json:"dimensions"`

	// SourcePath is the file the index was built from.
	SourcePath string `json:"source_path"`

	// SourceHash is the hex SHA-256 of the source file at build time.
	SourceHash string `json:"source_hash"`

	// ChunkCount is the number of stored records.
	ChunkCount int `json:"chunk_count"`

	// BuiltAt is when the index was published.
	BuiltAt time.Time `json:"built_at"`
}

// SourceFile identifies the document file an index is built from.
type SourceFile struct {
	// Path is the absolute file path.
	Path string

	// Hash is the hex SHA-256 of the file content.
	Hash string
}

// IndexStats summarises a stored index.
type IndexStats struct {
	// Citekey is the indexed document.
	Citekey Citekey `json:"citekey"`

	// Manifest is nil when the index could not be read.
	Manifest *IndexManifest `json:"manifest,omitempty"`

	// RecordCount is the number of readable records.
	RecordCount int `json:"record_count"`

	// Dimensions is the dominant embedding width among readable records.
	Dimensions int `json:"dimensions"`

	// Mismatched counts records whose width differs from Dimensions.
	Mismatched int `json:"mismatched,omitempty"`

	// Error describes why the index could not be read.
	Error string `json:"error,omitempty"`
}

// Healthy reports whether the index was readable.
func (s IndexStats) Healthy() bool {
	return s.Manifest != nil && s.Error == ""
}
