package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
	"github.com/custodia-labs/refchat/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// pdfPattern matches PDF files regardless of extension case.
const pdfPattern = "*.[pP][dD][fF]"

// DocumentService resolves citekeys against the reference-manager library.
type DocumentService struct {
	library driven.Library
	vectors driven.VectorStore
}

// NewDocumentService creates a new document service.
// vectors may be nil, in which case List reports no indexes.
func NewDocumentService(library driven.Library, vectors driven.VectorStore) *DocumentService {
	return &DocumentService{
		library: library,
		vectors: vectors,
	}
}

// Resolve returns the metadata of citekey.
// The library is queried on every call.
func (s *DocumentService) Resolve(ctx context.Context, citekey domain.Citekey) (*domain.DocumentMetadata, error) {
	entries, err := s.library.ListEntries(ctx)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		if entries[i].Citekey != citekey {
			continue
		}
		meta := entries[i]
		if !meta.HasAttachment() {
			return nil, fmt.Errorf("document %q: %w", citekey, domain.ErrNoAttachment)
		}
		return &meta, nil
	}

	return nil, fmt.Errorf("document %q: %w", citekey, domain.ErrNotFound)
}

// List returns every library entry with its index status, sorted by citekey.
func (s *DocumentService) List(ctx context.Context) ([]domain.LibraryEntry, error) {
	entries, err := s.library.ListEntries(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]domain.LibraryEntry, 0, len(entries))
	for _, meta := range entries {
		result = append(result, domain.LibraryEntry{
			DocumentMetadata: meta,
			HasIndex:         s.vectors != nil && s.vectors.Exists(meta.Citekey),
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Citekey < result[j].Citekey
	})
	return result, nil
}

// LocatePDF returns the first PDF in folder, in lexical order.
// The extension match is case-insensitive.
func LocatePDF(folder string) (string, error) {
	if folder == "" {
		return "", domain.ErrNoAttachment
	}

	matches, err := doublestar.Glob(os.DirFS(folder), pdfPattern)
	if err != nil {
		return "", fmt.Errorf("scan %s: %w", folder, err)
	}
	sort.Strings(matches)

	for _, m := range matches {
		path := filepath.Join(folder, filepath.FromSlash(m))
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", fmt.Errorf("no PDF in %s: %w", folder, domain.ErrNoAttachment)
}

// HashFile returns the source descriptor of path with its SHA-256.
func HashFile(path string) (domain.SourceFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.SourceFile{}, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return domain.SourceFile{}, fmt.Errorf("hash source: %w", err)
	}
	return domain.SourceFile{Path: path, Hash: hex.EncodeToString(h.Sum(nil))}, nil
}
