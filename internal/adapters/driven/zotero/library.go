// Package zotero reads library entries from a local Zotero instance.
//
// Entries are fetched from the Better BibTeX export of the local API and
// mapped onto attachment folders under the Zotero storage directory.
package zotero

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/nickng/bibtex"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
)

// Ensure Library implements the interface.
var _ driven.Library = (*Library)(nil)

// Default configuration values.
const (
	DefaultTimeout = 30 * time.Second
	exportPath     = "/api/users/0/items?format=bibtex"
)

// storageFolder captures the attachment folder id from a file path.
var storageFolder = regexp.MustCompile(`/Zotero/storage/(?P<id>[^/]+)/`)

var (
	yearPattern   = regexp.MustCompile(`\b(\d{4})\b`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// Config holds configuration for the Zotero library adapter.
type Config struct {
	// BaseURL is the local API endpoint (default: http://localhost:23119).
	BaseURL string

	// StorageRoot is the local attachment directory.
	StorageRoot string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Library lists entries from the Zotero local API.
type Library struct {
	client      *http.Client
	baseURL     string
	storageRoot string
}

// NewLibrary creates a new Zotero library adapter.
func NewLibrary(cfg Config) *Library {
	if cfg.BaseURL == "" {
		cfg.BaseURL = domain.DefaultZoteroBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Library{
		client:      &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		storageRoot: cfg.StorageRoot,
	}
}

// ListEntries fetches the full library export.
// Any transport, status or parse failure is reported as domain.ErrMetadataUnavailable.
func (l *Library) ListEntries(ctx context.Context) ([]domain.DocumentMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+exportPath, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("zotero: create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("zotero: %w: %w", domain.ErrMetadataUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("zotero: %w: status %d: %s",
			domain.ErrMetadataUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return ParseEntries(resp.Body, l.storageRoot)
}

// ParseEntries decodes a BibTeX export into metadata records.
// Entries keep export order. Entries without a citekey are skipped.
func ParseEntries(r io.Reader, storageRoot string) ([]domain.DocumentMetadata, error) {
	bib, err := bibtex.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("zotero: %w: parse bibtex: %w", domain.ErrMetadataUnavailable, err)
	}

	entries := make([]domain.DocumentMetadata, 0, len(bib.Entries))
	for _, e := range bib.Entries {
		if e == nil || strings.TrimSpace(e.CiteName) == "" {
			continue
		}
		entries = append(entries, toMetadata(e, storageRoot))
	}
	return entries, nil
}

func toMetadata(e *bibtex.BibEntry, storageRoot string) domain.DocumentMetadata {
	fields := make(map[string]string, len(e.Fields))
	for name, value := range e.Fields {
		if value == nil {
			continue
		}
		fields[strings.ToLower(name)] = value.String()
	}

	itemType := cleanField(fields["itemtype"])
	if itemType == "" {
		itemType = strings.ToLower(e.Type)
	}

	return domain.DocumentMetadata{
		Citekey:    strings.TrimSpace(e.CiteName),
		Title:      cleanField(fields["title"]),
		Authors:    cleanField(fields["author"]),
		Year:       entryYear(fields),
		Tags:       joinKeywords(fields["keywords"]),
		ItemType:   itemType,
		FolderPath: attachmentFolder(fields["file"], storageRoot),
	}
}

// cleanField strips braces and collapses whitespace.
func cleanField(s string) string {
	s = strings.NewReplacer("{", "", "}", "").Replace(s)
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// joinKeywords normalises a keyword list to ", " separators.
func joinKeywords(raw string) string {
	parts := strings.FieldsFunc(cleanField(raw), func(r rune) bool {
		return r == ',' || r == ';'
	})
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

func entryYear(fields map[string]string) string {
	if y := cleanField(fields["year"]); y != "" {
		return y
	}
	if m := yearPattern.FindStringSubmatch(fields["date"]); m != nil {
		return m[1]
	}
	return ""
}

// attachmentFolder maps the first file path under Zotero storage to storageRoot/<id>.
func attachmentFolder(file, storageRoot string) string {
	m := storageFolder.FindStringSubmatch(filepath.ToSlash(cleanField(file)))
	if m == nil {
		return ""
	}
	return filepath.Join(storageRoot, m[storageFolder.SubexpIndex("id")])
}
