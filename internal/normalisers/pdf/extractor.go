// Package pdf extracts page text from PDF files using poppler's pdftotext.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/refchat/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// pdfToolName is the external binary used for extraction.
const pdfToolName = "pdftotext"

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// CommandRunner runs an external command and returns its standard output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Extractor splits a PDF into per-page text.
type Extractor struct {
	runner    CommandRunner
	checkTool func() error
}

// New creates an extractor that shells out to pdftotext.
func New() *Extractor {
	return &Extractor{
		runner:    execRunner{},
		checkTool: CheckAvailable,
	}
}

// NewWithRunner creates an extractor with a custom command runner.
func NewWithRunner(runner CommandRunner) *Extractor {
	return &Extractor{
		runner:    runner,
		checkTool: func() error { return nil },
	}
}

// Extract returns the non-empty pages of the PDF at path.
// Files without a .pdf extension yield no pages.
func (e *Extractor) Extract(ctx context.Context, path string) ([]string, error) {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return nil, nil
	}
	if err := e.checkTool(); err != nil {
		return nil, err
	}

	out, err := e.runner.Run(ctx, pdfToolName, "-enc", "UTF-8", path, "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext failed on %s: %w", path, err)
	}
	return splitPages(string(out)), nil
}

// splitPages splits pdftotext output on form feeds.
func splitPages(out string) []string {
	raw := strings.Split(out, "\f")
	pages := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			pages = append(pages, p)
		}
	}
	return pages
}

// CheckAvailable returns ErrPDFToolNotFound if pdftotext cannot be found.
func CheckAvailable() error {
	if _, err := exec.LookPath(pdfToolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns platform hints for installing pdftotext.
func InstallInstructions() string {
	return `pdftotext is required to read PDF attachments. Install poppler:
  macOS:          brew install poppler
  Debian/Ubuntu:  apt install poppler-utils
  Fedora:         dnf install poppler-utils`
}
