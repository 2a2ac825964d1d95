package driven

import "context"

// TextExtractor converts a document file into text segments.
type TextExtractor interface {
	// Extract returns the text of the file at path, one segment per page.
	// Unsupported file types return an empty slice and no error.
	Extract(ctx context.Context, path string) ([]string, error)
}
