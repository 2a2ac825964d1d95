package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Document Errors.

	// ErrMetadataUnavailable indicates the reference manager could not be queried.
	ErrMetadataUnavailable = errors.New("metadata provider unavailable")

	// ErrNoAttachment indicates the document has no resolvable file.
	ErrNoAttachment = errors.New("document has no attachment")

	// ErrNoContent indicates text extraction or chunking produced nothing.
	ErrNoContent = errors.New("document produced no content")

	// Index Errors.

	// ErrCorruptIndex indicates index storage exists but cannot be read.
	// The lifecycle manager recovers from it by rebuilding.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrNoValidIndexes indicates every requested document failed to produce an index.
	ErrNoValidIndexes = errors.New("no valid indexes for selected documents")

	// ErrUnsupportedMultiDocument indicates a single-document operation received several documents.
	ErrUnsupportedMultiDocument = errors.New("operation supports a single document only")

	// Provider Errors.

	// ErrProviderTimeout indicates an external provider did not answer in time.
	ErrProviderTimeout = errors.New("provider timeout")

	// ErrProviderUnavailable indicates an external provider could not be reached or failed.
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// Stable error kinds reported to callers.
const (
	KindMetadataUnavailable      = "metadata_unavailable"
	KindNotFound                 = "not_found"
	KindNoAttachment             = "no_attachment"
	KindNoContent                = "no_content"
	KindCorruptIndex             = "corrupt_index"
	KindNoValidIndexes           = "no_valid_indexes"
	KindUnsupportedMultiDocument = "unsupported_multi_document"
	KindProviderTimeout          = "provider_timeout"
	KindProviderUnavailable      = "provider_unavailable"
	KindInvalidInput             = "invalid_input"
	KindInternal                 = "internal"
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrNoValidIndexes, KindNoValidIndexes},
	{ErrUnsupportedMultiDocument, KindUnsupportedMultiDocument},
	{ErrInvalidInput, KindInvalidInput},
	{ErrMetadataUnavailable, KindMetadataUnavailable},
	{ErrNoAttachment, KindNoAttachment},
	{ErrNoContent, KindNoContent},
	{ErrCorruptIndex, KindCorruptIndex},
	{ErrProviderTimeout, KindProviderTimeout},
	{ErrProviderUnavailable, KindProviderUnavailable},
	{ErrNotFound, KindNotFound},
}

// ErrorKind returns the stable kind string for err.
// Errors outside the taxonomy report KindInternal.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, ek := range errorKinds {
		if errors.Is(err, ek.err) {
			return ek.kind
		}
	}
	return KindInternal
}

// ProviderError classifies a transport failure from an external provider.
// Deadline and network timeouts become ErrProviderTimeout, everything else
// ErrProviderUnavailable. The original error stays in the chain.
func ProviderError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrProviderTimeout) || errors.Is(err, ErrProviderUnavailable) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", ErrProviderTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
}
