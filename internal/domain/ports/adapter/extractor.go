package adapter

import "context"

// DocumentExtractor turns an uploaded file into plain text. Implementations
// accept only recognized document MIME types; anything else must be rejected
// before extraction is attempted.
type DocumentExtractor interface {
	// Supports reports whether mimeType is a recognized document type.
	Supports(mimeType string) bool

	// Extract produces plain text from the file bytes.
	Extract(ctx context.Context, data []byte, filename, mimeType string) (string, error)
}
