package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound            = errors.New("session not found")
	ErrEmptyMessage        = errors.New("message is empty")
	ErrUnsupportedDocument = errors.New("unsupported document type")
	ErrExtractionFailed    = errors.New("document extraction failed")
)
