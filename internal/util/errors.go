package util

import "errors"

var (
	ErrNoExtractableText = errors.New("no extractable text found in document")
	ErrScannedDocument   = errors.New("document appears to be a scanned PDF, OCR required")
	ErrDuplicateFilename = errors.New("a document with this filename already exists")
)
