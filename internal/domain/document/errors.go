package document

import "errors"

var (
	// ErrDocumentNotFound indicates the document doesn't exist.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrReleaseNotFound indicates the target release doesn't exist.
	ErrReleaseNotFound = errors.New("release not found")
	// ErrEmptyContent indicates the document has no text.
	ErrEmptyContent = errors.New("document content is empty")
	// ErrInvalidInput indicates invalid document input.
	ErrInvalidInput = errors.New("invalid document input")
)
