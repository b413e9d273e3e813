package domain

import "errors"

var (
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrConversationNotFound signals a missing conversation.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrAlreadyProcessing signals a duplicate ingestion trigger for a document
	// that is already being (or already has been) processed.
	ErrAlreadyProcessing = errors.New("document already processing or processed")
	// ErrBlobNotFound signals missing raw file bytes in the blob store.
	ErrBlobNotFound = errors.New("blob not found")
	// ErrInvalidInput signals a malformed request payload.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited signals an upstream rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrQuotaExceeded signals an exhausted upstream usage quota.
	ErrQuotaExceeded = errors.New("usage quota exceeded")
	// ErrUpstreamError signals a generic completion service failure.
	ErrUpstreamError = errors.New("upstream service error")
)
