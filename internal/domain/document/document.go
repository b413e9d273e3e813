// Package document holds the Document aggregate and its ingestion lifecycle.
package document

import (
	"fmt"
	"time"
)

// Status is the ingestion lifecycle state of a document.
type Status string

const (
	// StatusPending means the document is registered but not yet processed.
	StatusPending Status = "pending"
	// StatusProcessing means an ingestion run currently owns the document.
	StatusProcessing Status = "processing"
	// StatusProcessed means ingestion completed and chunks are queryable.
	StatusProcessed Status = "processed"
	// StatusError means the last ingestion run failed terminally.
	StatusError Status = "error"
)

// Valid reports whether s is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusProcessed, StatusError:
		return true
	}
	return false
}

// Terminal reports whether the document is read-only for the ingestion
// pipeline (owned by external consumers).
func (s Status) Terminal() bool {
	return s == StatusProcessed || s == StatusError
}

// MaxTitleLen bounds document titles.
const MaxTitleLen = 512

// Document is the stored document record (immutable value object).
type Document struct {
	id        string
	title     string
	filePath  string
	fileSize  int64
	pageCount int
	status    Status
	category  string
	ownerID   string
	createdAt time.Time
}

// New validates and creates a pending Document.
func New(id, title, filePath string, fileSize int64, category, ownerID string) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if title == "" {
		return Document{}, fmt.Errorf("title is required")
	}
	if len(title) > MaxTitleLen {
		return Document{}, fmt.Errorf("title too long (max %d)", MaxTitleLen)
	}
	if filePath == "" {
		return Document{}, fmt.Errorf("file path is required")
	}
	if fileSize < 0 {
		return Document{}, fmt.Errorf("file size must be non-negative")
	}

	return Document{
		id:        id,
		title:     title,
		filePath:  filePath,
		fileSize:  fileSize,
		status:    StatusPending,
		category:  category,
		ownerID:   ownerID,
		createdAt: time.Now().UTC(),
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(
	id, title, filePath string, fileSize int64, pageCount int,
	status Status, category, ownerID string, createdAt time.Time,
) Document {
	return Document{
		id:        id,
		title:     title,
		filePath:  filePath,
		fileSize:  fileSize,
		pageCount: pageCount,
		status:    status,
		category:  category,
		ownerID:   ownerID,
		createdAt: createdAt,
	}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Title returns the display title.
func (d *Document) Title() string { return d.title }

// FilePath returns the blob storage path.
func (d *Document) FilePath() string { return d.filePath }

// FileSize returns the uploaded size in bytes.
func (d *Document) FileSize() int64 { return d.fileSize }

// PageCount returns the page estimate recorded by ingestion.
// It equals the page estimate of the last kept chunk, not a true total;
// the quirk is inherited from the original pipeline and kept on purpose.
func (d *Document) PageCount() int { return d.pageCount }

// Status returns the lifecycle state.
func (d *Document) Status() Status { return d.status }

// Category returns the optional category label.
func (d *Document) Category() string { return d.category }

// OwnerID returns the uploading user's identifier.
func (d *Document) OwnerID() string { return d.ownerID }

// CreatedAt returns the registration timestamp.
func (d *Document) CreatedAt() time.Time { return d.createdAt }
