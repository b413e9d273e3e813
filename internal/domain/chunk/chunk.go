// Package chunk holds the Chunk entity, the unit of retrieval.
package chunk

import "fmt"

const (
	// MinContentLen is the shortest content a chunk may carry; shorter
	// windows are dropped by the chunker.
	MinContentLen = 20
	// MaxContentLen is the chunk window size in characters.
	MaxContentLen = 1000
)

// Chunk is one bounded slice of a document's extracted text.
type Chunk struct {
	documentID   string
	content      string
	pageNumber   int
	chunkIndex   int
	sectionTitle string
}

// New validates and creates a Chunk.
// Content must be trimmed by the caller and within [MinContentLen, MaxContentLen].
func New(documentID, content string, pageNumber, chunkIndex int) (Chunk, error) {
	if documentID == "" {
		return Chunk{}, fmt.Errorf("document ID is required")
	}
	if len(content) < MinContentLen {
		return Chunk{}, fmt.Errorf("content too short (min %d)", MinContentLen)
	}
	if len(content) > MaxContentLen {
		return Chunk{}, fmt.Errorf("content too long (max %d)", MaxContentLen)
	}
	if pageNumber < 1 {
		return Chunk{}, fmt.Errorf("page number must be positive")
	}
	if chunkIndex < 0 {
		return Chunk{}, fmt.Errorf("chunk index must be non-negative")
	}

	return Chunk{
		documentID: documentID,
		content:    content,
		pageNumber: pageNumber,
		chunkIndex: chunkIndex,
	}, nil
}

// Reconstruct creates a Chunk without validation (storage hydration).
func Reconstruct(documentID, content string, pageNumber, chunkIndex int, sectionTitle string) Chunk {
	return Chunk{
		documentID:   documentID,
		content:      content,
		pageNumber:   pageNumber,
		chunkIndex:   chunkIndex,
		sectionTitle: sectionTitle,
	}
}

// DocumentID returns the owning document's identifier.
func (c *Chunk) DocumentID() string { return c.documentID }

// Content returns the trimmed chunk text.
func (c *Chunk) Content() string { return c.content }

// PageNumber returns the linear page estimate (>= 1).
func (c *Chunk) PageNumber() int { return c.pageNumber }

// ChunkIndex returns the dense zero-based position among kept chunks.
func (c *Chunk) ChunkIndex() int { return c.chunkIndex }

// SectionTitle returns the optional section label ("" if unknown).
func (c *Chunk) SectionTitle() string { return c.sectionTitle }
