package ingest

import (
	"strings"

	"github.com/policy-oracle/policyoracle/internal/domain/chunk"
)

const (
	// DefaultChunkSize is the window size in characters.
	DefaultChunkSize = 1000
	// DefaultOverlap is the window overlap in characters.
	DefaultOverlap = 200
	// DefaultPageHint is assumed when a document has no recorded page count.
	DefaultPageHint = 10
)

// Chunker splits extracted text into overlapping fixed-size windows.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker. Non-positive arguments fall back to the defaults.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultOverlap
	}
	return &Chunker{size: size, overlap: overlap}
}

// Chunk slides a window over text in strides of size-overlap. Each window is
// trimmed; windows shorter than chunk.MinContentLen after trimming are
// dropped without burning an index, so chunk indexes stay dense over the
// kept chunks.
//
// Page numbers are a linear extrapolation from the page hint: the text is
// assumed to have uniform character density per page. charsPerPage =
// len(text)/hint, page = offset/charsPerPage + 1. This coarse estimate is
// the pipeline's only source of page numbers.
func (c *Chunker) Chunk(documentID, text string, pageHint int) []chunk.Chunk {
	if len(text) == 0 {
		return nil
	}
	if pageHint <= 0 {
		pageHint = DefaultPageHint
	}

	charsPerPage := len(text) / pageHint
	if charsPerPage < 1 {
		charsPerPage = 1
	}

	stride := c.size - c.overlap

	var chunks []chunk.Chunk
	for i := 0; i < len(text); i += stride {
		end := i + c.size
		if end > len(text) {
			end = len(text)
		}

		content := strings.TrimSpace(text[i:end])
		if len(content) >= chunk.MinContentLen {
			page := i/charsPerPage + 1
			if ck, err := chunk.New(documentID, content, page, len(chunks)); err == nil {
				chunks = append(chunks, ck)
			}
		}

		// The window that reaches the end of the text is the last one.
		if end == len(text) {
			break
		}
	}

	return chunks
}
