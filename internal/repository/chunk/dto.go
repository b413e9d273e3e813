package chunk

import (
	"strconv"

	domchunk "github.com/policy-oracle/policyoracle/internal/domain/chunk"
)

// Hash field names. The FT index schema in repo.go mirrors these.
const (
	fieldDocumentID   = "document_id"
	fieldContent      = "content"
	fieldPageNumber   = "page_number"
	fieldChunkIndex   = "chunk_index"
	fieldSectionTitle = "section_title"
)

// buildHashFields converts a domain Chunk into a flat map for HSET.
func buildHashFields(c *domchunk.Chunk) map[string]string {
	return map[string]string{
		fieldDocumentID:   c.DocumentID(),
		fieldContent:      c.Content(),
		fieldPageNumber:   strconv.Itoa(c.PageNumber()),
		fieldChunkIndex:   strconv.Itoa(c.ChunkIndex()),
		fieldSectionTitle: c.SectionTitle(),
	}
}

// parseHashFields converts a flat hash map back into a domain Chunk.
func parseHashFields(m map[string]string) domchunk.Chunk {
	pageNumber, _ := strconv.Atoi(m[fieldPageNumber])
	chunkIndex, _ := strconv.Atoi(m[fieldChunkIndex])

	return domchunk.Reconstruct(
		m[fieldDocumentID],
		m[fieldContent],
		pageNumber,
		chunkIndex,
		m[fieldSectionTitle],
	)
}
