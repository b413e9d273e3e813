// Package citation holds the query-time Citation projection shown to users
// as evidence for an answer. Citations are never stored by the core; they
// are recomputed per query from matched chunks.
package citation

import "github.com/policy-oracle/policyoracle/internal/domain/chunk"

// SnippetLen is the maximum citation content length in characters.
const SnippetLen = 300

// Citation is a display-oriented projection of one matched chunk.
type Citation struct {
	DocumentTitle string `json:"document_title"`
	PageNumber    int    `json:"page_number"`
	SectionTitle  string `json:"section_title"`
	Content       string `json:"content"`
}

// FromChunk projects a matched chunk into a citation.
// Page 0 and empty section mean "unknown"; content is truncated to SnippetLen.
func FromChunk(documentTitle string, c chunk.Chunk) Citation {
	content := c.Content()
	if len(content) > SnippetLen {
		content = content[:SnippetLen]
	}
	return Citation{
		DocumentTitle: documentTitle,
		PageNumber:    c.PageNumber(),
		SectionTitle:  c.SectionTitle(),
		Content:       content,
	}
}
