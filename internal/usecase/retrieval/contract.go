package retrieval

import (
	"context"

	"github.com/policy-oracle/policyoracle/internal/domain/chunk"
)

// ChunkSearcher runs the keyword full-text search over chunk content.
type ChunkSearcher interface {
	Search(ctx context.Context, query string, topK int) ([]chunk.Match, error)
}

// TitleResolver batch-resolves document titles for citation headers.
type TitleResolver interface {
	Titles(ctx context.Context, ids []string) (map[string]string, error)
}
