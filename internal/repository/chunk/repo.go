// Package chunk persists document chunks as hashes and exposes the keyword
// full-text search primitive over their content.
package chunk

import (
	"context"
	"errors"
	"fmt"

	"github.com/policy-oracle/policyoracle/internal/db"
	domchunk "github.com/policy-oracle/policyoracle/internal/domain/chunk"
)

const (
	keyPrefix = "chunk:"
	indexName = "idx:chunks"
)

// store is the consumer interface for chunk persistence (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
}

// Repo implements ingest.ChunkRepository and retrieval.ChunkSearcher.
type Repo struct {
	store store
}

// New creates a chunk repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// EnsureIndex creates the chunks FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	err := r.store.CreateIndex(ctx, indexDefinition())
	if err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create chunks index: %w", err)
	}
	return nil
}

// InsertBatch stores all chunks in one pipelined round trip.
func (r *Repo) InsertBatch(ctx context.Context, chunks []domchunk.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		items[i] = db.HashSetItem{
			Key:    chunkKey(c.DocumentID(), c.ChunkIndex()),
			Fields: buildHashFields(c),
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset chunks: %w", err)
	}
	return nil
}

// Search runs a BM25 keyword search over chunk content and returns at most
// topK matches with their scores. Ordering among equal scores is
// backend-defined; callers wanting determinism sort the matches themselves.
func (r *Repo) Search(ctx context.Context, query string, topK int) ([]domchunk.Match, error) {
	result, err := r.store.SearchText(ctx, &db.TextQuery{
		IndexName: indexName,
		Field:     fieldContent,
		Query:     query,
		TopK:      topK,
		ReturnFields: []string{
			fieldDocumentID, fieldContent, fieldPageNumber, fieldChunkIndex, fieldSectionTitle,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	if result == nil {
		return nil, nil
	}

	matches := make([]domchunk.Match, 0, len(result.Entries))
	for _, entry := range result.Entries {
		matches = append(matches, domchunk.Match{
			Chunk: parseHashFields(entry.Fields),
			Score: entry.Score,
		})
	}
	return matches, nil
}

// CountByDocument returns the number of stored chunks for a document.
func (r *Repo) CountByDocument(ctx context.Context, documentID string) (int, error) {
	query := fmt.Sprintf("@%s:{%s}", fieldDocumentID, db.EscapeTag(documentID))
	n, err := r.store.SearchCount(ctx, indexName, query)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// DeleteByDocument removes every stored chunk of a document and returns
// how many were deleted. Chunk keys embed the document ID, so a key scan
// finds them without touching the index.
func (r *Repo) DeleteByDocument(ctx context.Context, documentID string) (int, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+documentID+":*")
	if err != nil {
		return 0, fmt.Errorf("scan chunks: %w", err)
	}
	for _, key := range keys {
		if err := r.store.Del(ctx, key); err != nil {
			return 0, fmt.Errorf("del %s: %w", key, err)
		}
	}
	return len(keys), nil
}

func chunkKey(documentID string, index int) string {
	return fmt.Sprintf("%s%s:%d", keyPrefix, documentID, index)
}

func indexDefinition() *db.IndexDefinition {
	return &db.IndexDefinition{
		Name:     indexName,
		Prefixes: []string{keyPrefix},
		Fields: []db.IndexField{
			{Name: fieldContent, Type: db.IndexFieldText},
			{Name: fieldDocumentID, Type: db.IndexFieldTag, TagCaseSensitive: true},
			{Name: fieldPageNumber, Type: db.IndexFieldNumeric},
			{Name: fieldChunkIndex, Type: db.IndexFieldNumeric, Sortable: true},
		},
	}
}
