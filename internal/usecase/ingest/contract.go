package ingest

import (
	"context"

	"github.com/policy-oracle/policyoracle/internal/domain/chunk"
	"github.com/policy-oracle/policyoracle/internal/domain/document"
)

// DocumentRepository defines the storage contract for document records.
type DocumentRepository interface {
	Insert(ctx context.Context, doc document.Document) error
	Get(ctx context.Context, id string) (document.Document, error)
	GetByPath(ctx context.Context, filePath string) (document.Document, error)
	// BeginProcessing transitions the document to processing only when its
	// current status permits it (pending or error). Returns false when
	// another run already owns or finished the document.
	BeginProcessing(ctx context.Context, id string) (bool, error)
	MarkProcessed(ctx context.Context, id string, pageCount int) error
	MarkError(ctx context.Context, id string) error
	List(ctx context.Context, status document.Status, limit int) ([]document.Document, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// ChunkRepository defines the storage contract for chunks.
type ChunkRepository interface {
	InsertBatch(ctx context.Context, chunks []chunk.Chunk) error
	CountByDocument(ctx context.Context, documentID string) (int, error)
	DeleteByDocument(ctx context.Context, documentID string) (int, error)
}

// BlobStore holds raw uploaded file bytes by storage path.
type BlobStore interface {
	Upload(ctx context.Context, path string, data []byte) error
	Download(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}
