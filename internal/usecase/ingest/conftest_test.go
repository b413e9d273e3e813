package ingest

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/policy-oracle/policyoracle/internal/domain/chunk"
	"github.com/policy-oracle/policyoracle/internal/domain/document"
)

// --- Mocks ---

type mockDocRepo struct {
	insertFn          func(ctx context.Context, doc document.Document) error
	getFn             func(ctx context.Context, id string) (document.Document, error)
	getByPathFn       func(ctx context.Context, filePath string) (document.Document, error)
	beginProcessingFn func(ctx context.Context, id string) (bool, error)
	markProcessedFn   func(ctx context.Context, id string, pageCount int) error
	markErrorFn       func(ctx context.Context, id string) error
	listFn            func(ctx context.Context, status document.Status, limit int) ([]document.Document, error)
	deleteFn          func(ctx context.Context, id string) error
	countFn           func(ctx context.Context) (int, error)
}

func (m *mockDocRepo) Insert(ctx context.Context, doc document.Document) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, doc)
	}
	return nil
}

func (m *mockDocRepo) Get(ctx context.Context, id string) (document.Document, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return document.Document{}, nil
}

func (m *mockDocRepo) GetByPath(ctx context.Context, filePath string) (document.Document, error) {
	if m.getByPathFn != nil {
		return m.getByPathFn(ctx, filePath)
	}
	return document.Document{}, nil
}

func (m *mockDocRepo) BeginProcessing(ctx context.Context, id string) (bool, error) {
	if m.beginProcessingFn != nil {
		return m.beginProcessingFn(ctx, id)
	}
	return true, nil
}

func (m *mockDocRepo) MarkProcessed(ctx context.Context, id string, pageCount int) error {
	if m.markProcessedFn != nil {
		return m.markProcessedFn(ctx, id, pageCount)
	}
	return nil
}

func (m *mockDocRepo) MarkError(ctx context.Context, id string) error {
	if m.markErrorFn != nil {
		return m.markErrorFn(ctx, id)
	}
	return nil
}

func (m *mockDocRepo) List(ctx context.Context, status document.Status, limit int) ([]document.Document, error) {
	if m.listFn != nil {
		return m.listFn(ctx, status, limit)
	}
	return nil, nil
}

func (m *mockDocRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockDocRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

type mockChunkRepo struct {
	insertBatchFn      func(ctx context.Context, chunks []chunk.Chunk) error
	countByDocumentFn  func(ctx context.Context, documentID string) (int, error)
	deleteByDocumentFn func(ctx context.Context, documentID string) (int, error)
	inserted           []chunk.Chunk
}

func (m *mockChunkRepo) InsertBatch(ctx context.Context, chunks []chunk.Chunk) error {
	m.inserted = append(m.inserted, chunks...)
	if m.insertBatchFn != nil {
		return m.insertBatchFn(ctx, chunks)
	}
	return nil
}

func (m *mockChunkRepo) CountByDocument(ctx context.Context, documentID string) (int, error) {
	if m.countByDocumentFn != nil {
		return m.countByDocumentFn(ctx, documentID)
	}
	return 0, nil
}

func (m *mockChunkRepo) DeleteByDocument(ctx context.Context, documentID string) (int, error) {
	if m.deleteByDocumentFn != nil {
		return m.deleteByDocumentFn(ctx, documentID)
	}
	return 0, nil
}

type mockBlobStore struct {
	uploadFn   func(ctx context.Context, path string, data []byte) error
	downloadFn func(ctx context.Context, path string) ([]byte, error)
	deleteFn   func(ctx context.Context, path string) error
}

func (m *mockBlobStore) Upload(ctx context.Context, path string, data []byte) error {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, path, data)
	}
	return nil
}

func (m *mockBlobStore) Download(ctx context.Context, path string) ([]byte, error) {
	if m.downloadFn != nil {
		return m.downloadFn(ctx, path)
	}
	return nil, nil
}

func (m *mockBlobStore) Delete(ctx context.Context, path string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, path)
	}
	return nil
}

// --- Helpers ---

func newTestService(t *testing.T) (*Service, *mockDocRepo, *mockChunkRepo, *mockBlobStore) {
	t.Helper()
	docs := &mockDocRepo{}
	chunks := &mockChunkRepo{}
	blobs := &mockBlobStore{}
	return New(docs, chunks, blobs, zap.NewNop()), docs, chunks, blobs
}

func pendingDocument(t *testing.T, id, filePath string) document.Document {
	t.Helper()
	return document.Reconstruct(
		id, "Employee Handbook", filePath, 4096, 0,
		document.StatusPending, "hr", "owner-1",
		time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	)
}
