package chunk

import (
	"context"
	"testing"

	"github.com/policy-oracle/policyoracle/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetMultiFn   func(ctx context.Context, items []db.HashSetItem) error
	delFn         func(ctx context.Context, key string) error
	scanFn        func(ctx context.Context, pattern string) ([]string, error)
	searchTextFn  func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	searchCountFn func(ctx context.Context, index, query string) (int, error)
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func (m *mockStore) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchTextFn != nil {
		return m.searchTextFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchCount(ctx context.Context, index, query string) (int, error) {
	if m.searchCountFn != nil {
		return m.searchCountFn(ctx, index, query)
	}
	return 0, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func TestDeleteByDocument_DeletesScannedKeys(t *testing.T) {
	ms := &mockStore{}
	repo := New(ms)

	ms.scanFn = func(_ context.Context, pattern string) ([]string, error) {
		if pattern != "chunk:doc-1:*" {
			t.Errorf("scan pattern = %q", pattern)
		}
		return []string{"chunk:doc-1:0", "chunk:doc-1:1", "chunk:doc-1:2"}, nil
	}

	var deleted []string
	ms.delFn = func(_ context.Context, key string) error {
		deleted = append(deleted, key)
		return nil
	}

	n, err := repo.DeleteByDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 || len(deleted) != 3 {
		t.Errorf("deleted %d keys, reported %d", len(deleted), n)
	}
}

func TestDeleteByDocument_NoChunks(t *testing.T) {
	ms := &mockStore{}
	repo := New(ms)

	ms.delFn = func(_ context.Context, key string) error {
		t.Errorf("unexpected delete of %q", key)
		return nil
	}

	n, err := repo.DeleteByDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("reported %d deletions", n)
	}
}

func TestCountByDocument_BuildsTagQuery(t *testing.T) {
	ms := &mockStore{}
	repo := New(ms)

	ms.searchCountFn = func(_ context.Context, index, query string) (int, error) {
		if index != "idx:chunks" {
			t.Errorf("index = %q", index)
		}
		if query != "@document_id:{doc\\-1}" {
			t.Errorf("query = %q", query)
		}
		return 12, nil
	}

	n, err := repo.CountByDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 12 {
		t.Errorf("count = %d", n)
	}
}
