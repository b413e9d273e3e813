// Package document persists document records as hashes with an FT index
// for path and status lookups.
package document

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/policy-oracle/policyoracle/internal/db"
	"github.com/policy-oracle/policyoracle/internal/domain"
	domdoc "github.com/policy-oracle/policyoracle/internal/domain/document"
)

const (
	keyPrefix = "doc:"
	indexName = "idx:documents"
)

// store is the consumer interface for document persistence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	HSetIfFieldIn(ctx context.Context, key, field string, allowed []string, fields map[string]string) (bool, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo implements ingest.DocumentRepository and the retrieval title resolver.
type Repo struct {
	store store
}

// New creates a document repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// EnsureIndex creates the documents FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	err := r.store.CreateIndex(ctx, indexDefinition())
	if err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create documents index: %w", err)
	}
	return nil
}

// Insert stores a new document record.
func (r *Repo) Insert(ctx context.Context, doc domdoc.Document) error {
	if err := r.store.HSet(ctx, docKey(doc.ID()), buildHashFields(&doc)); err != nil {
		return fmt.Errorf("hset %s: %w", docKey(doc.ID()), err)
	}
	return nil
}

// Get returns a document by ID.
func (r *Repo) Get(ctx context.Context, id string) (domdoc.Document, error) {
	m, err := r.store.HGetAll(ctx, docKey(id))
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("hgetall %s: %w", docKey(id), err)
	}
	if len(m) == 0 {
		return domdoc.Document{}, domain.ErrDocumentNotFound
	}
	return parseHashFields(id, m), nil
}

// GetByPath resolves a document by its blob storage path.
func (r *Repo) GetByPath(ctx context.Context, filePath string) (domdoc.Document, error) {
	query := fmt.Sprintf("@file_path:{%s}", db.EscapeTag(filePath))
	result, err := r.store.SearchList(ctx, indexName, query, 0, 1, nil)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("search by path: %w", err)
	}
	if result == nil || len(result.Entries) == 0 {
		return domdoc.Document{}, domain.ErrDocumentNotFound
	}

	entry := result.Entries[0]
	return parseHashFields(extractID(entry.Key), entry.Fields), nil
}

// Titles batch-resolves document titles for the given ids. Unknown ids map
// to "Unknown Document" so citations stay renderable.
func (r *Repo) Titles(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(id)
	}

	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi: %w", err)
	}

	titles := make(map[string]string, len(ids))
	for i, m := range maps {
		title := m[fieldTitle]
		if title == "" {
			title = "Unknown Document"
		}
		titles[ids[i]] = title
	}
	return titles, nil
}

// BeginProcessing conditionally transitions the document to processing.
// Only pending and error documents are eligible; a document already
// processing or processed loses the race and gets false.
func (r *Repo) BeginProcessing(ctx context.Context, id string) (bool, error) {
	exists, err := r.store.Exists(ctx, docKey(id))
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", docKey(id), err)
	}
	if !exists {
		return false, domain.ErrDocumentNotFound
	}

	ok, err := r.store.HSetIfFieldIn(ctx, docKey(id), fieldStatus,
		[]string{string(domdoc.StatusPending), string(domdoc.StatusError)},
		map[string]string{fieldStatus: string(domdoc.StatusProcessing)},
	)
	if err != nil {
		return false, fmt.Errorf("cas status %s: %w", docKey(id), err)
	}
	return ok, nil
}

// MarkProcessed finalizes a successful run, recording the page estimate.
func (r *Repo) MarkProcessed(ctx context.Context, id string, pageCount int) error {
	fields := map[string]string{
		fieldStatus:    string(domdoc.StatusProcessed),
		fieldPageCount: itoa(pageCount),
	}
	if err := r.store.HSet(ctx, docKey(id), fields); err != nil {
		return fmt.Errorf("hset %s: %w", docKey(id), err)
	}
	return nil
}

// MarkError moves the document to the terminal error state.
func (r *Repo) MarkError(ctx context.Context, id string) error {
	fields := map[string]string{fieldStatus: string(domdoc.StatusError)}
	if err := r.store.HSet(ctx, docKey(id), fields); err != nil {
		return fmt.Errorf("hset %s: %w", docKey(id), err)
	}
	return nil
}

// List returns documents, optionally filtered by status.
func (r *Repo) List(ctx context.Context, status domdoc.Status, limit int) ([]domdoc.Document, error) {
	if limit <= 0 {
		limit = 50
	}

	query := "*"
	if status != "" {
		query = fmt.Sprintf("@status:{%s}", db.EscapeTag(string(status)))
	}

	result, err := r.store.SearchList(ctx, indexName, query, 0, limit, nil)
	if err != nil {
		return nil, fmt.Errorf("search list: %w", err)
	}
	if result == nil {
		return nil, nil
	}

	docs := make([]domdoc.Document, 0, len(result.Entries))
	for _, entry := range result.Entries {
		docs = append(docs, parseHashFields(extractID(entry.Key), entry.Fields))
	}
	return docs, nil
}

// Delete removes a document record. Unknown IDs are reported, not ignored.
func (r *Repo) Delete(ctx context.Context, id string) error {
	ok, err := r.store.Exists(ctx, docKey(id))
	if err != nil {
		return fmt.Errorf("exists %s: %w", docKey(id), err)
	}
	if !ok {
		return domain.ErrDocumentNotFound
	}
	if err := r.store.Del(ctx, docKey(id)); err != nil {
		return fmt.Errorf("del %s: %w", docKey(id), err)
	}
	return nil
}

// Count returns the number of stored documents.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, indexName, "*")
	if err != nil {
		return 0, fmt.Errorf("search count: %w", err)
	}
	return n, nil
}

func docKey(id string) string {
	return keyPrefix + id
}

func extractID(key string) string {
	return strings.TrimPrefix(key, keyPrefix)
}

func indexDefinition() *db.IndexDefinition {
	return &db.IndexDefinition{
		Name:     indexName,
		Prefixes: []string{keyPrefix},
		Fields: []db.IndexField{
			{Name: fieldTitle, Type: db.IndexFieldText},
			{Name: fieldFilePath, Type: db.IndexFieldTag, TagCaseSensitive: true},
			{Name: fieldStatus, Type: db.IndexFieldTag},
			{Name: fieldCategory, Type: db.IndexFieldTag},
			{Name: fieldOwnerID, Type: db.IndexFieldTag, TagCaseSensitive: true},
			{Name: fieldCreatedAt, Type: db.IndexFieldNumeric, Sortable: true},
		},
	}
}
