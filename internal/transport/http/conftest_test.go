package http

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/policy-oracle/policyoracle/internal/domain/chunk"
	domconv "github.com/policy-oracle/policyoracle/internal/domain/conversation"
	"github.com/policy-oracle/policyoracle/internal/domain/document"
	chatuc "github.com/policy-oracle/policyoracle/internal/usecase/chat"
	conversationuc "github.com/policy-oracle/policyoracle/internal/usecase/conversation"
	ingestuc "github.com/policy-oracle/policyoracle/internal/usecase/ingest"
	"github.com/policy-oracle/policyoracle/internal/usecase/retrieval"
)

// --- Ingest mocks ---

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
}

func (m *mockChunkRepo) InsertBatch(ctx context.Context, chunks []chunk.Chunk) error {
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

// --- Chat mocks ---

type mockRetriever struct {
	result retrieval.Result
	err    error
}

func (m *mockRetriever) Retrieve(context.Context, string) (retrieval.Result, error) {
	return m.result, m.err
}

type mockStreamer struct {
	lastMessages []openai.ChatCompletionMessage
	body         string
	err          error
}

func (m *mockStreamer) StreamChat(_ context.Context, messages []openai.ChatCompletionMessage) (io.ReadCloser, error) {
	m.lastMessages = messages
	if m.err != nil {
		return nil, m.err
	}
	return io.NopCloser(strings.NewReader(m.body)), nil
}

// --- Conversation mock ---

type mockConvRepo struct {
	insertFn      func(ctx context.Context, conv domconv.Conversation) error
	getFn         func(ctx context.Context, id string) (domconv.Conversation, error)
	listByOwnerFn func(ctx context.Context, ownerID string, limit int) ([]domconv.Conversation, error)
	insertMsgFn   func(ctx context.Context, msg domconv.Message) error
	listMsgFn     func(ctx context.Context, conversationID string, limit int) ([]domconv.Message, error)
	countConvsFn  func(ctx context.Context) (int, error)
	countMsgsFn   func(ctx context.Context) (int, error)
}

func (m *mockConvRepo) Insert(ctx context.Context, conv domconv.Conversation) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, conv)
	}
	return nil
}

func (m *mockConvRepo) Get(ctx context.Context, id string) (domconv.Conversation, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return domconv.Reconstruct(id, "owner-1", "Test", time.Now()), nil
}

func (m *mockConvRepo) ListByOwner(ctx context.Context, ownerID string, limit int) ([]domconv.Conversation, error) {
	if m.listByOwnerFn != nil {
		return m.listByOwnerFn(ctx, ownerID, limit)
	}
	return nil, nil
}

func (m *mockConvRepo) InsertMessage(ctx context.Context, msg domconv.Message) error {
	if m.insertMsgFn != nil {
		return m.insertMsgFn(ctx, msg)
	}
	return nil
}

func (m *mockConvRepo) ListMessages(ctx context.Context, conversationID string, limit int) ([]domconv.Message, error) {
	if m.listMsgFn != nil {
		return m.listMsgFn(ctx, conversationID, limit)
	}
	return nil, nil
}

func (m *mockConvRepo) CountConversations(ctx context.Context) (int, error) {
	if m.countConvsFn != nil {
		return m.countConvsFn(ctx)
	}
	return 0, nil
}

func (m *mockConvRepo) CountMessages(ctx context.Context) (int, error) {
	if m.countMsgsFn != nil {
		return m.countMsgsFn(ctx)
	}
	return 0, nil
}

type mockPinger struct{ err error }

func (m *mockPinger) Ping(context.Context) error { return m.err }

// --- Fixture ---

type fixture struct {
	docs      *mockDocRepo
	chunks    *mockChunkRepo
	blobs     *mockBlobStore
	retriever *mockRetriever
	streamer  *mockStreamer
	convs     *mockConvRepo
	pinger    *mockPinger
	router    chi.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		docs:      &mockDocRepo{},
		chunks:    &mockChunkRepo{},
		blobs:     &mockBlobStore{},
		retriever: &mockRetriever{},
		streamer:  &mockStreamer{},
		convs:     &mockConvRepo{},
		pinger:    &mockPinger{},
	}

	logger := zap.NewNop()
	ingestSvc := ingestuc.New(f.docs, f.chunks, f.blobs, logger)
	convSvc := conversationuc.New(f.convs, logger)
	chatSvc := chatuc.New(f.retriever, f.streamer, convSvc, logger)

	server := NewServer(ingestSvc, chatSvc, convSvc, f.pinger, logger)
	f.router = chi.NewRouter()
	server.Routes(f.router)
	return f
}
