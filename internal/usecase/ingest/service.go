// Package ingest implements the document ingestion pipeline: download,
// extract, chunk, persist, status lifecycle.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/policy-oracle/policyoracle/internal/domain"
	"github.com/policy-oracle/policyoracle/internal/domain/document"
	"github.com/policy-oracle/policyoracle/internal/extract"
	"github.com/policy-oracle/policyoracle/internal/metrics"
)

const defaultDownloadTimeout = 30 * time.Second

// Service orchestrates the ingestion state machine. Each Process call is a
// one-shot run: failures are terminal for that run and nothing is retried.
type Service struct {
	docs            DocumentRepository
	chunks          ChunkRepository
	blobs           BlobStore
	chunker         *Chunker
	downloadTimeout time.Duration
	logger          *zap.Logger
}

// New creates an ingestion service.
func New(docs DocumentRepository, chunks ChunkRepository, blobs BlobStore, logger *zap.Logger) *Service {
	return &Service{
		docs:            docs,
		chunks:          chunks,
		blobs:           blobs,
		chunker:         NewChunker(DefaultChunkSize, DefaultOverlap),
		downloadTimeout: defaultDownloadTimeout,
		logger:          logger,
	}
}

// WithChunker overrides the default chunker.
func (s *Service) WithChunker(c *Chunker) *Service {
	if c != nil {
		s.chunker = c
	}
	return s
}

// WithDownloadTimeout bounds the blob download round trip.
func (s *Service) WithDownloadTimeout(d time.Duration) *Service {
	if d > 0 {
		s.downloadTimeout = d
	}
	return s
}

// Register stores the uploaded bytes in the blob store and creates a
// pending document record for later processing.
func (s *Service) Register(
	ctx context.Context, title, filePath string, category, ownerID string, data []byte,
) (document.Document, error) {
	doc, err := document.New(uuid.NewString(), title, filePath, int64(len(data)), category, ownerID)
	if err != nil {
		return document.Document{}, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}

	if err := s.blobs.Upload(ctx, filePath, data); err != nil {
		return document.Document{}, fmt.Errorf("upload blob: %w", err)
	}
	if err := s.docs.Insert(ctx, doc); err != nil {
		return document.Document{}, fmt.Errorf("insert document: %w", err)
	}

	s.logger.Info("document registered",
		zap.String("document_id", doc.ID()),
		zap.String("file_path", filePath),
		zap.Int("file_size", len(data)),
	)
	return doc, nil
}

// Process runs the ingestion state machine for the document stored at
// filePath and returns the number of kept chunks.
//
// Lifecycle: pending -> processing -> processed | error. The transition to
// processing is a conditional write, so a concurrent duplicate trigger for
// the same path loses the race and gets domain.ErrAlreadyProcessing instead
// of inserting duplicate chunks.
func (s *Service) Process(ctx context.Context, filePath string) (int, error) {
	start := time.Now()

	doc, err := s.docs.GetByPath(ctx, filePath)
	if err != nil {
		return 0, fmt.Errorf("resolve document by path: %w", err)
	}

	ok, err := s.docs.BeginProcessing(ctx, doc.ID())
	if err != nil {
		return 0, fmt.Errorf("begin processing: %w", err)
	}
	if !ok {
		metrics.DocumentsProcessedTotal.WithLabelValues("conflict").Inc()
		return 0, fmt.Errorf("document %s: %w", doc.ID(), domain.ErrAlreadyProcessing)
	}

	dctx, cancel := context.WithTimeout(ctx, s.downloadTimeout)
	raw, err := s.blobs.Download(dctx, filePath)
	cancel()
	if err != nil {
		s.fail(ctx, doc.ID())
		return 0, fmt.Errorf("download blob: %w", err)
	}

	text, degraded := extract.PDFText(raw)
	if degraded {
		metrics.ExtractFallbackTotal.Inc()
		s.logger.Warn("structured extraction failed, using ASCII fallback",
			zap.String("document_id", doc.ID()),
			zap.Int("raw_bytes", len(raw)),
		)
	}

	chunks := s.chunker.Chunk(doc.ID(), text, doc.PageCount())

	if len(chunks) > 0 {
		if err := s.chunks.InsertBatch(ctx, chunks); err != nil {
			s.fail(ctx, doc.ID())
			return 0, fmt.Errorf("insert chunks: %w", err)
		}
	}

	// The recorded page count is the last kept chunk's estimate, not a
	// true total. Zero kept chunks record page count 1. Kept as-is from
	// the original pipeline.
	pageCount := 1
	if len(chunks) > 0 {
		pageCount = chunks[len(chunks)-1].PageNumber()
	}

	if err := s.docs.MarkProcessed(ctx, doc.ID(), pageCount); err != nil {
		return 0, fmt.Errorf("mark processed: %w", err)
	}

	metrics.DocumentsProcessedTotal.WithLabelValues("processed").Inc()
	metrics.ChunksCreatedTotal.Add(float64(len(chunks)))
	metrics.IngestDuration.Observe(time.Since(start).Seconds())

	s.logger.Info("document processed",
		zap.String("document_id", doc.ID()),
		zap.Int("chunks", len(chunks)),
		zap.Int("page_count", pageCount),
		zap.Bool("degraded_extraction", degraded),
		zap.Duration("took", time.Since(start)),
	)
	return len(chunks), nil
}

// List returns documents, optionally filtered by status ("" for all).
func (s *Service) List(ctx context.Context, status document.Status, limit int) ([]document.Document, error) {
	docs, err := s.docs.List(ctx, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Document returns a single document record with its stored chunk count.
func (s *Service) Document(ctx context.Context, id string) (document.Document, int, error) {
	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return document.Document{}, 0, fmt.Errorf("get document: %w", err)
	}
	chunks, err := s.chunks.CountByDocument(ctx, id)
	if err != nil {
		return document.Document{}, 0, fmt.Errorf("count chunks: %w", err)
	}
	return doc, chunks, nil
}

// Delete removes a document together with its chunks and stored bytes.
// Chunks and blob go first so a partial failure leaves the record visible
// for a retry.
func (s *Service) Delete(ctx context.Context, id string) error {
	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}

	chunks, err := s.chunks.DeleteByDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if err := s.blobs.Delete(ctx, doc.FilePath()); err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}
	if err := s.docs.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	s.logger.Info("document deleted",
		zap.String("document_id", id),
		zap.String("file_path", doc.FilePath()),
		zap.Int("chunks", chunks),
	)
	return nil
}

// Count returns the number of registered documents.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.docs.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// fail moves the document to the terminal error state, best-effort.
func (s *Service) fail(ctx context.Context, id string) {
	metrics.DocumentsProcessedTotal.WithLabelValues("error").Inc()
	if err := s.docs.MarkError(ctx, id); err != nil {
		s.logger.Error("failed to mark document as errored",
			zap.String("document_id", id),
			zap.Error(err),
		)
	}
}
