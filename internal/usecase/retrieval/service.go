// Package retrieval turns the latest user utterance into a keyword query
// and builds the context block and citation list for the answering model.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/policy-oracle/policyoracle/internal/domain/chunk"
	"github.com/policy-oracle/policyoracle/internal/domain/citation"
	"github.com/policy-oracle/policyoracle/internal/metrics"
)

const (
	// MaxQueryTerms caps how many leading utterance tokens form the query.
	MaxQueryTerms = 5
	// MaxMatches caps how many chunks feed the context block.
	MaxMatches = 5

	// NoDocumentsContext replaces the context block when nothing matched,
	// steering the model toward the canonical refusal instead of
	// hallucinating an answer.
	NoDocumentsContext = "No documents have been uploaded or indexed yet. " +
		"Please let the user know they need to upload documents first."

	defaultSearchTimeout = 5 * time.Second
)

// Result is the retrieval output fed into prompt assembly.
type Result struct {
	Context   string
	Citations []citation.Citation
}

// Service is the retrieval engine.
type Service struct {
	chunks        ChunkSearcher
	docs          TitleResolver
	searchTimeout time.Duration
	logger        *zap.Logger
}

// New creates a retrieval service.
func New(chunks ChunkSearcher, docs TitleResolver, logger *zap.Logger) *Service {
	return &Service{
		chunks:        chunks,
		docs:          docs,
		searchTimeout: defaultSearchTimeout,
		logger:        logger,
	}
}

// WithSearchTimeout bounds each search round trip.
func (s *Service) WithSearchTimeout(d time.Duration) *Service {
	if d > 0 {
		s.searchTimeout = d
	}
	return s
}

// Retrieve searches chunks matching the utterance and assembles the context
// block and citation list, both possibly empty.
func (s *Service) Retrieve(ctx context.Context, utterance string) (Result, error) {
	query := buildQuery(utterance)
	if query == "" {
		return Result{Context: NoDocumentsContext}, nil
	}

	sctx, cancel := context.WithTimeout(ctx, s.searchTimeout)
	matches, err := s.chunks.Search(sctx, query, MaxMatches)
	cancel()
	if err != nil {
		return Result{}, fmt.Errorf("search chunks: %w", err)
	}

	metrics.RetrievalHits.Observe(float64(len(matches)))

	if len(matches) == 0 {
		s.logger.Debug("no chunks matched", zap.String("query", query))
		return Result{Context: NoDocumentsContext}, nil
	}

	// The backend's tie-break among equal scores is unspecified; impose a
	// deterministic order: score desc, then document id, then chunk index.
	sortMatches(matches)

	ids := distinctDocumentIDs(matches)

	tctx, cancel := context.WithTimeout(ctx, s.searchTimeout)
	titles, err := s.docs.Titles(tctx, ids)
	cancel()
	if err != nil {
		return Result{}, fmt.Errorf("resolve titles: %w", err)
	}

	var b strings.Builder
	citations := make([]citation.Citation, 0, len(matches))

	for i := range matches {
		c := &matches[i].Chunk
		title := titles[c.DocumentID()]
		if title == "" {
			title = "Unknown Document"
		}

		b.WriteString("\n---\nSource: ")
		b.WriteString(title)
		b.WriteString(", Page ")
		b.WriteString(orNA(c.PageNumber()))
		b.WriteString(", Section: ")
		if c.SectionTitle() != "" {
			b.WriteString(c.SectionTitle())
		} else {
			b.WriteString("N/A")
		}
		b.WriteByte('\n')
		b.WriteString(c.Content())
		b.WriteByte('\n')

		citations = append(citations, citation.FromChunk(title, *c))
	}

	return Result{Context: b.String(), Citations: citations}, nil
}

// buildQuery takes the first MaxQueryTerms whitespace-separated tokens of
// the utterance. The search driver AND-joins and escapes them.
func buildQuery(utterance string) string {
	tokens := strings.Fields(utterance)
	if len(tokens) > MaxQueryTerms {
		tokens = tokens[:MaxQueryTerms]
	}
	return strings.Join(tokens, " ")
}

func sortMatches(matches []chunk.Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		di, dj := matches[i].Chunk.DocumentID(), matches[j].Chunk.DocumentID()
		if di != dj {
			return di < dj
		}
		return matches[i].Chunk.ChunkIndex() < matches[j].Chunk.ChunkIndex()
	})
}

func distinctDocumentIDs(matches []chunk.Match) []string {
	seen := make(map[string]struct{}, len(matches))
	ids := make([]string, 0, len(matches))
	for i := range matches {
		id := matches[i].Chunk.DocumentID()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func orNA(page int) string {
	if page <= 0 {
		return "N/A"
	}
	return strconv.Itoa(page)
}
