// Package http exposes the service over a chi router: document
// registration and processing, the streaming chat endpoint, and
// conversation history.
package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/policy-oracle/policyoracle/internal/domain"
	domconv "github.com/policy-oracle/policyoracle/internal/domain/conversation"
	domdoc "github.com/policy-oracle/policyoracle/internal/domain/document"
	logpkg "github.com/policy-oracle/policyoracle/internal/logger"
	"github.com/policy-oracle/policyoracle/internal/relay"
	chatuc "github.com/policy-oracle/policyoracle/internal/usecase/chat"
	conversationuc "github.com/policy-oracle/policyoracle/internal/usecase/conversation"
	ingestuc "github.com/policy-oracle/policyoracle/internal/usecase/ingest"
)

const defaultDocumentListLimit = 100

// Pinger reports backing-store liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the use case services behind the HTTP API.
type Server struct {
	ingest        *ingestuc.Service
	chat          *chatuc.Service
	conversations *conversationuc.Service
	pinger        Pinger
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ingest *ingestuc.Service,
	chat *chatuc.Service,
	conversations *conversationuc.Service,
	pinger Pinger,
	logger *zap.Logger,
) *Server {
	s := &Server{
		ingest:        ingest,
		chat:          chat,
		conversations: conversations,
		pinger:        pinger,
		logger:        logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, codeDocumentNotFound),
		sentinelHandler(domain.ErrBlobNotFound, http.StatusNotFound, codeDocumentNotFound),
		sentinelHandler(domain.ErrConversationNotFound, http.StatusNotFound, codeConversationNotFound),
		sentinelHandler(domain.ErrAlreadyProcessing, http.StatusConflict, codeAlreadyProcessing),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrQuotaExceeded, http.StatusPaymentRequired, codeQuotaExceeded),
		sentinelHandler(domain.ErrUpstreamError, http.StatusInternalServerError, codeUpstreamError),
	}
	return s
}

// Routes mounts every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/documents", s.RegisterDocument)
		r.Post("/documents/process", s.ProcessDocument)
		r.Get("/documents", s.ListDocuments)
		r.Get("/documents/{id}", s.GetDocument)
		r.Delete("/documents/{id}", s.DeleteDocument)
		r.Get("/stats", s.Stats)
		r.Post("/chat", s.Chat)
		r.Post("/conversations", s.CreateConversation)
		r.Get("/conversations", s.ListConversations)
		r.Get("/conversations/{id}/messages", s.ListMessages)
		r.Post("/conversations/{id}/messages", s.AppendMessage)
	})
}

// RegisterDocument handles POST /v1/documents.
func (s *Server) RegisterDocument(w http.ResponseWriter, r *http.Request) {
	var req registerDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Title == "" || req.FilePath == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "title and file_path are required")
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.ContentB64)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "content_b64 is not valid base64")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "content_b64 must not be empty")
		return
	}

	doc, err := s.ingest.Register(r.Context(), req.Title, req.FilePath, req.Category, req.OwnerID, data)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerDocumentResponse{
		ID:       doc.ID(),
		FilePath: doc.FilePath(),
		Status:   string(doc.Status()),
	})
}

// ProcessDocument handles POST /v1/documents/process.
func (s *Server) ProcessDocument(w http.ResponseWriter, r *http.Request) {
	var req processDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.FilePath == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "filePath is required")
		return
	}

	chunks, err := s.ingest.Process(r.Context(), req.FilePath)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, processDocumentResponse{Success: true, Chunks: chunks})
}

// ListDocuments handles GET /v1/documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	var status domdoc.Status
	if q := r.URL.Query().Get("status"); q != "" {
		status = domdoc.Status(q)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "unknown status filter")
			return
		}
	}

	docs, err := s.ingest.List(r.Context(), status, defaultDocumentListLimit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]documentItem, len(docs))
	for i, d := range docs {
		items[i] = documentToItem(d)
	}
	writeJSON(w, http.StatusOK, documentListResponse{Items: items})
}

// GetDocument handles GET /v1/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, chunks, err := s.ingest.Document(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentDetailResponse{
		documentItem: documentToItem(doc),
		Chunks:       chunks,
	})
}

// DeleteDocument handles DELETE /v1/documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.ingest.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /v1/stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	docs, err := s.ingest.Count(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	convs, msgs, err := s.conversations.Counts(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Documents:     docs,
		Conversations: convs,
		Messages:      msgs,
	})
}

// Chat handles POST /v1/chat. On success the response is a server-sent
// event stream; errors before the first byte are plain JSON.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "messages must not be empty")
		return
	}

	history := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		history[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	turn, err := s.chat.Chat(r.Context(), history, req.ConversationID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	defer func() { _ = turn.Stream.Close() }()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := relay.Stream(w, turn.Stream, turn.Citations); err != nil {
		// Headers are gone; nothing to send the client but the log.
		logpkg.FromContext(r.Context()).Warn("chat relay interrupted", zap.Error(err))
	}
}

// CreateConversation handles POST /v1/conversations.
func (s *Server) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.OwnerID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "owner_id is required")
		return
	}

	conv, err := s.conversations.Create(r.Context(), req.OwnerID, req.Message)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, conversationToItem(conv))
}

// ListConversations handles GET /v1/conversations.
func (s *Server) ListConversations(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "owner_id query parameter is required")
		return
	}

	convs, err := s.conversations.ListByOwner(r.Context(), ownerID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]conversationItem, len(convs))
	for i, c := range convs {
		items[i] = conversationToItem(c)
	}
	writeJSON(w, http.StatusOK, conversationListResponse{Items: items})
}

// ListMessages handles GET /v1/conversations/{id}/messages.
func (s *Server) ListMessages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	msgs, err := s.conversations.Messages(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]messageItem, len(msgs))
	for i, m := range msgs {
		items[i] = messageToItem(m)
	}
	writeJSON(w, http.StatusOK, messageListResponse{Items: items})
}

// AppendMessage handles POST /v1/conversations/{id}/messages.
func (s *Server) AppendMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req appendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	role := domconv.Role(req.Role)
	if !role.Valid() {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "role must be user or assistant")
		return
	}

	msg, err := s.conversations.Append(r.Context(), id, role, req.Content, req.Citations)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageToItem(msg))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"database": "ok"}
	status, httpStatus := "healthy", http.StatusOK

	if err := s.pinger.Ping(r.Context()); err != nil {
		checks["database"] = "unreachable"
		status, httpStatus = "unhealthy", http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{Status: status, Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message, Error: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidInput,
		domain.ErrDocumentNotFound,
		domain.ErrBlobNotFound,
		domain.ErrConversationNotFound,
		domain.ErrAlreadyProcessing,
		domain.ErrRateLimited,
		domain.ErrQuotaExceeded,
		domain.ErrUpstreamError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
