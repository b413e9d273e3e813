package http

import (
	"time"

	"github.com/policy-oracle/policyoracle/internal/domain/citation"
	domconv "github.com/policy-oracle/policyoracle/internal/domain/conversation"
	domdoc "github.com/policy-oracle/policyoracle/internal/domain/document"
)

type errorCode string

const (
	codeBadRequest           errorCode = "bad_request"
	codeValidationFailed     errorCode = "validation_failed"
	codeDocumentNotFound     errorCode = "document_not_found"
	codeConversationNotFound errorCode = "conversation_not_found"
	codeAlreadyProcessing    errorCode = "already_processing"
	codeRateLimited          errorCode = "rate_limited"
	codeQuotaExceeded        errorCode = "quota_exceeded"
	codeUpstreamError        errorCode = "upstream_error"
	codeInternalError        errorCode = "internal_error"
)

// errorResponse carries a machine-readable code and message. The error
// field duplicates the message under the key older clients read.
type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
	Error   string    `json:"error"`
}

type registerDocumentRequest struct {
	Title      string `json:"title"`
	FilePath   string `json:"file_path"`
	Category   string `json:"category,omitempty"`
	OwnerID    string `json:"owner_id,omitempty"`
	ContentB64 string `json:"content_b64"`
}

type registerDocumentResponse struct {
	ID       string `json:"id"`
	FilePath string `json:"file_path"`
	Status   string `json:"status"`
}

// processDocumentRequest uses the camelCase key the processing trigger has
// always been invoked with.
type processDocumentRequest struct {
	FilePath string `json:"filePath"`
}

type processDocumentResponse struct {
	Success bool `json:"success"`
	Chunks  int  `json:"chunks"`
}

type documentItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	FilePath  string    `json:"file_path"`
	FileSize  int64     `json:"file_size"`
	PageCount int       `json:"page_count"`
	Status    string    `json:"status"`
	Category  string    `json:"category,omitempty"`
	OwnerID   string    `json:"owner_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func documentToItem(d domdoc.Document) documentItem {
	return documentItem{
		ID:        d.ID(),
		Title:     d.Title(),
		FilePath:  d.FilePath(),
		FileSize:  d.FileSize(),
		PageCount: d.PageCount(),
		Status:    string(d.Status()),
		Category:  d.Category(),
		OwnerID:   d.OwnerID(),
		CreatedAt: d.CreatedAt().UTC(),
	}
}

type documentListResponse struct {
	Items []documentItem `json:"items"`
}

// documentDetailResponse is a document record plus its stored chunk count.
type documentDetailResponse struct {
	documentItem
	Chunks int `json:"chunks"`
}

type statsResponse struct {
	Documents     int `json:"documents"`
	Conversations int `json:"conversations"`
	Messages      int `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages       []chatMessage `json:"messages"`
	ConversationID string        `json:"conversationId,omitempty"`
}

type createConversationRequest struct {
	OwnerID string `json:"owner_id"`
	Message string `json:"message"`
}

type conversationItem struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

func conversationToItem(c domconv.Conversation) conversationItem {
	return conversationItem{
		ID:        c.ID(),
		OwnerID:   c.OwnerID(),
		Title:     c.Title(),
		CreatedAt: c.CreatedAt().UTC(),
	}
}

type conversationListResponse struct {
	Items []conversationItem `json:"items"`
}

type appendMessageRequest struct {
	Role      string              `json:"role"`
	Content   string              `json:"content"`
	Citations []citation.Citation `json:"citations,omitempty"`
}

type messageItem struct {
	ID             string              `json:"id"`
	ConversationID string              `json:"conversation_id"`
	Role           string              `json:"role"`
	Content        string              `json:"content"`
	Citations      []citation.Citation `json:"citations,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

func messageToItem(m domconv.Message) messageItem {
	return messageItem{
		ID:             m.ID(),
		ConversationID: m.ConversationID(),
		Role:           string(m.Role()),
		Content:        m.Content(),
		Citations:      m.Citations(),
		CreatedAt:      m.CreatedAt().UTC(),
	}
}

type messageListResponse struct {
	Items []messageItem `json:"items"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
