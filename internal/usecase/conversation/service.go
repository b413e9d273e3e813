// Package conversation manages chat history: conversations and the
// messages exchanged within them.
package conversation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/policy-oracle/policyoracle/internal/domain"
	"github.com/policy-oracle/policyoracle/internal/domain/citation"
	domconv "github.com/policy-oracle/policyoracle/internal/domain/conversation"
)

const (
	// DefaultListLimit bounds conversation listings per owner.
	DefaultListLimit = 50
	// DefaultMessageLimit bounds message listings per conversation.
	DefaultMessageLimit = 200
)

// Service exposes conversation lifecycle operations.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// New creates a conversation service.
func New(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create starts a new conversation for ownerID, titled from the opening
// utterance.
func (s *Service) Create(ctx context.Context, ownerID, openingUtterance string) (domconv.Conversation, error) {
	conv, err := domconv.New(uuid.NewString(), ownerID, openingUtterance)
	if err != nil {
		return domconv.Conversation{}, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}
	if err := s.repo.Insert(ctx, conv); err != nil {
		return domconv.Conversation{}, fmt.Errorf("insert conversation: %w", err)
	}

	s.logger.Info("conversation created",
		zap.String("conversation_id", conv.ID()),
		zap.String("owner_id", ownerID),
	)
	return conv, nil
}

// Get returns a single conversation by id.
func (s *Service) Get(ctx context.Context, id string) (domconv.Conversation, error) {
	return s.repo.Get(ctx, id)
}

// ListByOwner returns the owner's conversations, newest first.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]domconv.Conversation, error) {
	return s.repo.ListByOwner(ctx, ownerID, DefaultListLimit)
}

// Messages returns a conversation's messages in chronological order.
func (s *Service) Messages(ctx context.Context, conversationID string) ([]domconv.Message, error) {
	if _, err := s.repo.Get(ctx, conversationID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, conversationID, DefaultMessageLimit)
}

// Append records a message in an existing conversation.
func (s *Service) Append(
	ctx context.Context, conversationID string, role domconv.Role, content string, citations []citation.Citation,
) (domconv.Message, error) {
	if _, err := s.repo.Get(ctx, conversationID); err != nil {
		return domconv.Message{}, err
	}

	msg, err := domconv.NewMessage(uuid.NewString(), conversationID, role, content, citations)
	if err != nil {
		return domconv.Message{}, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}
	if err := s.repo.InsertMessage(ctx, msg); err != nil {
		return domconv.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return msg, nil
}

// Counts returns the total number of conversations and messages across
// all owners.
func (s *Service) Counts(ctx context.Context) (conversations, messages int, err error) {
	conversations, err = s.repo.CountConversations(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("count conversations: %w", err)
	}
	messages, err = s.repo.CountMessages(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("count messages: %w", err)
	}
	return conversations, messages, nil
}

// AppendUserMessage records a user turn without citations. It satisfies the
// chat flow's recorder dependency.
func (s *Service) AppendUserMessage(ctx context.Context, conversationID, content string) error {
	_, err := s.Append(ctx, conversationID, domconv.RoleUser, content, nil)
	return err
}
