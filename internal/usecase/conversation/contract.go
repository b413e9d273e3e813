package conversation

import (
	"context"

	domconv "github.com/policy-oracle/policyoracle/internal/domain/conversation"
)

// Repository is the persistence surface the conversation service needs.
type Repository interface {
	Insert(ctx context.Context, conv domconv.Conversation) error
	Get(ctx context.Context, id string) (domconv.Conversation, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]domconv.Conversation, error)
	InsertMessage(ctx context.Context, msg domconv.Message) error
	ListMessages(ctx context.Context, conversationID string, limit int) ([]domconv.Message, error)
	CountConversations(ctx context.Context) (int, error)
	CountMessages(ctx context.Context) (int, error)
}
