package conversation

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	domconv "github.com/policy-oracle/policyoracle/internal/domain/conversation"
)

// mockRepo implements Repository for tests.
type mockRepo struct {
	insertFn        func(ctx context.Context, conv domconv.Conversation) error
	getFn           func(ctx context.Context, id string) (domconv.Conversation, error)
	listByOwnerFn   func(ctx context.Context, ownerID string, limit int) ([]domconv.Conversation, error)
	insertMessageFn func(ctx context.Context, msg domconv.Message) error
	listMessagesFn  func(ctx context.Context, conversationID string, limit int) ([]domconv.Message, error)
	countConvsFn    func(ctx context.Context) (int, error)
	countMsgsFn     func(ctx context.Context) (int, error)

	insertedMessages []domconv.Message
}

func (m *mockRepo) Insert(ctx context.Context, conv domconv.Conversation) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, conv)
	}
	return nil
}

func (m *mockRepo) Get(ctx context.Context, id string) (domconv.Conversation, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return testConversation(), nil
}

func (m *mockRepo) ListByOwner(
	ctx context.Context, ownerID string, limit int,
) ([]domconv.Conversation, error) {
	if m.listByOwnerFn != nil {
		return m.listByOwnerFn(ctx, ownerID, limit)
	}
	return nil, nil
}

func (m *mockRepo) InsertMessage(ctx context.Context, msg domconv.Message) error {
	m.insertedMessages = append(m.insertedMessages, msg)
	if m.insertMessageFn != nil {
		return m.insertMessageFn(ctx, msg)
	}
	return nil
}

func (m *mockRepo) ListMessages(
	ctx context.Context, conversationID string, limit int,
) ([]domconv.Message, error) {
	if m.listMessagesFn != nil {
		return m.listMessagesFn(ctx, conversationID, limit)
	}
	return nil, nil
}

func (m *mockRepo) CountConversations(ctx context.Context) (int, error) {
	if m.countConvsFn != nil {
		return m.countConvsFn(ctx)
	}
	return 0, nil
}

func (m *mockRepo) CountMessages(ctx context.Context) (int, error) {
	if m.countMsgsFn != nil {
		return m.countMsgsFn(ctx)
	}
	return 0, nil
}

func newTestService(t *testing.T) (*Service, *mockRepo) {
	t.Helper()
	repo := &mockRepo{}
	svc := New(repo, zap.NewNop())
	return svc, repo
}

func testConversation() domconv.Conversation {
	return domconv.Reconstruct("conv-1", "owner-1", "what is the vacation policy",
		time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
}
