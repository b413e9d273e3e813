package chat

import (
	"context"
	"io"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/policy-oracle/policyoracle/internal/usecase/retrieval"
)

// mockRetriever implements Retriever for tests.
type mockRetriever struct {
	retrieveFn    func(ctx context.Context, utterance string) (retrieval.Result, error)
	lastUtterance string
}

func (m *mockRetriever) Retrieve(ctx context.Context, utterance string) (retrieval.Result, error) {
	m.lastUtterance = utterance
	if m.retrieveFn != nil {
		return m.retrieveFn(ctx, utterance)
	}
	return retrieval.Result{Context: retrieval.NoDocumentsContext}, nil
}

// mockStreamer implements Streamer for tests.
type mockStreamer struct {
	streamChatFn func(ctx context.Context, messages []openai.ChatCompletionMessage) (io.ReadCloser, error)
	lastMessages []openai.ChatCompletionMessage
}

func (m *mockStreamer) StreamChat(
	ctx context.Context, messages []openai.ChatCompletionMessage,
) (io.ReadCloser, error) {
	m.lastMessages = messages
	if m.streamChatFn != nil {
		return m.streamChatFn(ctx, messages)
	}
	return io.NopCloser(strings.NewReader("data: [DONE]\n\n")), nil
}

// mockRecorder implements MessageRecorder for tests.
type mockRecorder struct {
	appendFn    func(ctx context.Context, conversationID, content string) error
	lastConvID  string
	lastContent string
	calls       int
}

func (m *mockRecorder) AppendUserMessage(ctx context.Context, conversationID, content string) error {
	m.calls++
	m.lastConvID = conversationID
	m.lastContent = content
	if m.appendFn != nil {
		return m.appendFn(ctx, conversationID, content)
	}
	return nil
}

func newTestService(t *testing.T) (*Service, *mockRetriever, *mockStreamer, *mockRecorder) {
	t.Helper()
	retriever := &mockRetriever{}
	streamer := &mockStreamer{}
	recorder := &mockRecorder{}
	svc := New(retriever, streamer, recorder, zap.NewNop())
	return svc, retriever, streamer, recorder
}

func userMsg(content string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: content}
}

func assistantMsg(content string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}
}
