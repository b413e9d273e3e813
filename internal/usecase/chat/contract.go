package chat

import (
	"context"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/policy-oracle/policyoracle/internal/usecase/retrieval"
)

// Retriever resolves a user utterance into grounding context and citations.
type Retriever interface {
	Retrieve(ctx context.Context, utterance string) (retrieval.Result, error)
}

// Streamer opens a streaming completion against the upstream model.
type Streamer interface {
	StreamChat(ctx context.Context, messages []openai.ChatCompletionMessage) (io.ReadCloser, error)
}

// MessageRecorder persists a conversation turn. Recording is best effort
// from the chat path's point of view.
type MessageRecorder interface {
	AppendUserMessage(ctx context.Context, conversationID, content string) error
}
