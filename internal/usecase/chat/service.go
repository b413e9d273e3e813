// Package chat glues retrieval, prompt assembly and the upstream stream
// into one question-answering turn.
package chat

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/policy-oracle/policyoracle/internal/domain"
	"github.com/policy-oracle/policyoracle/internal/domain/citation"
)

// Turn is the outcome of starting a chat turn: the live upstream token
// stream plus the citations backing this turn's context. The caller owns
// Stream and must close it.
type Turn struct {
	Stream    io.ReadCloser
	Citations []citation.Citation
}

// Service runs the retrieval-augmented chat flow.
type Service struct {
	retriever Retriever
	upstream  Streamer
	recorder  MessageRecorder
	logger    *zap.Logger
}

// New creates a chat service. recorder may be nil when conversation
// persistence is disabled.
func New(retriever Retriever, upstream Streamer, recorder MessageRecorder, logger *zap.Logger) *Service {
	return &Service{
		retriever: retriever,
		upstream:  upstream,
		recorder:  recorder,
		logger:    logger,
	}
}

// Chat retrieves grounding context for the latest user utterance, opens the
// upstream stream with the augmented prompt, and returns both the stream and
// the citations so the transport can emit the citation event before relaying.
func (s *Service) Chat(
	ctx context.Context, history []openai.ChatCompletionMessage, conversationID string,
) (*Turn, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: messages must not be empty", domain.ErrInvalidInput)
	}

	utterance := latestUserUtterance(history)

	res, err := s.retriever.Retrieve(ctx, utterance)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	if conversationID != "" && s.recorder != nil {
		if err := s.recorder.AppendUserMessage(ctx, conversationID, utterance); err != nil {
			s.logger.Warn("record user message",
				zap.String("conversation_id", conversationID),
				zap.Error(err),
			)
		}
	}

	stream, err := s.upstream.StreamChat(ctx, BuildMessages(res.Context, history))
	if err != nil {
		return nil, err
	}

	s.logger.Info("chat turn started",
		zap.String("conversation_id", conversationID),
		zap.Int("history_len", len(history)),
		zap.Int("citations", len(res.Citations)),
	)
	return &Turn{Stream: stream, Citations: res.Citations}, nil
}

// latestUserUtterance picks the retrieval query: the content of the last
// user-role message, falling back to the last message of any role.
func latestUserUtterance(history []openai.ChatCompletionMessage) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == openai.ChatMessageRoleUser {
			return history[i].Content
		}
	}
	return history[len(history)-1].Content
}
