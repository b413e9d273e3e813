package chat

import (
	openai "github.com/sashabaranov/go-openai"
)

// systemPrompt constrains the model to the retrieved document context.
// The retrieval context is appended under the DOCUMENT CONTEXT heading.
const systemPrompt = `You are Policy Oracle, an AI assistant that answers questions ONLY based on provided policy documents.

RULES:
1. Answer ONLY from the provided document context below. If the context doesn't contain relevant information, say "I couldn't find information about that in the uploaded documents."
2. Always cite your sources with document name and page number.
3. Be precise and professional. This is used for compliance and governance.
4. Format your answers clearly with markdown when helpful.

DOCUMENT CONTEXT:
`

// BuildMessages prepends the grounding system message to the caller's
// conversation history. The history is forwarded as received so the model
// sees the same turns the client does.
func BuildMessages(documentContext string, history []openai.ChatCompletionMessage) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt + documentContext,
	})
	msgs = append(msgs, history...)
	return msgs
}
