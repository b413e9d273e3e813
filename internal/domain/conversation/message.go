package conversation

import (
	"fmt"
	"time"

	"github.com/policy-oracle/policyoracle/internal/domain/citation"
)

// Message is a single turn in a conversation. Assistant messages may carry
// the citation set computed when the answer was generated.
type Message struct {
	id             string
	conversationID string
	role           Role
	content        string
	citations      []citation.Citation
	createdAt      time.Time
}

// NewMessage validates and creates a Message.
func NewMessage(id, conversationID string, role Role, content string, citations []citation.Citation) (Message, error) {
	if id == "" {
		return Message{}, fmt.Errorf("message ID is required")
	}
	if conversationID == "" {
		return Message{}, fmt.Errorf("conversation ID is required")
	}
	if !role.Valid() {
		return Message{}, fmt.Errorf("invalid role %q", role)
	}
	if content == "" {
		return Message{}, fmt.Errorf("content is required")
	}

	return Message{
		id:             id,
		conversationID: conversationID,
		role:           role,
		content:        content,
		citations:      citations,
		createdAt:      time.Now().UTC(),
	}, nil
}

// ReconstructMessage creates a Message without validation (storage hydration).
func ReconstructMessage(
	id, conversationID string, role Role, content string,
	citations []citation.Citation, createdAt time.Time,
) Message {
	return Message{
		id:             id,
		conversationID: conversationID,
		role:           role,
		content:        content,
		citations:      citations,
		createdAt:      createdAt,
	}
}

// ID returns the message identifier.
func (m *Message) ID() string { return m.id }

// ConversationID returns the owning conversation's identifier.
func (m *Message) ConversationID() string { return m.conversationID }

// Role returns the message author role.
func (m *Message) Role() Role { return m.role }

// Content returns the message text.
func (m *Message) Content() string { return m.content }

// Citations returns the citation set attached to an assistant message (nil for user turns).
func (m *Message) Citations() []citation.Citation { return m.citations }

// CreatedAt returns the message timestamp.
func (m *Message) CreatedAt() time.Time { return m.createdAt }
