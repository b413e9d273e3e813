// Package conversation holds the Conversation and Message entities.
package conversation

import (
	"fmt"
	"time"
)

// MaxTitleLen bounds conversation titles; new conversations take the first
// user utterance truncated to this length.
const MaxTitleLen = 80

// Role identifies the author of a message.
type Role string

const (
	// RoleUser is an end-user message.
	RoleUser Role = "user"
	// RoleAssistant is a model reply.
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Conversation is a chat thread owned by a single user.
type Conversation struct {
	id        string
	ownerID   string
	title     string
	createdAt time.Time
}

// New validates and creates a Conversation, deriving the title from the
// opening utterance.
func New(id, ownerID, openingUtterance string) (Conversation, error) {
	if id == "" {
		return Conversation{}, fmt.Errorf("conversation ID is required")
	}
	if ownerID == "" {
		return Conversation{}, fmt.Errorf("owner ID is required")
	}

	title := openingUtterance
	if len(title) > MaxTitleLen {
		title = title[:MaxTitleLen]
	}
	if title == "" {
		title = "New conversation"
	}

	return Conversation{
		id:        id,
		ownerID:   ownerID,
		title:     title,
		createdAt: time.Now().UTC(),
	}, nil
}

// Reconstruct creates a Conversation without validation (storage hydration).
func Reconstruct(id, ownerID, title string, createdAt time.Time) Conversation {
	return Conversation{id: id, ownerID: ownerID, title: title, createdAt: createdAt}
}

// ID returns the conversation identifier.
func (c *Conversation) ID() string { return c.id }

// OwnerID returns the owning user's identifier.
func (c *Conversation) OwnerID() string { return c.ownerID }

// Title returns the display title.
func (c *Conversation) Title() string { return c.title }

// CreatedAt returns the creation timestamp.
func (c *Conversation) CreatedAt() time.Time { return c.createdAt }
