package conversation

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/policy-oracle/policyoracle/internal/domain/citation"
	domconv "github.com/policy-oracle/policyoracle/internal/domain/conversation"
)

// Hash field names. The FT index schemas in repo.go mirror these.
const (
	fieldOwnerID        = "owner_id"
	fieldTitle          = "title"
	fieldCreatedAt      = "created_at"
	fieldConversationID = "conversation_id"
	fieldRole           = "role"
	fieldContent        = "content"
	fieldCitations      = "citations"
)

func buildConvFields(c *domconv.Conversation) map[string]string {
	return map[string]string{
		fieldOwnerID:   c.OwnerID(),
		fieldTitle:     c.Title(),
		fieldCreatedAt: strconv.FormatInt(c.CreatedAt().UnixMilli(), 10),
	}
}

func parseConvFields(id string, m map[string]string) domconv.Conversation {
	createdMs, _ := strconv.ParseInt(m[fieldCreatedAt], 10, 64)
	return domconv.Reconstruct(id, m[fieldOwnerID], m[fieldTitle], time.UnixMilli(createdMs).UTC())
}

func buildMsgFields(msg *domconv.Message) (map[string]string, error) {
	fields := map[string]string{
		fieldConversationID: msg.ConversationID(),
		fieldRole:           string(msg.Role()),
		fieldContent:        msg.Content(),
		fieldCreatedAt:      strconv.FormatInt(msg.CreatedAt().UnixMilli(), 10),
	}

	if cits := msg.Citations(); len(cits) > 0 {
		data, err := json.Marshal(cits)
		if err != nil {
			return nil, fmt.Errorf("marshal citations: %w", err)
		}
		fields[fieldCitations] = string(data)
	}

	return fields, nil
}

func parseMsgFields(id string, m map[string]string) (domconv.Message, error) {
	createdMs, _ := strconv.ParseInt(m[fieldCreatedAt], 10, 64)

	var cits []citation.Citation
	if raw := m[fieldCitations]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &cits); err != nil {
			return domconv.Message{}, fmt.Errorf("unmarshal citations for %s: %w", id, err)
		}
	}

	return domconv.ReconstructMessage(
		id,
		m[fieldConversationID],
		domconv.Role(m[fieldRole]),
		m[fieldContent],
		cits,
		time.UnixMilli(createdMs).UTC(),
	), nil
}
