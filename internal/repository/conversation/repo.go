// Package conversation persists conversations and their messages.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/policy-oracle/policyoracle/internal/db"
	"github.com/policy-oracle/policyoracle/internal/domain"
	domconv "github.com/policy-oracle/policyoracle/internal/domain/conversation"
)

const (
	convKeyPrefix = "conv:"
	msgKeyPrefix  = "msg:"
	convIndexName = "idx:conversations"
	msgIndexName  = "idx:messages"
)

// store is the consumer interface for conversation persistence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Exists(ctx context.Context, key string) (bool, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
}

// Repo implements the conversation usecase's Repository.
type Repo struct {
	store store
}

// New creates a conversation repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// EnsureIndexes creates the conversation and message FT indexes if absent.
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	for _, def := range []*db.IndexDefinition{convIndexDefinition(), msgIndexDefinition()} {
		if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
			return fmt.Errorf("create index %s: %w", def.Name, err)
		}
	}
	return nil
}

// Insert stores a new conversation.
func (r *Repo) Insert(ctx context.Context, conv domconv.Conversation) error {
	if err := r.store.HSet(ctx, convKey(conv.ID()), buildConvFields(&conv)); err != nil {
		return fmt.Errorf("hset %s: %w", convKey(conv.ID()), err)
	}
	return nil
}

// Get returns a conversation by ID.
func (r *Repo) Get(ctx context.Context, id string) (domconv.Conversation, error) {
	m, err := r.store.HGetAll(ctx, convKey(id))
	if err != nil {
		return domconv.Conversation{}, fmt.Errorf("hgetall %s: %w", convKey(id), err)
	}
	if len(m) == 0 {
		return domconv.Conversation{}, domain.ErrConversationNotFound
	}
	return parseConvFields(id, m), nil
}

// ListByOwner returns a user's conversations, newest first.
func (r *Repo) ListByOwner(ctx context.Context, ownerID string, limit int) ([]domconv.Conversation, error) {
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf("@owner_id:{%s}", db.EscapeTag(ownerID))
	result, err := r.store.SearchList(ctx, convIndexName, query, 0, limit, nil)
	if err != nil {
		return nil, fmt.Errorf("search conversations: %w", err)
	}
	if result == nil {
		return nil, nil
	}

	convs := make([]domconv.Conversation, 0, len(result.Entries))
	for _, entry := range result.Entries {
		convs = append(convs, parseConvFields(strings.TrimPrefix(entry.Key, convKeyPrefix), entry.Fields))
	}
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].CreatedAt().After(convs[j].CreatedAt())
	})
	return convs, nil
}

// InsertMessage appends a message to a conversation.
func (r *Repo) InsertMessage(ctx context.Context, msg domconv.Message) error {
	fields, err := buildMsgFields(&msg)
	if err != nil {
		return err
	}
	if err := r.store.HSet(ctx, msgKey(msg.ID()), fields); err != nil {
		return fmt.Errorf("hset %s: %w", msgKey(msg.ID()), err)
	}
	return nil
}

// ListMessages returns a conversation's messages in chronological order.
// The search backend does not guarantee order, so ordering happens here;
// timestamps tie-break on message ID for stability.
func (r *Repo) ListMessages(ctx context.Context, conversationID string, limit int) ([]domconv.Message, error) {
	if limit <= 0 {
		limit = 200
	}

	query := fmt.Sprintf("@conversation_id:{%s}", db.EscapeTag(conversationID))
	result, err := r.store.SearchList(ctx, msgIndexName, query, 0, limit, nil)
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	if result == nil {
		return nil, nil
	}

	msgs := make([]domconv.Message, 0, len(result.Entries))
	for _, entry := range result.Entries {
		msg, err := parseMsgFields(strings.TrimPrefix(entry.Key, msgKeyPrefix), entry.Fields)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}

	sort.Slice(msgs, func(i, j int) bool {
		ti, tj := msgs[i].CreatedAt(), msgs[j].CreatedAt()
		if ti.Equal(tj) {
			return msgs[i].ID() < msgs[j].ID()
		}
		return ti.Before(tj)
	})
	return msgs, nil
}

// CountConversations returns the total number of stored conversations.
func (r *Repo) CountConversations(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, convIndexName, "*")
	if err != nil {
		return 0, fmt.Errorf("count conversations: %w", err)
	}
	return n, nil
}

// CountMessages returns the total number of stored messages.
func (r *Repo) CountMessages(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, msgIndexName, "*")
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

func convKey(id string) string {
	return convKeyPrefix + id
}

func msgKey(id string) string {
	return msgKeyPrefix + id
}

func convIndexDefinition() *db.IndexDefinition {
	return &db.IndexDefinition{
		Name:     convIndexName,
		Prefixes: []string{convKeyPrefix},
		Fields: []db.IndexField{
			{Name: fieldOwnerID, Type: db.IndexFieldTag, TagCaseSensitive: true},
			{Name: fieldCreatedAt, Type: db.IndexFieldNumeric, Sortable: true},
		},
	}
}

func msgIndexDefinition() *db.IndexDefinition {
	return &db.IndexDefinition{
		Name:     msgIndexName,
		Prefixes: []string{msgKeyPrefix},
		Fields: []db.IndexField{
			{Name: fieldConversationID, Type: db.IndexFieldTag, TagCaseSensitive: true},
			{Name: fieldRole, Type: db.IndexFieldTag},
			{Name: fieldCreatedAt, Type: db.IndexFieldNumeric, Sortable: true},
		},
	}
}
