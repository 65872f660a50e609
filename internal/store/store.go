// Package store defines the remote document-store contract the sync
// components run against, plus the MongoDB implementation. Live
// queries are exposed as feeds: lazy, non-restartable sequences of
// full result-set snapshots with an explicit release operation.
package store

import (
	"context"
	"time"

	"github.com/VehanRajintha/ChatX/internal/models"
)

// ConversationStore persists two-party conversation records.
type ConversationStore interface {
	Get(ctx context.Context, id string) (*models.Conversation, error)
	// FindByMember is a one-shot membership query.
	FindByMember(ctx context.Context, userID string) ([]models.Conversation, error)
	Create(ctx context.Context, c *models.Conversation) (string, error)
	UpdateLastMessage(ctx context.Context, id, text string, at time.Time) error
	// WatchByMember opens a live membership query. The caller owns the
	// returned feed and must Close it when the consuming context ends.
	WatchByMember(ctx context.Context, userID string) (*ConversationFeed, error)
}

// MessageStore persists messages, addressed by containment in a
// conversation.
type MessageStore interface {
	Insert(ctx context.Context, m *models.Message) (string, error)
	// SoftDelete adds userID to the message's deletion set. The update
	// is an additive set union, so concurrent soft-deletes by different
	// users and repeated soft-deletes by one user are both safe.
	SoftDelete(ctx context.Context, id, userID string) error
	// Delete removes the message for everyone. Sender-only restriction
	// is the store's access policy, not enforced here.
	Delete(ctx context.Context, id string) error
	// WatchByConversation opens a live containment query ordered by
	// timestamp ascending, document id ascending on ties.
	WatchByConversation(ctx context.Context, conversationID string) (*MessageFeed, error)
}

// UserStore persists profile documents. Get returns apperr.ErrNotFound
// for an unknown id.
type UserStore interface {
	Get(ctx context.Context, id string) (*models.User, error)
	// List returns every profile, ordered by display name then id.
	// Visibility filtering is the caller's concern.
	List(ctx context.Context) ([]models.User, error)
	// Upsert merges the given document into the stored one, creating it
	// if absent.
	Upsert(ctx context.Context, u *models.User) error
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
}
