// Package compose holds the local draft state for one open
// conversation view and performs the send and delete mutations.
package compose

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/VehanRajintha/ChatX/internal/auth"
	"github.com/VehanRajintha/ChatX/internal/events"
	"github.com/VehanRajintha/ChatX/internal/models"
	"github.com/VehanRajintha/ChatX/internal/store"
)

// ErrEmptyDraft rejects a send whose trimmed text is empty.
var ErrEmptyDraft = errors.New("empty draft")

// State is the composer's mode, derived from draft text and reply
// target.
type State int

const (
	Idle State = iota
	Drafting
	Replying
)

// Scope selects delete semantics.
type Scope string

const (
	// ScopeEveryone removes the message document entirely. The store's
	// access policy restricts it to the sender; it is not enforced
	// client-side.
	ScopeEveryone Scope = "everyone"
	// ScopeMe adds the acting user to the message's soft-delete set.
	ScopeMe Scope = "me"
)

// Composer is the single composition state machine for one open
// conversation view.
type Composer struct {
	sess           auth.Session
	conversationID string
	msgs           store.MessageStore
	convs          store.ConversationStore
	events         *events.Publisher
	log            *zap.SugaredLogger
	now            func() time.Time

	mu      sync.Mutex
	text    string
	replyTo *models.Message
}

func New(sess auth.Session, conversationID string, msgs store.MessageStore, convs store.ConversationStore, pub *events.Publisher, log *zap.SugaredLogger) *Composer {
	return &Composer{
		sess:           sess,
		conversationID: conversationID,
		msgs:           msgs,
		convs:          convs,
		events:         pub,
		log:            log,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// State derives the current mode.
func (c *Composer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.replyTo != nil:
		return Replying
	case c.text != "":
		return Drafting
	default:
		return Idle
	}
}

// Text returns the current draft text.
func (c *Composer) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// ReplyTarget returns the message the next send will quote, or nil.
func (c *Composer) ReplyTarget() *models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.replyTo
}

// SetText updates the draft, keeping the current mode.
func (c *Composer) SetText(t string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = t
}

// SelectReplyTarget enters replying mode. The draft text is cleared;
// the target attaches to the next send regardless of what is typed
// afterwards.
func (c *Composer) SelectReplyTarget(m models.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = ""
	c.replyTo = &m
}

// ClearReply leaves replying mode, preserving the draft text.
func (c *Composer) ClearReply() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replyTo = nil
}

// Send persists the draft as a new message and bumps the
// conversation's last-message fields. On success the composer resets
// to idle; on failure state is unchanged and the error is returned to
// the caller. There is no automatic retry.
func (c *Composer) Send(ctx context.Context) (*models.Message, error) {
	c.mu.Lock()
	trimmed := strings.TrimSpace(c.text)
	if trimmed == "" {
		c.mu.Unlock()
		return nil, ErrEmptyDraft
	}
	m := &models.Message{
		ConversationID: c.conversationID,
		SenderID:       c.sess.UserID,
		Text:           trimmed,
		Timestamp:      c.now(),
	}
	if c.replyTo != nil {
		// Denormalized snapshot taken at send time; never re-joined.
		m.ReplyTo = &models.ReplySnapshot{
			ID:       c.replyTo.ID,
			Text:     c.replyTo.Text,
			SenderID: c.replyTo.SenderID,
		}
	}
	c.mu.Unlock()

	if _, err := c.msgs.Insert(ctx, m); err != nil {
		return nil, err
	}
	if err := c.convs.UpdateLastMessage(ctx, c.conversationID, m.Text, m.Timestamp); err != nil {
		// The message is already persisted; the denormalized preview
		// catches up on the next send.
		c.log.Warnw("update last message", "conversation", c.conversationID, "err", err)
	}
	c.events.MessageSent(ctx, m)

	c.mu.Lock()
	c.text = ""
	c.replyTo = nil
	c.mu.Unlock()
	return m, nil
}

// DeleteMessage removes a message for everyone or hides it for the
// acting user. ScopeMe is idempotent per user: the soft-delete set is
// updated with an additive union.
func (c *Composer) DeleteMessage(ctx context.Context, id string, scope Scope) error {
	switch scope {
	case ScopeEveryone:
		if err := c.msgs.Delete(ctx, id); err != nil {
			return err
		}
	default:
		if err := c.msgs.SoftDelete(ctx, id, c.sess.UserID); err != nil {
			return err
		}
	}
	c.events.MessageDeleted(ctx, c.conversationID, id, c.sess.UserID, string(scope))
	return nil
}
