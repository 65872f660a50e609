// Package storetest provides an in-memory store with live feeds for
// exercising the sync components without a database.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/VehanRajintha/ChatX/internal/apperr"
	"github.com/VehanRajintha/ChatX/internal/models"
	"github.com/VehanRajintha/ChatX/internal/store"
)

const feedBuffer = 64

// Fake implements store.ConversationStore, store.MessageStore and
// store.UserStore over maps. Mutations re-run every open watch's query
// and push the new snapshot, mirroring the change-stream behavior of
// the Mongo implementation.
type Fake struct {
	mu            sync.Mutex
	conversations map[string]models.Conversation
	messages      map[string]models.Message
	users         map[string]models.User

	convWatches map[*store.ConversationFeed]string // feed -> member filter
	msgWatches  map[*store.MessageFeed]string      // feed -> conversation filter

	// FailWrites makes every mutation fail, for persistence-error paths.
	FailWrites bool
}

var (
	_ store.ConversationStore = (*Fake)(nil)
	_ store.MessageStore      = (*Fake)(nil)
	_ store.UserStore         = (*FakeUsers)(nil)
)

func New() *Fake {
	return &Fake{
		conversations: map[string]models.Conversation{},
		messages:      map[string]models.Message{},
		users:         map[string]models.User{},
		convWatches:   map[*store.ConversationFeed]string{},
		msgWatches:    map[*store.MessageFeed]string{},
	}
}

// SeedUser inserts a profile directly.
func (f *Fake) SeedUser(u models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
}

// SeedConversation inserts a conversation directly, without notifying
// watches.
func (f *Fake) SeedConversation(c models.Conversation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conversations[c.ID] = c
}

func (f *Fake) writeErr(op string) error {
	return fmt.Errorf("%s: %w: injected", op, apperr.ErrPersistence)
}

// --- ConversationStore ---

func (f *Fake) Get(ctx context.Context, id string) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conversations[id]
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", id, apperr.ErrNotFound)
	}
	return &c, nil
}

func (f *Fake) FindByMember(ctx context.Context, userID string) ([]models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conversationsOf(userID), nil
}

func (f *Fake) conversationsOf(userID string) []models.Conversation {
	out := []models.Conversation{}
	for _, c := range f.conversations {
		if c.HasParticipant(userID) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastMessageAt.Equal(out[j].LastMessageAt) {
			return out[i].LastMessageAt.After(out[j].LastMessageAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (f *Fake) Create(ctx context.Context, c *models.Conversation) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWrites {
		return "", f.writeErr("create conversation")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	f.conversations[c.ID] = *c
	f.notifyConversations()
	return c.ID, nil
}

func (f *Fake) UpdateLastMessage(ctx context.Context, id, text string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWrites {
		return f.writeErr("update last message")
	}
	c, ok := f.conversations[id]
	if !ok {
		return fmt.Errorf("conversation %s: %w", id, apperr.ErrNotFound)
	}
	c.LastMessage = text
	c.LastMessageAt = at
	f.conversations[id] = c
	f.notifyConversations()
	return nil
}

// RemoveParticipant drops userID from a conversation's membership and
// notifies watches, for disappearance tests.
func (f *Fake) RemoveParticipant(id, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conversations[id]
	if !ok {
		return
	}
	kept := []string{}
	for _, p := range c.Participants {
		if p != userID {
			kept = append(kept, p)
		}
	}
	c.Participants = kept
	f.conversations[id] = c
	f.notifyConversations()
}

func (f *Fake) WatchByMember(ctx context.Context, userID string) (*store.ConversationFeed, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var feed *store.ConversationFeed
	feed = store.NewConversationFeed(feedBuffer, func() {
		f.mu.Lock()
		delete(f.convWatches, feed)
		f.mu.Unlock()
	})
	f.convWatches[feed] = userID
	feed.Emit(f.conversationsOf(userID))
	return feed, nil
}

func (f *Fake) notifyConversations() {
	for feed, userID := range f.convWatches {
		feed.Emit(f.conversationsOf(userID))
	}
}

// FailConversationWatches terminates every open conversation feed.
func (f *Fake) FailConversationWatches(err error) {
	f.mu.Lock()
	feeds := make([]*store.ConversationFeed, 0, len(f.convWatches))
	for feed := range f.convWatches {
		feeds = append(feeds, feed)
	}
	f.mu.Unlock()
	for _, feed := range feeds {
		feed.Fail(err)
	}
}

// --- MessageStore ---

func (f *Fake) Insert(ctx context.Context, m *models.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWrites {
		return "", f.writeErr("insert message")
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	f.messages[m.ID] = *m
	f.notifyMessages(m.ConversationID)
	return m.ID, nil
}

func (f *Fake) SoftDelete(ctx context.Context, id, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWrites {
		return f.writeErr("soft delete message")
	}
	m, ok := f.messages[id]
	if !ok {
		return fmt.Errorf("message %s: %w", id, apperr.ErrNotFound)
	}
	if !m.HiddenFor(userID) {
		m.DeletedFor = append(m.DeletedFor, userID)
	}
	f.messages[id] = m
	f.notifyMessages(m.ConversationID)
	return nil
}

func (f *Fake) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWrites {
		return f.writeErr("delete message")
	}
	m, ok := f.messages[id]
	if !ok {
		return nil
	}
	delete(f.messages, id)
	f.notifyMessages(m.ConversationID)
	return nil
}

// MessagesOf returns the stored messages of a conversation in query
// order.
func (f *Fake) MessagesOf(conversationID string) []models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messagesOf(conversationID)
}

// Message returns the stored message by id.
func (f *Fake) Message(id string) (models.Message, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	return m, ok
}

func (f *Fake) messagesOf(conversationID string) []models.Message {
	out := []models.Message{}
	for _, m := range f.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (f *Fake) WatchByConversation(ctx context.Context, conversationID string) (*store.MessageFeed, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var feed *store.MessageFeed
	feed = store.NewMessageFeed(feedBuffer, func() {
		f.mu.Lock()
		delete(f.msgWatches, feed)
		f.mu.Unlock()
	})
	f.msgWatches[feed] = conversationID
	feed.Emit(f.messagesOf(conversationID))
	return feed, nil
}

func (f *Fake) notifyMessages(conversationID string) {
	for feed, convID := range f.msgWatches {
		if convID == conversationID {
			feed.Emit(f.messagesOf(conversationID))
		}
	}
}

// OpenMessageWatches counts live message feeds, for release tests.
func (f *Fake) OpenMessageWatches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgWatches)
}

// FailMessageWatches terminates every open message feed.
func (f *Fake) FailMessageWatches(err error) {
	f.mu.Lock()
	feeds := make([]*store.MessageFeed, 0, len(f.msgWatches))
	for feed := range f.msgWatches {
		feeds = append(feeds, feed)
	}
	f.mu.Unlock()
	for _, feed := range feeds {
		feed.Fail(err)
	}
}

// OpenConversationWatches counts live conversation feeds.
func (f *Fake) OpenConversationWatches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.convWatches)
}

// --- UserStore ---

// FakeUsers is the store.UserStore view of a Fake. A separate type
// because the conversation and user stores both name their lookup Get.
type FakeUsers struct {
	f *Fake
}

// Users returns the user-store view.
func (f *Fake) Users() *FakeUsers { return &FakeUsers{f: f} }

func (v *FakeUsers) Get(ctx context.Context, id string) (*models.User, error) {
	f := v.f
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	return &u, nil
}

func (v *FakeUsers) List(ctx context.Context) ([]models.User, error) {
	f := v.f
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.User{}
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayName != out[j].DisplayName {
			return out[i].DisplayName < out[j].DisplayName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (v *FakeUsers) Upsert(ctx context.Context, u *models.User) error {
	f := v.f
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWrites {
		return f.writeErr("upsert user")
	}
	f.users[u.ID] = *u
	return nil
}

func (v *FakeUsers) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	f := v.f
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWrites {
		return f.writeErr("update user")
	}
	u := f.users[id]
	u.ID = id
	if v, ok := fields["display_name"].(string); ok {
		u.DisplayName = v
	}
	if v, ok := fields["photo_url"].(string); ok {
		u.PhotoURL = v
	}
	if v, ok := fields["is_private"].(bool); ok {
		u.IsPrivate = v
	}
	if v, ok := fields["status"].(string); ok {
		u.Status = v
	}
	if v, ok := fields["last_seen"].(time.Time); ok {
		u.LastSeen = &v
	}
	f.users[id] = u
	return nil
}
