package compose_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/VehanRajintha/ChatX/internal/apperr"
	"github.com/VehanRajintha/ChatX/internal/auth"
	"github.com/VehanRajintha/ChatX/internal/compose"
	"github.com/VehanRajintha/ChatX/internal/models"
	"github.com/VehanRajintha/ChatX/internal/store/storetest"
)

func newComposer(f *storetest.Fake, userID, convID string) *compose.Composer {
	return compose.New(auth.Session{UserID: userID}, convID, f, f, nil, zap.NewNop().Sugar())
}

func seedConversation(f *storetest.Fake, id string, participants ...string) {
	f.SeedConversation(models.Conversation{ID: id, Participants: participants})
}

func TestStateTransitions(t *testing.T) {
	f := storetest.New()
	seedConversation(f, "c1", "alice", "bob")
	c := newComposer(f, "alice", "c1")

	require.Equal(t, compose.Idle, c.State())

	c.SetText("hel")
	require.Equal(t, compose.Drafting, c.State())
	c.SetText("hello")
	require.Equal(t, "hello", c.Text())

	// Selecting a reply target clears the draft.
	target := models.Message{ID: "m1", SenderID: "bob", Text: "original"}
	c.SelectReplyTarget(target)
	require.Equal(t, compose.Replying, c.State())
	require.Empty(t, c.Text())

	// Clearing the reply keeps whatever was typed since.
	c.SetText("typed after")
	c.ClearReply()
	require.Equal(t, compose.Drafting, c.State())
	require.Equal(t, "typed after", c.Text())
	require.Nil(t, c.ReplyTarget())
}

func TestSendRejectsBlankDraft(t *testing.T) {
	f := storetest.New()
	seedConversation(f, "c1", "alice", "bob")
	c := newComposer(f, "alice", "c1")

	for _, text := range []string{"", "   ", "\n\t "} {
		c.SetText(text)
		_, err := c.Send(context.Background())
		require.ErrorIs(t, err, compose.ErrEmptyDraft)
		require.Equal(t, text, c.Text(), "state must be unchanged on rejection")
	}
	require.Empty(t, f.MessagesOf("c1"), "nothing may be persisted")
}

func TestSendTrimsPersistsAndResets(t *testing.T) {
	f := storetest.New()
	seedConversation(f, "c1", "alice", "bob")
	c := newComposer(f, "alice", "c1")

	c.SetText("  hello \n")
	m, err := c.Send(context.Background())
	require.NoError(t, err)
	require.Equal(t, "hello", m.Text)
	require.Equal(t, "alice", m.SenderID)
	require.Equal(t, "c1", m.ConversationID)
	require.False(t, m.Timestamp.IsZero())

	stored, ok := f.Message(m.ID)
	require.True(t, ok)
	require.Equal(t, "hello", stored.Text)

	require.Equal(t, compose.Idle, c.State())
	require.Empty(t, c.Text())

	conv, err := f.Get(context.Background(), "c1")
	require.NoError(t, err)
	require.Equal(t, "hello", conv.LastMessage)
	require.Equal(t, m.Timestamp, conv.LastMessageAt)
}

func TestSendSnapshotsReplyTarget(t *testing.T) {
	f := storetest.New()
	seedConversation(f, "c1", "alice", "bob")

	alice := newComposer(f, "alice", "c1")
	alice.SetText("hello")
	m1, err := alice.Send(context.Background())
	require.NoError(t, err)

	bob := newComposer(f, "bob", "c1")
	bob.SelectReplyTarget(*m1)
	bob.SetText("hi back")
	reply, err := bob.Send(context.Background())
	require.NoError(t, err)

	require.NotNil(t, reply.ReplyTo)
	require.Equal(t, m1.ID, reply.ReplyTo.ID)
	require.Equal(t, "hello", reply.ReplyTo.Text)
	require.Equal(t, "alice", reply.ReplyTo.SenderID)

	// The snapshot is a frozen copy: the original message is untouched
	// and the reply does not track it.
	orig, ok := f.Message(m1.ID)
	require.True(t, ok)
	require.Equal(t, "hello", orig.Text)
	require.Nil(t, orig.ReplyTo)

	// After sending, the reply target is cleared for the next draft.
	require.Equal(t, compose.Idle, bob.State())
	require.Nil(t, bob.ReplyTarget())
}

func TestSendFailureKeepsDraft(t *testing.T) {
	f := storetest.New()
	seedConversation(f, "c1", "alice", "bob")
	c := newComposer(f, "alice", "c1")

	f.FailWrites = true
	c.SetText("will fail")
	_, err := c.Send(context.Background())
	require.ErrorIs(t, err, apperr.ErrPersistence)

	require.Equal(t, "will fail", c.Text())
	require.Equal(t, compose.Drafting, c.State())
}

func TestSoftDeleteIsIdempotentPerUser(t *testing.T) {
	f := storetest.New()
	seedConversation(f, "c1", "alice", "bob")
	c := newComposer(f, "alice", "c1")
	c.SetText("delete me")
	m, err := c.Send(context.Background())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.DeleteMessage(ctx, m.ID, compose.ScopeMe))
	require.NoError(t, c.DeleteMessage(ctx, m.ID, compose.ScopeMe))

	stored, ok := f.Message(m.ID)
	require.True(t, ok)
	require.Equal(t, []string{"alice"}, stored.DeletedFor)
}

func TestDeleteForEveryoneRemovesDocument(t *testing.T) {
	f := storetest.New()
	seedConversation(f, "c1", "alice", "bob")
	c := newComposer(f, "alice", "c1")
	c.SetText("gone")
	m, err := c.Send(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.DeleteMessage(context.Background(), m.ID, compose.ScopeEveryone))
	_, ok := f.Message(m.ID)
	require.False(t, ok)
}

func TestConcurrentSoftDeletesByBothUsers(t *testing.T) {
	f := storetest.New()
	seedConversation(f, "c1", "alice", "bob")
	alice := newComposer(f, "alice", "c1")
	alice.SetText("for both")
	m, err := alice.Send(context.Background())
	require.NoError(t, err)

	bob := newComposer(f, "bob", "c1")
	done := make(chan error, 2)
	go func() { done <- alice.DeleteMessage(context.Background(), m.ID, compose.ScopeMe) }()
	go func() { done <- bob.DeleteMessage(context.Background(), m.ID, compose.ScopeMe) }()
	require.NoError(t, <-done)
	require.NoError(t, <-done)

	stored, ok := f.Message(m.ID)
	require.True(t, ok)
	require.ElementsMatch(t, []string{"alice", "bob"}, stored.DeletedFor)
}
