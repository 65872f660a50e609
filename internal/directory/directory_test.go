package directory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/VehanRajintha/ChatX/internal/apperr"
	"github.com/VehanRajintha/ChatX/internal/auth"
	"github.com/VehanRajintha/ChatX/internal/directory"
	"github.com/VehanRajintha/ChatX/internal/models"
	"github.com/VehanRajintha/ChatX/internal/store"
	"github.com/VehanRajintha/ChatX/internal/store/storetest"
)

// slowUsers holds every profile lookup until released.
type slowUsers struct {
	store.UserStore
	release chan struct{}
}

func (s *slowUsers) Get(ctx context.Context, id string) (*models.User, error) {
	select {
	case <-s.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.UserStore.Get(ctx, id)
}

const waitTimeout = 2 * time.Second

// waitFor drains updates until cond is satisfied or the deadline hits.
func waitFor(t *testing.T, d *directory.Directory, cond func([]directory.Entry) bool) []directory.Entry {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case entries := <-d.Updates():
			if cond(entries) {
				return entries
			}
		case err := <-d.Err():
			t.Fatalf("directory failed: %v", err)
		case <-deadline:
			t.Fatal("timed out waiting for directory update")
		}
	}
}

func conversationIDs(entries []directory.Entry) map[string]bool {
	ids := map[string]bool{}
	for _, e := range entries {
		ids[e.Conversation.ID] = true
	}
	return ids
}

func openDirectory(t *testing.T, f *storetest.Fake, userID string) *directory.Directory {
	t.Helper()
	d, err := directory.Open(context.Background(), auth.Session{UserID: userID}, f, f.Users(), zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d
}

func TestOpenRequiresSession(t *testing.T) {
	f := storetest.New()
	_, err := directory.Open(context.Background(), auth.Session{}, f, f.Users(), zap.NewNop().Sugar())
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestVisibleSetMatchesMembership(t *testing.T) {
	f := storetest.New()
	f.SeedUser(models.User{ID: "bob", DisplayName: "Bob"})
	f.SeedConversation(models.Conversation{ID: "c1", Participants: []string{"alice", "bob"}})
	f.SeedConversation(models.Conversation{ID: "c2", Participants: []string{"bob", "carol"}})

	d := openDirectory(t, f, "alice")

	entries := waitFor(t, d, func(es []directory.Entry) bool { return len(es) == 1 })
	require.True(t, conversationIDs(entries)["c1"])

	// New conversation for alice shows up; bob/carol's does not.
	_, err := f.Create(context.Background(), &models.Conversation{ID: "c3", Participants: []string{"carol", "alice"}})
	require.NoError(t, err)
	entries = waitFor(t, d, func(es []directory.Entry) bool { return len(es) == 2 })
	ids := conversationIDs(entries)
	require.True(t, ids["c1"])
	require.True(t, ids["c3"])
	require.False(t, ids["c2"])
}

func TestCounterpartProfileJoins(t *testing.T) {
	f := storetest.New()
	f.SeedUser(models.User{ID: "bob", DisplayName: "Bob", Email: "bob@example.com"})
	f.SeedConversation(models.Conversation{ID: "c1", Participants: []string{"alice", "bob"}})

	d := openDirectory(t, f, "alice")

	// The list itself never waits for the profile fetch; eventually an
	// emission carries the joined profile.
	entries := waitFor(t, d, func(es []directory.Entry) bool {
		return len(es) == 1 && es[0].Counterpart != nil
	})
	require.Equal(t, "Bob", entries[0].Counterpart.DisplayName)
}

func TestListEmitsBeforeProfileResolves(t *testing.T) {
	f := storetest.New()
	f.SeedUser(models.User{ID: "bob", DisplayName: "Bob"})
	f.SeedConversation(models.Conversation{ID: "c1", Participants: []string{"alice", "bob"}})
	users := &slowUsers{UserStore: f.Users(), release: make(chan struct{})}

	d, err := directory.Open(context.Background(), auth.Session{UserID: "alice"}, f, users, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(d.Close)

	// The first list arrives while the profile fetch is still in
	// flight; the counterpart slot is empty.
	entries := waitFor(t, d, func(es []directory.Entry) bool { return len(es) == 1 })
	require.Nil(t, entries[0].Counterpart)

	close(users.release)
	entries = waitFor(t, d, func(es []directory.Entry) bool {
		return len(es) == 1 && es[0].Counterpart != nil
	})
	require.Equal(t, "Bob", entries[0].Counterpart.DisplayName)
}

func TestMissingProfileDegradesToPlaceholder(t *testing.T) {
	f := storetest.New()
	f.SeedConversation(models.Conversation{ID: "c1", Participants: []string{"alice", "ghost"}})

	d := openDirectory(t, f, "alice")

	entries := waitFor(t, d, func(es []directory.Entry) bool {
		return len(es) == 1 && es[0].Counterpart != nil
	})
	require.Equal(t, "ghost", entries[0].Counterpart.ID)
	require.Empty(t, entries[0].Counterpart.DisplayName)
}

func TestRemovedParticipantDisappears(t *testing.T) {
	f := storetest.New()
	f.SeedUser(models.User{ID: "bob"})
	f.SeedConversation(models.Conversation{ID: "c1", Participants: []string{"alice", "bob"}})
	f.SeedConversation(models.Conversation{ID: "c2", Participants: []string{"alice", "bob"}})

	d := openDirectory(t, f, "alice")
	waitFor(t, d, func(es []directory.Entry) bool { return len(es) == 2 })

	f.RemoveParticipant("c2", "alice")
	entries := waitFor(t, d, func(es []directory.Entry) bool { return len(es) == 1 })
	require.True(t, conversationIDs(entries)["c1"])
}

func TestSubscriptionErrorIsTerminal(t *testing.T) {
	f := storetest.New()
	d := openDirectory(t, f, "alice")

	f.FailConversationWatches(errors.New("stream torn down"))

	select {
	case err := <-d.Err():
		require.ErrorIs(t, err, apperr.ErrSyncFailure)
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for terminal error")
	}
}

func TestCloseReleasesSubscription(t *testing.T) {
	f := storetest.New()
	d := openDirectory(t, f, "alice")
	require.Equal(t, 1, f.OpenConversationWatches())

	d.Close()
	d.Close() // idempotent

	require.Eventually(t, func() bool { return f.OpenConversationWatches() == 0 },
		waitTimeout, 10*time.Millisecond)
}
