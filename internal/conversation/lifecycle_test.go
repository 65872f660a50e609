package conversation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/VehanRajintha/ChatX/internal/apperr"
	"github.com/VehanRajintha/ChatX/internal/auth"
	"github.com/VehanRajintha/ChatX/internal/conversation"
	"github.com/VehanRajintha/ChatX/internal/store/storetest"
)

func newService(f *storetest.Fake) *conversation.Service {
	return conversation.NewService(f, nil, zap.NewNop().Sugar())
}

func TestResolveOrCreateRequiresSession(t *testing.T) {
	svc := newService(storetest.New())
	_, err := svc.ResolveOrCreate(context.Background(), auth.Session{}, "bob")
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestResolveOrCreateRejectsSelfAndEmpty(t *testing.T) {
	svc := newService(storetest.New())
	sess := auth.Session{UserID: "alice"}

	// Caller input problems are a distinct error class, not a
	// persistence failure.
	_, err := svc.ResolveOrCreate(context.Background(), sess, "")
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)
	_, err = svc.ResolveOrCreate(context.Background(), sess, "alice")
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestCreateSetsParticipantsAndDetails(t *testing.T) {
	f := storetest.New()
	svc := newService(f)

	id, err := svc.ResolveOrCreate(context.Background(), auth.Session{UserID: "alice"}, "bob")
	require.NoError(t, err)

	c, err := f.Get(context.Background(), id)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"alice", "bob"}, c.Participants)
	require.Empty(t, c.LastMessage)
	// Creator gets a last-seen stamp, the counterpart starts null.
	require.NotNil(t, c.ParticipantDetails["alice"].LastSeen)
	require.Nil(t, c.ParticipantDetails["bob"].LastSeen)
}

func TestSequentialCallsReturnSameID(t *testing.T) {
	f := storetest.New()
	svc := newService(f)
	ctx := context.Background()

	first, err := svc.ResolveOrCreate(ctx, auth.Session{UserID: "alice"}, "bob")
	require.NoError(t, err)
	second, err := svc.ResolveOrCreate(ctx, auth.Session{UserID: "alice"}, "bob")
	require.NoError(t, err)
	require.Equal(t, first, second)

	// The counterpart resolving from their side finds the same record.
	third, err := svc.ResolveOrCreate(ctx, auth.Session{UserID: "bob"}, "alice")
	require.NoError(t, err)
	require.Equal(t, first, third)

	convs, err := f.FindByMember(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, convs, 1)
}

func TestCreateFailurePropagatesPersistence(t *testing.T) {
	f := storetest.New()
	f.FailWrites = true
	svc := newService(f)

	_, err := svc.ResolveOrCreate(context.Background(), auth.Session{UserID: "alice"}, "bob")
	require.ErrorIs(t, err, apperr.ErrPersistence)

	f.FailWrites = false
	convs, err := f.FindByMember(context.Background(), "alice")
	require.NoError(t, err)
	require.Empty(t, convs, "no conversation may exist after a failed create")
}
