package store_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/VehanRajintha/ChatX/internal/models"
	"github.com/VehanRajintha/ChatX/internal/store"
)

func TestFeedEmitAndClose(t *testing.T) {
	released := 0
	f := store.NewMessageFeed(1, func() { released++ })

	require.True(t, f.Emit([]models.Message{{ID: "m1"}}))
	snap := <-f.Snapshots()
	require.Len(t, snap, 1)

	f.Close()
	f.Close()
	require.Equal(t, 1, released, "release hook must run exactly once")

	select {
	case <-f.Done():
	default:
		t.Fatal("done must be closed after Close")
	}
	require.False(t, f.Emit([]models.Message{{ID: "m2"}}), "emit after close is dropped")
}

func TestFeedEmitUnblocksOnClose(t *testing.T) {
	f := store.NewConversationFeed(0, nil)
	emitted := make(chan bool)
	go func() { emitted <- f.Emit([]models.Conversation{{ID: "c1"}}) }()

	time.Sleep(10 * time.Millisecond)
	f.Close()

	select {
	case ok := <-emitted:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("emit must unblock when the feed is released")
	}
}

func TestFeedFailDeliversTerminalError(t *testing.T) {
	f := store.NewConversationFeed(1, nil)
	boom := errors.New("boom")
	f.Fail(boom)
	f.Fail(errors.New("ignored"))

	select {
	case err := <-f.Err():
		require.ErrorIs(t, err, boom)
	default:
		t.Fatal("terminal error must be buffered")
	}
	select {
	case <-f.Done():
	default:
		t.Fatal("done must be closed after Fail")
	}
}
