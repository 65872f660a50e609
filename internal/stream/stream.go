// Package stream maintains the live, ordered message sequence for one
// open conversation, filtered for the viewing user.
package stream

import (
	"context"
	"errors"
	"fmt"

	"github.com/VehanRajintha/ChatX/internal/apperr"
	"github.com/VehanRajintha/ChatX/internal/auth"
	"github.com/VehanRajintha/ChatX/internal/models"
	"github.com/VehanRajintha/ChatX/internal/store"
)

// Stream delivers visible-message snapshots for one conversation view.
// Messages soft-deleted for the viewer are filtered out; hard-deleted
// messages never appear because they no longer exist server-side.
// Order is preserved from the store: timestamp ascending, document id
// ascending on ties. At most one stream should be open per view; the
// owner must Close the previous stream before opening a replacement.
type Stream struct {
	updates chan []models.Message
	errs    chan error
	done    chan struct{}
	cancel  context.CancelFunc
	feed    *store.MessageFeed
}

// Open subscribes to the conversation's messages. An empty
// conversationID yields an already-finished, empty stream.
func Open(ctx context.Context, sess auth.Session, conversationID string, msgs store.MessageStore) (*Stream, error) {
	if _, err := sess.Require(); err != nil {
		return nil, err
	}
	if conversationID == "" {
		s := &Stream{
			updates: make(chan []models.Message),
			errs:    make(chan error, 1),
			done:    make(chan struct{}),
			cancel:  func() {},
		}
		close(s.done)
		return s, nil
	}
	sctx, cancel := context.WithCancel(ctx)
	feed, err := msgs.WatchByConversation(sctx, conversationID)
	if err != nil {
		cancel()
		return nil, err
	}
	s := &Stream{
		updates: make(chan []models.Message),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
		cancel:  cancel,
		feed:    feed,
	}
	go s.run(sctx, sess.UserID)
	return s, nil
}

// Updates delivers filtered message lists. Consumers must also watch
// Err and Done; the channel is never closed.
func (s *Stream) Updates() <-chan []models.Message { return s.updates }

// Err yields the terminal sync error, if any.
func (s *Stream) Err() <-chan error { return s.errs }

// Done is closed when the stream has stopped delivering.
func (s *Stream) Done() <-chan struct{} { return s.done }

// Close releases the underlying subscription. Idempotent.
func (s *Stream) Close() {
	s.cancel()
	if s.feed != nil {
		s.feed.Close()
	}
}

func (s *Stream) run(ctx context.Context, viewerID string) {
	defer close(s.done)

	forwardErr := func() {
		select {
		case err := <-s.feed.Err():
			if !errors.Is(err, apperr.ErrSyncFailure) {
				err = fmt.Errorf("%w: %v", apperr.ErrSyncFailure, err)
			}
			s.errs <- fmt.Errorf("stream: %w", err)
		default:
		}
	}

	for {
		select {
		case snap := <-s.feed.Snapshots():
			visible := make([]models.Message, 0, len(snap))
			for _, m := range snap {
				if m.HiddenFor(viewerID) {
					continue
				}
				visible = append(visible, m)
			}
			select {
			case s.updates <- visible:
			case <-s.feed.Done():
				forwardErr()
				return
			case <-ctx.Done():
				return
			}
		case <-s.feed.Done():
			forwardErr()
			return
		case <-ctx.Done():
			return
		}
	}
}
