// Package directory maintains the live conversation list for one user,
// joined with the counterpart's profile.
package directory

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/VehanRajintha/ChatX/internal/apperr"
	"github.com/VehanRajintha/ChatX/internal/auth"
	"github.com/VehanRajintha/ChatX/internal/models"
	"github.com/VehanRajintha/ChatX/internal/store"
)

// Entry pairs a conversation with the other participant's profile.
// Counterpart is nil until the one-shot profile fetch resolves; callers
// render placeholder fields in the meantime.
type Entry struct {
	Conversation models.Conversation `json:"conversation"`
	Counterpart  *models.User        `json:"counterpart,omitempty"`
}

// Directory is a live view over the membership query. Updates carries
// the full joined list; each conversation snapshot is re-emitted
// immediately, then again as pending profile fetches resolve. Err
// yields at most one terminal error; the directory does not retry.
type Directory struct {
	updates chan []Entry
	errs    chan error
	done    chan struct{}
	cancel  context.CancelFunc
	feed    *store.ConversationFeed
}

type fetchResult struct {
	userID string
	user   *models.User
}

// Open subscribes to the caller's conversations. The caller must Close
// the directory when its view goes away.
func Open(ctx context.Context, sess auth.Session, convs store.ConversationStore, users store.UserStore, log *zap.SugaredLogger) (*Directory, error) {
	if _, err := sess.Require(); err != nil {
		return nil, err
	}
	dctx, cancel := context.WithCancel(ctx)
	feed, err := convs.WatchByMember(dctx, sess.UserID)
	if err != nil {
		cancel()
		return nil, err
	}
	d := &Directory{
		updates: make(chan []Entry),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
		cancel:  cancel,
		feed:    feed,
	}
	go d.run(dctx, sess.UserID, users, log)
	return d, nil
}

// Updates delivers joined conversation lists. Consumers must also
// watch Err and Done; the channel is never closed.
func (d *Directory) Updates() <-chan []Entry { return d.updates }

// Err yields the terminal sync error, if any.
func (d *Directory) Err() <-chan error { return d.errs }

// Done is closed when the directory loop has stopped.
func (d *Directory) Done() <-chan struct{} { return d.done }

// Close releases the underlying subscription. Idempotent.
func (d *Directory) Close() {
	d.cancel()
	d.feed.Close()
}

func (d *Directory) run(ctx context.Context, userID string, users store.UserStore, log *zap.SugaredLogger) {
	defer close(d.done)

	// Profile cache is append-only for the life of this directory; a
	// profile fetched once is not refreshed within the session.
	cache := map[string]*models.User{}
	pending := map[string]bool{}
	fetched := make(chan fetchResult)
	var latest []models.Conversation
	have := false

	// forwardErr relays the feed's terminal error, if one was recorded.
	forwardErr := func() {
		select {
		case err := <-d.feed.Err():
			if !errors.Is(err, apperr.ErrSyncFailure) {
				err = fmt.Errorf("%w: %v", apperr.ErrSyncFailure, err)
			}
			d.errs <- fmt.Errorf("directory: %w", err)
		default:
		}
	}

	emit := func() bool {
		entries := make([]Entry, 0, len(latest))
		for _, c := range latest {
			entries = append(entries, Entry{Conversation: c, Counterpart: cache[c.Counterpart(userID)]})
		}
		select {
		case d.updates <- entries:
			return true
		case <-d.feed.Done():
			forwardErr()
			return false
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case snap := <-d.feed.Snapshots():
			latest = snap
			have = true
			// Kick off fetches for unseen counterparts. They run
			// concurrently and never delay the list emission below.
			for _, c := range snap {
				other := c.Counterpart(userID)
				if other == "" || cache[other] != nil || pending[other] {
					continue
				}
				pending[other] = true
				go func(id string) {
					u, err := users.Get(ctx, id)
					if err != nil {
						if !errors.Is(err, apperr.ErrNotFound) && ctx.Err() == nil {
							log.Warnw("profile fetch", "user", id, "err", err)
						}
						// Missing profile degrades to placeholder
						// fields, never fails the directory.
						u = &models.User{ID: id}
					}
					select {
					case fetched <- fetchResult{userID: id, user: u}:
					case <-ctx.Done():
					}
				}(other)
			}
			if !emit() {
				return
			}
		case r := <-fetched:
			cache[r.userID] = r.user
			delete(pending, r.userID)
			if have && !emit() {
				return
			}
		case <-d.feed.Done():
			forwardErr()
			return
		case <-ctx.Done():
			return
		}
	}
}
