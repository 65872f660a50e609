package store

import (
	"sync"

	"github.com/VehanRajintha/ChatX/internal/models"
)

// ConversationFeed delivers full result-set snapshots of a live
// conversation query. Snapshots arrive in the order the store produced
// them; the feed never reorders or coalesces. Consumers must select on
// Done and Err alongside Snapshots: the snapshot channel is never
// closed, delivery simply stops once the feed is released or failed.
// Close is idempotent and is the feed's only release operation.
type ConversationFeed struct {
	snaps chan []models.Conversation
	errs  chan error

	done    chan struct{}
	once    sync.Once
	onClose func()
}

// NewConversationFeed builds a feed with the given snapshot buffer.
// onClose, if non-nil, runs once when the feed is released or fails.
func NewConversationFeed(buf int, onClose func()) *ConversationFeed {
	return &ConversationFeed{
		snaps:   make(chan []models.Conversation, buf),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
		onClose: onClose,
	}
}

func (f *ConversationFeed) Snapshots() <-chan []models.Conversation { return f.snaps }

// Err yields at most one terminal error, after which no further
// snapshots arrive.
func (f *ConversationFeed) Err() <-chan error { return f.errs }

// Emit delivers one snapshot, blocking until the consumer takes it or
// the feed is released. It reports false once the feed is done.
func (f *ConversationFeed) Emit(snap []models.Conversation) bool {
	select {
	case f.snaps <- snap:
		return true
	case <-f.done:
		return false
	}
}

// Fail records the terminal error and releases the feed.
func (f *ConversationFeed) Fail(err error) {
	f.once.Do(func() {
		f.errs <- err
		close(f.done)
		if f.onClose != nil {
			f.onClose()
		}
	})
}

func (f *ConversationFeed) Close() {
	f.once.Do(func() {
		close(f.done)
		if f.onClose != nil {
			f.onClose()
		}
	})
}

// Done is closed when the feed has been released or failed.
func (f *ConversationFeed) Done() <-chan struct{} { return f.done }

// MessageFeed is the message-query counterpart of ConversationFeed.
type MessageFeed struct {
	snaps chan []models.Message
	errs  chan error

	done    chan struct{}
	once    sync.Once
	onClose func()
}

func NewMessageFeed(buf int, onClose func()) *MessageFeed {
	return &MessageFeed{
		snaps:   make(chan []models.Message, buf),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
		onClose: onClose,
	}
}

func (f *MessageFeed) Snapshots() <-chan []models.Message { return f.snaps }

func (f *MessageFeed) Err() <-chan error { return f.errs }

func (f *MessageFeed) Emit(snap []models.Message) bool {
	select {
	case f.snaps <- snap:
		return true
	case <-f.done:
		return false
	}
}

func (f *MessageFeed) Fail(err error) {
	f.once.Do(func() {
		f.errs <- err
		close(f.done)
		if f.onClose != nil {
			f.onClose()
		}
	})
}

func (f *MessageFeed) Close() {
	f.once.Do(func() {
		close(f.done)
		if f.onClose != nil {
			f.onClose()
		}
	})
}

func (f *MessageFeed) Done() <-chan struct{} { return f.done }
