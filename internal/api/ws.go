package api

import (
	"context"
	"errors"

	"github.com/gofiber/websocket/v2"

	"github.com/VehanRajintha/ChatX/internal/auth"
	"github.com/VehanRajintha/ChatX/internal/compose"
	"github.com/VehanRajintha/ChatX/internal/directory"
	"github.com/VehanRajintha/ChatX/internal/metrics"
	"github.com/VehanRajintha/ChatX/internal/models"
	"github.com/VehanRajintha/ChatX/internal/stream"
)

// clientFrame is one action from the browser.
type clientFrame struct {
	Action         string          `json:"action"`
	ConversationID string          `json:"conversation_id,omitempty"`
	OtherUserID    string          `json:"other_user_id,omitempty"`
	Text           string          `json:"text,omitempty"`
	Message        *models.Message `json:"message,omitempty"`
	MessageID      string          `json:"message_id,omitempty"`
	Scope          string          `json:"scope,omitempty"`
}

// handleWS runs one socket session: a directory subscription for the
// session's lifetime plus at most one message stream, switched as the
// client selects conversations. All feed consumption and all writes to
// the socket happen on this goroutine; a second goroutine only reads.
func (s *Server) handleWS(c *websocket.Conn) {
	defer c.Close()
	sess, ok := c.Locals(auth.SessionLocal).(auth.Session)
	if !ok || !sess.Valid() {
		_ = c.WriteJSON(map[string]any{"type": "error", "message": "unauthenticated"})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir, err := directory.Open(ctx, sess, s.convs, s.users, s.log)
	if err != nil {
		s.log.Errorw("directory open", "user", sess.UserID, "err", err)
		_ = c.WriteJSON(map[string]any{"type": "error", "message": "directory unavailable"})
		return
	}
	defer dir.Close()
	metrics.OpenDirectories.Inc()
	defer metrics.OpenDirectories.Dec()

	s.presence.SetOnline(ctx, sess.UserID)
	defer s.presence.SetOffline(context.Background(), sess.UserID)

	frames := make(chan clientFrame)
	go func() {
		defer cancel()
		for {
			var fr clientFrame
			if err := c.ReadJSON(&fr); err != nil {
				return
			}
			select {
			case frames <- fr:
			case <-ctx.Done():
				return
			}
		}
	}()

	var (
		st   *stream.Stream
		comp *compose.Composer
	)
	// Closing the active stream before opening its replacement is the
	// resource-lifetime invariant of this session.
	closeStream := func() {
		if st != nil {
			st.Close()
			st = nil
			comp = nil
			metrics.OpenStreams.Dec()
		}
	}
	defer closeStream()

	selectConversation := func(id string) {
		closeStream()
		ns, err := stream.Open(ctx, sess, id, s.msgs)
		if err != nil {
			s.log.Errorw("stream open", "conversation", id, "err", err)
			_ = c.WriteJSON(map[string]any{"type": "error", "message": "conversation unavailable"})
			return
		}
		st = ns
		comp = compose.New(sess, id, s.msgs, s.convs, s.events, s.log)
		metrics.OpenStreams.Inc()
		_ = c.WriteJSON(map[string]any{"type": "conversation", "conversation_id": id})
	}

	streamUpdates := func() <-chan []models.Message {
		if st == nil {
			return nil
		}
		return st.Updates()
	}
	streamErrs := func() <-chan error {
		if st == nil {
			return nil
		}
		return st.Err()
	}

	for {
		select {
		case fr := <-frames:
			if !s.handleFrame(ctx, c, fr, sess, selectConversation, &comp, closeStream) {
				return
			}
		case entries := <-dir.Updates():
			if err := c.WriteJSON(map[string]any{"type": "directory", "entries": entries}); err != nil {
				return
			}
		case err := <-dir.Err():
			// Terminal for the whole session; the client reconnects.
			s.log.Warnw("directory sync", "user", sess.UserID, "err", err)
			_ = c.WriteJSON(map[string]any{"type": "error", "message": "directory sync lost"})
			return
		case snap := <-streamUpdates():
			if err := c.WriteJSON(map[string]any{"type": "messages", "messages": snap}); err != nil {
				return
			}
		case err := <-streamErrs():
			s.log.Warnw("message sync", "user", sess.UserID, "err", err)
			_ = c.WriteJSON(map[string]any{"type": "error", "message": "message sync lost"})
			closeStream()
		case <-ctx.Done():
			return
		}
	}
}

// handleFrame applies one client action. It reports false when the
// session should end.
func (s *Server) handleFrame(ctx context.Context, c *websocket.Conn, fr clientFrame, sess auth.Session,
	selectConversation func(string), comp **compose.Composer, closeStream func()) bool {

	notice := func(msg string) bool {
		return c.WriteJSON(map[string]any{"type": "error", "message": msg}) == nil
	}

	switch fr.Action {
	case "start":
		id, err := s.lifecycle.ResolveOrCreate(ctx, sess, fr.OtherUserID)
		if err != nil {
			s.log.Errorw("resolve conversation", "user", sess.UserID, "err", err)
			return notice("could not open conversation")
		}
		selectConversation(id)
	case "select":
		if fr.ConversationID == "" {
			closeStream()
			return true
		}
		selectConversation(fr.ConversationID)
	case "draft":
		if *comp != nil {
			(*comp).SetText(fr.Text)
		}
	case "reply":
		if *comp != nil && fr.Message != nil {
			(*comp).SelectReplyTarget(*fr.Message)
		}
	case "clear_reply":
		if *comp != nil {
			(*comp).ClearReply()
		}
	case "send":
		if *comp == nil {
			return notice("no conversation selected")
		}
		if fr.Text != "" {
			(*comp).SetText(fr.Text)
		}
		m, err := (*comp).Send(ctx)
		if err != nil {
			if errors.Is(err, compose.ErrEmptyDraft) {
				return notice("message is empty")
			}
			s.log.Errorw("send", "user", sess.UserID, "err", err)
			return notice("message not sent")
		}
		metrics.MessagesSent.Inc()
		if err := c.WriteJSON(map[string]any{"type": "sent", "message": m}); err != nil {
			return false
		}
	case "delete":
		if *comp == nil {
			return notice("no conversation selected")
		}
		scope := compose.Scope(fr.Scope)
		if scope != compose.ScopeEveryone && scope != compose.ScopeMe {
			return notice("unknown delete scope")
		}
		if err := (*comp).DeleteMessage(ctx, fr.MessageID, scope); err != nil {
			s.log.Errorw("delete", "user", sess.UserID, "message", fr.MessageID, "err", err)
			return notice("message not deleted")
		}
		metrics.MessagesDeleted.WithLabelValues(string(scope)).Inc()
	default:
		return notice("unknown action")
	}
	return true
}
