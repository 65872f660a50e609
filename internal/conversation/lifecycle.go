// Package conversation resolves or creates the two-party conversation
// record ahead of the first message.
package conversation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/VehanRajintha/ChatX/internal/apperr"
	"github.com/VehanRajintha/ChatX/internal/auth"
	"github.com/VehanRajintha/ChatX/internal/events"
	"github.com/VehanRajintha/ChatX/internal/models"
	"github.com/VehanRajintha/ChatX/internal/store"
)

type Service struct {
	convs  store.ConversationStore
	events *events.Publisher
	log    *zap.SugaredLogger
	now    func() time.Time
}

func NewService(convs store.ConversationStore, pub *events.Publisher, log *zap.SugaredLogger) *Service {
	return &Service{convs: convs, events: pub, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// ResolveOrCreate returns the id of the conversation between the
// caller and otherUserID, creating it when none exists. Sequential
// calls for the same pair return the same id. Existence check and
// create are not transactional, so simultaneous first contact from
// both sides can still produce a duplicate pair; that race is
// accepted.
func (s *Service) ResolveOrCreate(ctx context.Context, sess auth.Session, otherUserID string) (string, error) {
	if _, err := sess.Require(); err != nil {
		return "", err
	}
	if otherUserID == "" || otherUserID == sess.UserID {
		return "", fmt.Errorf("%w: invalid counterpart", apperr.ErrInvalidArgument)
	}

	existing, err := s.convs.FindByMember(ctx, sess.UserID)
	if err != nil {
		return "", err
	}
	for _, c := range existing {
		if c.HasParticipant(otherUserID) {
			return c.ID, nil
		}
	}

	now := s.now()
	conv := &models.Conversation{
		Participants: []string{sess.UserID, otherUserID},
		ParticipantDetails: map[string]models.ParticipantDetail{
			sess.UserID: {LastSeen: &now},
			otherUserID: {LastSeen: nil},
		},
		LastMessage:   "",
		LastMessageAt: now,
		CreatedAt:     now,
	}
	id, err := s.convs.Create(ctx, conv)
	if err != nil {
		// Caller must not assume the conversation was created.
		return "", err
	}
	s.events.ConversationCreated(ctx, conv)
	s.log.Infow("conversation created", "id", id, "participants", conv.Participants)
	return id, nil
}
