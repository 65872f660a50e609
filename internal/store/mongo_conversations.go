package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/VehanRajintha/ChatX/internal/apperr"
	"github.com/VehanRajintha/ChatX/internal/models"
)

type MongoConversationStore struct {
	col *mongo.Collection
	log *zap.SugaredLogger
}

var _ ConversationStore = (*MongoConversationStore)(nil)

func (s *MongoConversationStore) Get(ctx context.Context, id string) (*models.Conversation, error) {
	var c models.Conversation
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("conversation %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w: %v", apperr.ErrPersistence, err)
	}
	return &c, nil
}

func (s *MongoConversationStore) FindByMember(ctx context.Context, userID string) ([]models.Conversation, error) {
	return s.queryByMember(ctx, userID)
}

func (s *MongoConversationStore) queryByMember(ctx context.Context, userID string) ([]models.Conversation, error) {
	cur, err := s.col.Find(ctx, bson.M{"participants": userID},
		options.Find().SetSort(bson.D{{Key: "last_message_at", Value: -1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find conversations: %w: %v", apperr.ErrPersistence, err)
	}
	defer cur.Close(ctx)

	out := []models.Conversation{}
	for cur.Next(ctx) {
		var c models.Conversation
		if err := cur.Decode(&c); err != nil {
			return nil, fmt.Errorf("decode conversation: %w: %v", apperr.ErrPersistence, err)
		}
		out = append(out, c)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("conversation cursor: %w: %v", apperr.ErrPersistence, err)
	}
	return out, nil
}

func (s *MongoConversationStore) Create(ctx context.Context, c *models.Conversation) (string, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if _, err := s.col.InsertOne(ctx, c); err != nil {
		return "", fmt.Errorf("create conversation: %w: %v", apperr.ErrPersistence, err)
	}
	return c.ID, nil
}

func (s *MongoConversationStore) UpdateLastMessage(ctx context.Context, id, text string, at time.Time) error {
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"last_message":    text,
		"last_message_at": at,
	}})
	if err != nil {
		return fmt.Errorf("update last message: %w: %v", apperr.ErrPersistence, err)
	}
	return nil
}

// WatchByMember re-runs the membership query on every matching change
// event and emits the full result set as a snapshot. The initial result
// set is emitted before any change.
func (s *MongoConversationStore) WatchByMember(ctx context.Context, userID string) (*ConversationFeed, error) {
	wctx, cancel := context.WithCancel(ctx)
	pipeline := mongo.Pipeline{bson.D{{Key: "$match", Value: bson.M{"$or": bson.A{
		// Deletes carry no full document; re-query on any of them.
		bson.M{"operationType": "delete"},
		bson.M{"fullDocument.participants": userID},
	}}}}}
	cs, err := s.col.Watch(wctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("watch conversations: %w: %v", apperr.ErrSyncFailure, err)
	}

	feed := NewConversationFeed(1, cancel)
	go func() {
		defer func() {
			if err := cs.Close(context.Background()); err != nil {
				s.log.Warnw("conversation change stream close", "err", err)
			}
		}()

		snap, err := s.queryByMember(wctx, userID)
		if err != nil {
			feed.Fail(fmt.Errorf("%w: %v", apperr.ErrSyncFailure, err))
			return
		}
		if !feed.Emit(snap) {
			return
		}
		for cs.Next(wctx) {
			snap, err := s.queryByMember(wctx, userID)
			if err != nil {
				feed.Fail(fmt.Errorf("%w: %v", apperr.ErrSyncFailure, err))
				return
			}
			if !feed.Emit(snap) {
				return
			}
		}
		if err := cs.Err(); err != nil && wctx.Err() == nil {
			feed.Fail(fmt.Errorf("conversation stream: %w: %v", apperr.ErrSyncFailure, err))
			return
		}
		feed.Close()
	}()
	return feed, nil
}
