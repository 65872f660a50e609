package store

import (
	"context"
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

type MongoMessageStore struct {
	col *mongo.Collection
	log *zap.SugaredLogger
}

var _ MessageStore = (*MongoMessageStore)(nil)

func (s *MongoMessageStore) Insert(ctx context.Context, m *models.Message) (string, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	if _, err := s.col.InsertOne(ctx, m); err != nil {
		return "", fmt.Errorf("insert message: %w: %v", apperr.ErrPersistence, err)
	}
	return m.ID, nil
}

func (s *MongoMessageStore) SoftDelete(ctx context.Context, id, userID string) error {
	// $addToSet keeps the deletion set a set under concurrent and
	// repeated calls.
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"deleted_for": userID}})
	if err != nil {
		return fmt.Errorf("soft delete message: %w: %v", apperr.ErrPersistence, err)
	}
	return nil
}

func (s *MongoMessageStore) Delete(ctx context.Context, id string) error {
	if _, err := s.col.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete message: %w: %v", apperr.ErrPersistence, err)
	}
	return nil
}

func (s *MongoMessageStore) queryByConversation(ctx context.Context, conversationID string) ([]models.Message, error) {
	// Timestamp ascending; _id ascending breaks ties deterministically.
	cur, err := s.col.Find(ctx, bson.M{"conversation_id": conversationID},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find messages: %w: %v", apperr.ErrPersistence, err)
	}
	defer cur.Close(ctx)

	out := []models.Message{}
	for cur.Next(ctx) {
		var m models.Message
		if err := cur.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode message: %w: %v", apperr.ErrPersistence, err)
		}
		out = append(out, m)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("message cursor: %w: %v", apperr.ErrPersistence, err)
	}
	return out, nil
}

// WatchByConversation emits the full ordered message list for the
// conversation, once at open and again after every matching change.
func (s *MongoMessageStore) WatchByConversation(ctx context.Context, conversationID string) (*MessageFeed, error) {
	wctx, cancel := context.WithCancel(ctx)
	pipeline := mongo.Pipeline{bson.D{{Key: "$match", Value: bson.M{"$or": bson.A{
		bson.M{"operationType": "delete"},
		bson.M{"fullDocument.conversation_id": conversationID},
	}}}}}
	cs, err := s.col.Watch(wctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("watch messages: %w: %v", apperr.ErrSyncFailure, err)
	}

	feed := NewMessageFeed(1, cancel)
	go func() {
		defer func() {
			if err := cs.Close(context.Background()); err != nil {
				s.log.Warnw("message change stream close", "err", err)
			}
		}()

		snap, err := s.queryByConversation(wctx, conversationID)
		if err != nil {
			feed.Fail(fmt.Errorf("%w: %v", apperr.ErrSyncFailure, err))
			return
		}
		if !feed.Emit(snap) {
			return
		}
		for cs.Next(wctx) {
			snap, err := s.queryByConversation(wctx, conversationID)
			if err != nil {
				feed.Fail(fmt.Errorf("%w: %v", apperr.ErrSyncFailure, err))
				return
			}
			if !feed.Emit(snap) {
				return
			}
		}
		if err := cs.Err(); err != nil && wctx.Err() == nil {
			feed.Fail(fmt.Errorf("message stream: %w: %v", apperr.ErrSyncFailure, err))
			return
		}
		feed.Close()
	}()
	return feed, nil
}
