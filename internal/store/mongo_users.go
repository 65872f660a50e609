package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/VehanRajintha/ChatX/internal/apperr"
	"github.com/VehanRajintha/ChatX/internal/models"
)

type MongoUserStore struct {
	col *mongo.Collection
}

var _ UserStore = (*MongoUserStore)(nil)

func (s *MongoUserStore) Get(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w: %v", apperr.ErrPersistence, err)
	}
	return &u, nil
}

func (s *MongoUserStore) List(ctx context.Context) ([]models.User, error) {
	cur, err := s.col.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "display_name", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w: %v", apperr.ErrPersistence, err)
	}
	defer cur.Close(ctx)

	out := []models.User{}
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, fmt.Errorf("decode user: %w: %v", apperr.ErrPersistence, err)
		}
		out = append(out, u)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("user cursor: %w: %v", apperr.ErrPersistence, err)
	}
	return out, nil
}

func (s *MongoUserStore) Upsert(ctx context.Context, u *models.User) error {
	fields := bson.M{
		"email":        u.Email,
		"display_name": u.DisplayName,
		"photo_url":    u.PhotoURL,
		"is_private":   u.IsPrivate,
	}
	if u.Status != "" {
		fields["status"] = u.Status
	}
	if u.LastSeen != nil {
		fields["last_seen"] = u.LastSeen
	}
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": u.ID},
		bson.M{"$set": fields, "$setOnInsert": bson.M{"created_at": u.CreatedAt}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert user: %w: %v", apperr.ErrPersistence, err)
	}
	return nil
}

func (s *MongoUserStore) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update user: %w: %v", apperr.ErrPersistence, err)
	}
	return nil
}
