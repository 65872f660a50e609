package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/VehanRajintha/ChatX/internal/config"
)

// NewMongoClient connects and pings with a short deadline.
func NewMongoClient(cfg *config.Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

// Mongo bundles the collection-backed store implementations.
type Mongo struct {
	Conversations *MongoConversationStore
	Messages      *MongoMessageStore
	Users         *MongoUserStore
}

func NewMongo(client *mongo.Client, cfg *config.Config, log *zap.SugaredLogger) *Mongo {
	db := client.Database(cfg.Mongo.Database)
	return &Mongo{
		Conversations: &MongoConversationStore{col: db.Collection(cfg.Mongo.ConversationsCollection), log: log},
		Messages:      &MongoMessageStore{col: db.Collection(cfg.Mongo.MessagesCollection), log: log},
		Users:         &MongoUserStore{col: db.Collection(cfg.Mongo.UsersCollection)},
	}
}
