// Package presence tracks which users currently hold an open socket,
// backed by Redis, and stamps last-seen on disconnect.
package presence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/VehanRajintha/ChatX/internal/store"
)

type Tracker struct {
	rdb   *redis.Client
	users store.UserStore
	log   *zap.SugaredLogger
}

func NewTracker(rdb *redis.Client, users store.UserStore, log *zap.SugaredLogger) *Tracker {
	return &Tracker{rdb: rdb, users: users, log: log}
}

func key(userID string) string { return "presence:" + userID }

func (t *Tracker) SetOnline(ctx context.Context, userID string) {
	if err := t.rdb.Set(ctx, key(userID), "1", 0).Err(); err != nil {
		t.log.Warnw("presence set", "user", userID, "err", err)
	}
}

func (t *Tracker) SetOffline(ctx context.Context, userID string) {
	if err := t.rdb.Del(ctx, key(userID)).Err(); err != nil {
		t.log.Warnw("presence clear", "user", userID, "err", err)
	}
	now := time.Now().UTC()
	if err := t.users.UpdateFields(ctx, userID, map[string]any{"last_seen": now, "status": "offline"}); err != nil {
		t.log.Warnw("last seen", "user", userID, "err", err)
	}
}

func (t *Tracker) IsOnline(ctx context.Context, userID string) (bool, error) {
	s, err := t.rdb.Get(ctx, key(userID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s == "1", nil
}
