package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	voicebox_errors "voicebox/pkg/errors"
)

// RedisStore persists sessions in Redis under session:{id} with the session
// TTL, so launches survive process restarts and multiple replicas share one
// session space. Expiry is Redis's job; Touch slides the TTL on activity.
type RedisStore struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewRedisStore(client *goredis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (s *RedisStore) Create(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(sess.ID), data, s.ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Result()
	if err == goredis.Nil {
		return nil, voicebox_errors.ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *RedisStore) Touch(ctx context.Context, sess *Session) error {
	sess.LastSeenAt = time.Now()
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(sess.ID), data, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, sessionKey(id)).Err()
}

// Ping checks that Redis is reachable. Startup fails fast on a bad address.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
