package statestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs authorization sessions with Redis so callbacks can
// land on any instance of a multi-instance deployment.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(state string) string {
	return "oauth:state:" + state
}

func (s *RedisStore) Save(ctx context.Context, session AuthorizationSession, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(session.State), payload, ttl).Err(); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}

func (s *RedisStore) Consume(ctx context.Context, state string) (*AuthorizationSession, error) {
	bytes, err := s.client.GetDel(ctx, redisKey(state)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("load state: %w", err)
	}
	var session AuthorizationSession
	if err := json.Unmarshal(bytes, &session); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &session, nil
}
