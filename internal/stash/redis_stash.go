package stash

import (
	"context"
	"time"

	"github.com/redis/rueidis"
)

const keyPrefix = "vista_stash:"

type RedisStash struct {
	client rueidis.Client
	ttl    time.Duration
}

func NewRedisStash(client rueidis.Client, ttl time.Duration) *RedisStash {
	return &RedisStash{
		client: client,
		ttl:    ttl,
	}
}

func (s *RedisStash) Put(ctx context.Context, sessionID, params string) error {
	cmd := s.client.B().Set().Key(keyPrefix + sessionID).Value(params).
		Ex(s.ttl).Build()
	return s.client.Do(ctx, cmd).Error()
}

// Take reads and deletes in one command, so a stale query can never be
// re-applied on the next navigation.
func (s *RedisStash) Take(ctx context.Context, sessionID string) (string, bool, error) {
	cmd := s.client.B().Getdel().Key(keyPrefix + sessionID).Build()
	result := s.client.Do(ctx, cmd)

	params, err := result.ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return "", false, nil
		}
		return "", false, err
	}

	return params, true, nil
}
