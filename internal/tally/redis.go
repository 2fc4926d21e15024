package tally

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the record in a single Redis hash.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore returns a store writing the hash at key.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) (Record, error) {
	res := s.client.HGetAll(ctx, s.key)
	if err := res.Err(); err != nil {
		return Record{}, fmt.Errorf("redis hgetall %s: %w", s.key, err)
	}
	if len(res.Val()) == 0 {
		return Record{}, ErrNoRecord
	}
	var rec Record
	if err := res.Scan(&rec); err != nil {
		return Record{}, fmt.Errorf("decode tally from redis: %w", err)
	}
	return rec, nil
}

func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	err := s.client.HSet(ctx, s.key,
		"playerXWins", rec.XWins,
		"playerOWins", rec.OWins,
		"draws", rec.Draws,
	).Err()
	if err != nil {
		return fmt.Errorf("redis hset %s: %w", s.key, err)
	}
	return nil
}
