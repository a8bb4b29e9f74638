package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adonovan/spaghetti/pkg/dag"
)

// RedisKeyPrefix namespaces the keys written by RedisStore.
const RedisKeyPrefix = "spaghetti:"

// RedisStore keeps each record as a JSON string value.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the server named by a redis:// URL and checks
// that it answers.
func NewRedisStore(ctx context.Context, rawURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, storeErr(err, "parse redis URL")
	}
	client := redis.NewClient(opts)
	if err := ping(ctx, func(ctx context.Context) error { return client.Ping(ctx).Err() }); err != nil {
		client.Close()
		return nil, storeErr(err, "connect to redis at %s", opts.Addr)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Load(ctx context.Context, key string) ([]dag.EdgeKey, error) {
	data, err := s.client.Get(ctx, RedisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err, "redis get")
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, storeErr(err, "parse record")
	}
	return rec.Broken, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, edges []dag.EdgeKey) error {
	if len(edges) == 0 {
		return storeErr(s.client.Del(ctx, RedisKeyPrefix+key).Err(), "redis del")
	}
	data, err := json.Marshal(Record{Key: key, Broken: edges, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return storeErr(err, "marshal record")
	}
	return storeErr(s.client.Set(ctx, RedisKeyPrefix+key, data, 0).Err(), "redis set")
}

func (s *RedisStore) Close() error { return s.client.Close() }

var _ Store = (*RedisStore)(nil)
