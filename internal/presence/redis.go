package presence

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one sorted set per thread, scored by mark expiry in
// unix milliseconds, so several server instances share typing state.
type RedisStore struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	prefix string
	now    func() time.Time
}

func NewRedisStore(rdb redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl, prefix: "gigchat:typing:", now: time.Now}
}

// NewRedisClient parses a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (r *RedisStore) key(threadKey string) string { return r.prefix + threadKey }

func (r *RedisStore) Mark(ctx context.Context, threadKey, userID string) error {
	now := r.now()
	key := r.key(threadKey)
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZAdd(ctx, key, redis.Z{Score: float64(now.Add(r.ttl).UnixMilli()), Member: userID})
		p.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(now.UnixMilli(), 10))
		p.PExpire(ctx, key, r.ttl)
		return nil
	})
	return err
}

func (r *RedisStore) Typing(ctx context.Context, threadKey string, exclude []string) (bool, error) {
	users, err := r.rdb.ZRangeByScore(ctx, r.key(threadKey), &redis.ZRangeBy{
		Min: "(" + strconv.FormatInt(r.now().UnixMilli(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return false, err
	}
	for _, uid := range users {
		if !excluded(exclude, uid) {
			return true, nil
		}
	}
	return false, nil
}
