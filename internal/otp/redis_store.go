package otp

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps pending codes in redis with a native TTL, so expiry needs
// no sweeper and codes survive a process restart.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr, password string) *RedisStore {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisStore{client: c}
}

func (r *RedisStore) Put(ctx context.Context, phone, code string, ttl time.Duration) error {
	return r.client.Set(ctx, codeKey(phone), code, ttl).Err()
}

func (r *RedisStore) Get(ctx context.Context, phone string) (string, bool) {
	v, err := r.client.Get(ctx, codeKey(phone)).Result()
	if err != nil {
		return "", false
	}
	return v, true
}

func (r *RedisStore) Del(ctx context.Context, phone string) {
	_ = r.client.Del(ctx, codeKey(phone)).Err()
}

func codeKey(phone string) string { return "otp:code:" + phone }
