package redis_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyPrefix  = "order:idempotency:"
	DefaultIdempotencyTTL = 24 * time.Hour
)

var (
	ErrEmptyIdempotencyKey = errors.New("idempotency key is empty")
)

// IIdempotencyRepo 建單去重
type IIdempotencyRepo interface {
	// Acquire 回傳 false 代表 key 已被使用
	Acquire(ctx context.Context, key string, ownerID string) (bool, error)
	// Bind 建單成功後把 key 綁到 orderID
	Bind(ctx context.Context, key string, orderID string) error
	// Release 建單失敗時釋放 key
	Release(ctx context.Context, key string) error
	Lookup(ctx context.Context, key string) (string, error)
}

type IdempotencyRedisRepo struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewIdempotencyRedisRepo(client redis.Cmdable, ttl time.Duration) *IdempotencyRedisRepo {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyRedisRepo{
		client: client,
		ttl:    ttl,
	}
}

func (r *IdempotencyRedisRepo) Acquire(ctx context.Context, key string, ownerID string) (bool, error) {
	if key == "" {
		return false, ErrEmptyIdempotencyKey
	}
	ok, err := r.client.SetNX(ctx, getIdempotencyKey(key), "pending:"+ownerID, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire idempotency key %s failed: %w", key, err)
	}
	return ok, nil
}

func (r *IdempotencyRedisRepo) Bind(ctx context.Context, key string, orderID string) error {
	if key == "" {
		return ErrEmptyIdempotencyKey
	}
	// KEEPTTL 保留 Acquire 時設的過期時間
	if err := r.client.SetArgs(ctx, getIdempotencyKey(key), orderID, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("bind idempotency key %s failed: %w", key, err)
	}
	return nil
}

func (r *IdempotencyRedisRepo) Release(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := r.client.Del(ctx, getIdempotencyKey(key)).Err(); err != nil {
		return fmt.Errorf("release idempotency key %s failed: %w", key, err)
	}
	return nil
}

// Lookup key 不存在時回傳空字串
func (r *IdempotencyRedisRepo) Lookup(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, getIdempotencyKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("lookup idempotency key %s failed: %w", key, err)
	}
	return val, nil
}

func getIdempotencyKey(key string) string {
	return idempotencyKeyPrefix + key
}

var _ IIdempotencyRepo = (*IdempotencyRedisRepo)(nil)
