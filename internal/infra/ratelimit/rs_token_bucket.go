package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const rsKeyPrefix = "ratelimit:"

var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local rate = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])

	-- 取得或初始化 bucket 狀態
	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local currentTokens = tonumber(bucket[1])
	local lastRefill = tonumber(bucket[2])

	if currentTokens == nil then
		currentTokens = capacity
		lastRefill = now
	end

	-- 計算需要補充的 tokens
	local elapsedSeconds = (now - lastRefill) / 1000000000
	currentTokens = math.min(capacity, currentTokens + elapsedSeconds * rate)

	local allowed = 0
	if currentTokens >= 1 then
		currentTokens = currentTokens - 1
		allowed = 1
	end

	redis.call('HSET', key, 'tokens', currentTokens, 'last_refill', now)
	redis.call('EXPIRE', key, 60)

	return allowed
`)

// RsBucketToken redis 上的 token bucket，多個實例共用額度
type RsBucketToken struct {
	LimiterConfig
	client redis.Scripter
}

func NewRsBucketToken(client redis.Scripter, config *LimiterConfig) *RsBucketToken {
	return &RsBucketToken{
		client:        client,
		LimiterConfig: normalize(config),
	}
}

// Allow redis 出錯時放行，限流不應擋住下單
func (r *RsBucketToken) Allow(ctx context.Context, key string) bool {
	result, err := tokenBucketScript.Run(
		ctx,
		r.client,
		[]string{rsKeyPrefix + key},
		r.Capacity,
		r.RatePS,
		time.Now().UnixNano(),
	).Int64()
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("rate limit script failed")
		return true
	}

	return result == 1
}

var _ ILimiter = (*RsBucketToken)(nil)
