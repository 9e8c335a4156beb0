package ratelimit

import "context"

type LimiterConfig struct {
	Capacity int
	RatePS   float64 // tokens/秒
}

func GetDefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		Capacity: 10,
		RatePS:   1,
	}
}

// ILimiter 以 key 區分的限流器
type ILimiter interface {
	Allow(ctx context.Context, key string) bool
}

func normalize(config *LimiterConfig) LimiterConfig {
	if config == nil {
		return GetDefaultLimiterConfig()
	}
	c := *config
	def := GetDefaultLimiterConfig()
	if c.Capacity <= 0 {
		c.Capacity = def.Capacity
	}
	if c.RatePS <= 0 {
		c.RatePS = def.RatePS
	}
	return c
}
