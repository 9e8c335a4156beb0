package middleware

import (
	"net"
	"net/http"

	"github.com/hango1705/bongland-backend/internal/api/response"
	"github.com/hango1705/bongland-backend/internal/infra/ratelimit"
	"github.com/hango1705/bongland-backend/internal/util"
	"github.com/rs/zerolog/log"
)

// RateLimitMiddleware 已登入以 user id 限流，否則以來源 IP
func RateLimitMiddleware(limiter ratelimit.ILimiter) func(next http.Handler) http.Handler {
	if limiter == nil {
		panic("RateLimitMiddleware limiter is nil")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + clientIP(r)
			if claims := util.GetTokenPayloadFromContext(r.Context()); claims != nil {
				key = "user:" + claims.ID
			}

			if !limiter.Allow(r.Context(), key) {
				log.Warn().Str("key", key).Str("url", r.URL.Path).Msg("rate limited")
				response.ErrorJSON(w, http.StatusTooManyRequests, "Too many requests, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
