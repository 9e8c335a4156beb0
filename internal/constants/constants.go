package constants

import "time"

// for api auth
type ContextKey string

const (
	AuthorizationPayloadKey ContextKey = "authorization_payload"
	RequestIDKey            ContextKey = "request_id"
)

const (
	// 前端沿用 token: Bearer <jwt>
	TokenHeader             = "token"
	AuthorizationHeader     = "Authorization"
	AuthorizationTypeBearer = "bearer"
	IdempotencyKeyHeader    = "Idempotency-Key"
	RequestIDHeader         = "X-Request-ID"
)

type ENV string

const (
	Debug ENV = "debug"
	Dev   ENV = "development"
	Stag  ENV = "staging"
	Prod  ENV = "production"
)

const (
	ServerShutdownTimeout = 30 * time.Second
	NotificationDrainTime = 10 * time.Second
	ReadHeaderTimeout     = 10 * time.Second
)
