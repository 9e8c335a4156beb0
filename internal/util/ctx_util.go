package util

import (
	"context"

	"github.com/hango1705/bongland-backend/internal/constants"
	"github.com/hango1705/bongland-backend/internal/infra/auth/token"
)

// GetTokenPayloadFromContext 取不到時回傳 nil
func GetTokenPayloadFromContext(ctx context.Context) *token.UserClaims {
	if v, ok := ctx.Value(constants.AuthorizationPayloadKey).(*token.UserClaims); ok {
		return v
	}
	return nil
}

func WithTokenPayload(ctx context.Context, claims *token.UserClaims) context.Context {
	return context.WithValue(ctx, constants.AuthorizationPayloadKey, claims)
}

func GetRequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(constants.RequestIDKey).(string); ok {
		return v
	}
	return "unknown"
}
