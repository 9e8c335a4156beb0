package middleware

import (
	"net/http"
	"strings"

	"github.com/hango1705/bongland-backend/internal/api/response"
	"github.com/hango1705/bongland-backend/internal/constants"
	"github.com/hango1705/bongland-backend/internal/infra/auth/token"
	"github.com/hango1705/bongland-backend/internal/util"
	"github.com/rs/zerolog/log"
)

// AuthMiddleware 驗證 token，成功後把 claims 放進 ctx
// 先讀 token header，沒有再讀 Authorization
func AuthMiddleware(tokenMaker token.Maker) func(next http.Handler) http.Handler {
	if tokenMaker == nil {
		panic("AuthMiddleware tokenMaker is nil")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accessToken, ok := bearerToken(r)
			if !ok {
				response.ErrorJSON(w, http.StatusUnauthorized, "Authentication token is required")
				return
			}

			claims, err := tokenMaker.VerifyToken(accessToken)
			if err != nil {
				log.Debug().Err(err).Str("request_id", util.GetRequestIDFromContext(r.Context())).Msg("token verification failed")
				response.ErrorJSON(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(util.WithTokenPayload(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get(constants.TokenHeader)
	if header == "" {
		header = r.Header.Get(constants.AuthorizationHeader)
	}
	fields := strings.Fields(header)
	if len(fields) != 2 || strings.ToLower(fields[0]) != constants.AuthorizationTypeBearer {
		return "", false
	}
	return fields[1], true
}
