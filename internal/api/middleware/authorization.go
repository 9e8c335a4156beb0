package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hango1705/bongland-backend/internal/api/response"
	"github.com/hango1705/bongland-backend/internal/service"
	"github.com/hango1705/bongland-backend/internal/util"
	"github.com/rs/zerolog/log"
)

// OrderOwnerLookup 查詢訂單所屬 user
type OrderOwnerLookup interface {
	GetOrderOwner(ctx context.Context, orderID string) (string, error)
}

// 以下 middleware 都必須掛在 AuthMiddleware 之後

func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := util.GetTokenPayloadFromContext(r.Context())
		if claims == nil {
			response.ErrorJSON(w, http.StatusUnauthorized, "Authentication token is required")
			return
		}
		if !claims.IsAdmin {
			log.Warn().Str("user_id", claims.ID).Str("url", r.URL.Path).Msg("access denied, user is not admin")
			response.ErrorJSON(w, http.StatusForbidden, "Admin privileges required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SelfOrAdminMiddleware 路徑參數 id 為 user id
func SelfOrAdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := util.GetTokenPayloadFromContext(r.Context())
		if claims == nil {
			response.ErrorJSON(w, http.StatusUnauthorized, "Authentication token is required")
			return
		}
		if !claims.IsAdmin && chi.URLParam(r, "id") != claims.ID {
			response.ErrorJSON(w, http.StatusForbidden, "Access denied - you can only view your own orders")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// OrderOwnerMiddleware 路徑參數 id 為 order id，admin 可存取所有訂單
func OrderOwnerMiddleware(lookup OrderOwnerLookup) func(next http.Handler) http.Handler {
	if lookup == nil {
		panic("OrderOwnerMiddleware lookup is nil")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := util.GetTokenPayloadFromContext(r.Context())
			if claims == nil {
				response.ErrorJSON(w, http.StatusUnauthorized, "Authentication token is required")
				return
			}

			ownerID, err := lookup.GetOrderOwner(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				switch {
				case errors.Is(err, service.ErrNotFound):
					response.ErrorJSON(w, http.StatusNotFound, "Order not found")
				case errors.Is(err, service.ErrValidation):
					response.ErrorJSON(w, http.StatusBadRequest, "The orderId is required")
				default:
					log.Error().Err(err).Msg("check order ownership failed")
					response.ErrorJSON(w, http.StatusInternalServerError, "Error checking permissions")
				}
				return
			}

			if !claims.IsAdmin && ownerID != claims.ID {
				log.Warn().Str("user_id", claims.ID).Str("order_owner", ownerID).Msg("access denied, not order owner")
				response.ErrorJSON(w, http.StatusForbidden, "Access denied - insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
