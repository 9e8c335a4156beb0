package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hango1705/bongland-backend/internal/api"
	m "github.com/hango1705/bongland-backend/internal/api/middleware"
	"github.com/hango1705/bongland-backend/internal/constants"
	"github.com/hango1705/bongland-backend/internal/infra/auth/token"
	"github.com/hango1705/bongland-backend/internal/infra/ratelimit"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Config struct {
	TokenMaker     token.Maker
	Limiter        ratelimit.ILimiter
	OwnerLookup    m.OrderOwnerLookup
	AllowedOrigins []string
	Logger         *zerolog.Logger
}

func SetupRouter(server *api.Server, cf Config) http.Handler {
	if cf.Limiter == nil {
		cf.Limiter = ratelimit.NewTokenBucket(nil)
	}

	r := chi.NewRouter()

	// 全局中間件
	r.Use(middleware.RealIP)
	r.Use(m.RequestIdMiddleware)
	r.Use(m.LoggerMiddleware(cf.Logger))
	r.Use(m.RecoverMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cf.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Content-Type",
			constants.AuthorizationHeader,
			constants.TokenHeader,
			constants.IdempotencyKeyHeader,
			constants.RequestIDHeader,
		},
		ExposedHeaders:   []string{constants.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	auth := m.AuthMiddleware(cf.TokenMaker)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", server.HealthHandler.Health)

		r.Route("/order", func(r chi.Router) {
			r.Use(auth)

			r.With(m.RateLimitMiddleware(cf.Limiter)).Post("/create", server.OrderHandler.CreateOrder)
			r.With(m.SelfOrAdminMiddleware).Get("/get-all-order/{id}", server.OrderHandler.GetAllOrderDetails)
			r.With(m.OrderOwnerMiddleware(cf.OwnerLookup)).Get("/get-details-order/{id}", server.OrderHandler.GetDetailsOrder)
			r.With(m.OrderOwnerMiddleware(cf.OwnerLookup)).Delete("/cancel-order/{id}", server.OrderHandler.CancelOrderDetails)

			r.Group(func(r chi.Router) {
				r.Use(m.AdminMiddleware)
				r.Put("/update-shipping/{id}", server.OrderHandler.UpdateOrderShipping)
				r.Put("/update-paid/{id}", server.OrderHandler.UpdateOrderPaid)
				r.Put("/update-delivered/{id}", server.OrderHandler.UpdateOrderDelivered)
				r.Post("/delete-many-order", server.OrderHandler.DeleteManyOrder)
				r.Get("/get-all-order", server.OrderHandler.GetAllOrder)
			})
		})

		r.Route("/address", func(r chi.Router) {
			r.Get("/provinces", server.AddressHandler.GetProvinces)
			r.Get("/districts/{provinceCode}", server.AddressHandler.GetDistricts)
			r.Get("/wards/{districtCode}", server.AddressHandler.GetWards)
			r.Post("/full-address", server.AddressHandler.GetFullAddress)
		})
	})

	_ = chi.Walk(r, func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
		log.Debug().Str("method", method).Str("route", route).Msg("route registered")
		return nil
	})

	return otelhttp.NewHandler(r, "bongland-http",
		otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
			return req.Method + " " + req.URL.Path
		}),
	)
}
