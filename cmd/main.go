package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hango1705/bongland-backend/internal/api"
	"github.com/hango1705/bongland-backend/internal/api/handler"
	"github.com/hango1705/bongland-backend/internal/api/router"
	"github.com/hango1705/bongland-backend/internal/appcontext"
	"github.com/hango1705/bongland-backend/internal/config"
	"github.com/hango1705/bongland-backend/internal/constants"
	"github.com/rs/zerolog/log"
)

func main() {
	app, err := appcontext.NewApplicationContext(config.GetConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init application")
		return
	}

	// 初始化 handler
	orderHandler := handler.NewOrderHandler(app.OrderService, app.OrderQueryService)
	addressHandler := handler.NewAddressHandler(app.AddressService)
	healthHandler := handler.NewHealthHandler(app.HealthChecks())

	server := api.NewServer(orderHandler, addressHandler, healthHandler)

	// 設置路由
	r := router.SetupRouter(server, router.Config{
		TokenMaker:     app.TokenMaker,
		Limiter:        app.Limiter,
		OwnerLookup:    app.OrderQueryService,
		AllowedOrigins: app.Cf.CorsOrigins(),
		Logger:         app.Logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", app.Cf.ServerPort),
		Handler:           r,
		ReadHeaderTimeout: constants.ReadHeaderTimeout,
	}

	// 設置訊號監聽
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	shutDownCompleted := make(chan struct{}, 1)
	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ServerShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}

		if err := app.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Application shutdown error")
		}

		shutDownCompleted <- struct{}{}
	}()

	// 啟動服務
	log.Info().Str("addr", srv.Addr).Msg("Server starting")
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server stopped unexpectedly")
	}
	<-shutDownCompleted
	log.Info().Msg("closed completed")
}
