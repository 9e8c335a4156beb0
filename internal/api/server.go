package api

import "github.com/hango1705/bongland-backend/internal/api/handler"

type Server struct {
	OrderHandler   *handler.OrderHandler
	AddressHandler *handler.AddressHandler
	HealthHandler  *handler.HealthHandler
}

func NewServer(
	orderHandler *handler.OrderHandler,
	addressHandler *handler.AddressHandler,
	healthHandler *handler.HealthHandler,
) *Server {
	return &Server{
		OrderHandler:   orderHandler,
		AddressHandler: addressHandler,
		HealthHandler:  healthHandler,
	}
}
