package main

import (
	"fmt"
	"net/http"

	"github.com/rs/cors"

	"github.com/spinroom/spinroom/internal/api"
	"github.com/spinroom/spinroom/internal/auth"
	"github.com/spinroom/spinroom/internal/config"
	"github.com/spinroom/spinroom/internal/gateway"
	"github.com/spinroom/spinroom/internal/room"
)

func setupServer(cfg config.Config, rooms *room.Service, issuer *auth.Issuer, hub *gateway.Hub) *http.Server {
	mux := http.NewServeMux()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	// Room API
	api.NewHandler(rooms, issuer).RegisterRoutes(mux)

	// WebSocket gateway
	gateway.NewWebSocketHandler(hub).RegisterRoutes(mux)

	// Add health check endpoint
	setupHealthCheck(mux)

	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      c.Handler(mux),
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
		IdleTimeout:  cfg.Server.IdleTimeout.Std(),
	}
}

func setupHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}
