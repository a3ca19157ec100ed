package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/driftchat/driftchat/config"
	"github.com/driftchat/driftchat/pkg/auth"
	"github.com/driftchat/driftchat/pkg/hub"
	"github.com/driftchat/driftchat/pkg/routes"
	"github.com/driftchat/driftchat/pkg/store"

	_ "github.com/driftchat/driftchat/docs"
)

// @title DriftChat API
// @version 1.0
// @description Real-time direct-messaging service with presence-tracked dispatch
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()

	logger.Info("Starting DriftChat server", "port", cfg.Server.Port, "env", cfg.Server.Env)

	// 1. Initialize storage
	storage, err := store.NewStore(ctx, cfg.Database.URL, cfg.Redis.URL, logger)
	if err != nil {
		log.Fatalf("Failed to connect to storage: %v", err)
	}
	defer storage.Close()

	if err := storage.InitSchema(); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	// 2. Initialize authentication
	auth.InitJWT(cfg.JWT.Secret, cfg.JWT.Expiration)

	// 3. Initialize presence registry, dispatch engine and hub
	presence := hub.NewPresence()
	dispatcher := hub.NewDispatcher(storage, presence, storage, cfg.Policy.RejectEmptyMessages, logger)
	wsHub := hub.NewHub(storage, storage, presence, dispatcher, cfg.WebSocket, logger)
	go wsHub.Run()
	go wsHub.ListenToDispatchSync(storage.SubscribeDispatchSync())

	// 4. Initialize HTTP router
	router := routes.NewRouter(wsHub, storage, logger)

	// 5. Start HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	logger.Info("Server is ready to accept connections", "addr", server.Addr)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed to start: %v", err)
	}
}
