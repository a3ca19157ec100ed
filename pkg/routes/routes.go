package routes

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/driftchat/driftchat/pkg/auth"
	"github.com/driftchat/driftchat/pkg/handlers"
	"github.com/driftchat/driftchat/pkg/hub"
	"github.com/driftchat/driftchat/pkg/store"
)

func NewRouter(h *hub.Hub, s *store.Store, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	// Create handlers
	authHandler := handlers.NewAuthHandler(s, logger)
	userHandler := handlers.NewUserHandler(s, logger)
	friendHandler := handlers.NewFriendHandler(s, logger)
	messageHandler := handlers.NewMessageHandler(s, h.Dispatcher(), logger)

	// Authentication endpoints (no auth required)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/refresh", authHandler.RefreshToken)

	// WebSocket endpoint
	mux.HandleFunc("/ws", handlers.HandleWS(h))

	// API docs
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// API endpoints with authentication middleware
	apiRouter := http.NewServeMux()

	// User endpoints
	apiRouter.HandleFunc("GET /api/users/me", userHandler.GetCurrentUser)
	apiRouter.HandleFunc("GET /api/users/search", userHandler.SearchUsers)
	apiRouter.HandleFunc("GET /api/users/online", userHandler.GetOnlineUsers)
	apiRouter.HandleFunc("GET /api/users/{id}", userHandler.GetUser)

	// Friend endpoints
	apiRouter.HandleFunc("GET /api/friends", friendHandler.ListFriends)
	apiRouter.HandleFunc("POST /api/friends/requests", friendHandler.CreateRequest)
	apiRouter.HandleFunc("GET /api/friends/requests", friendHandler.ListPending)
	apiRouter.HandleFunc("POST /api/friends/requests/{id}/accept", friendHandler.AcceptRequest)

	// Message endpoints
	apiRouter.HandleFunc("GET /api/messages", messageHandler.GetMessages)
	apiRouter.HandleFunc("POST /api/messages", messageHandler.SendMessage)

	// Apply authentication middleware to API routes
	mux.Handle("/api/", auth.AuthMiddleware(apiRouter))

	return mux
}
