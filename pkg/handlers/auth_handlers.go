package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/driftchat/driftchat/pkg/auth"
	"github.com/driftchat/driftchat/pkg/errs"
	"github.com/driftchat/driftchat/pkg/models"
	"github.com/driftchat/driftchat/pkg/store"
)

type AuthHandler struct {
	store  *store.Store
	logger *slog.Logger
}

func NewAuthHandler(store *store.Store, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{store: store, logger: logger}
}

// Register godoc
// @Summary Register a new user
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "registration data"
// @Success 201 {object} models.AuthResponse
// @Failure 409 {object} map[string]string
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Register: invalid request body", "error", err)
		respondError(w, errs.Validation("invalid request body"))
		return
	}

	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)

	if req.Name == "" {
		respondError(w, errs.Validation("name is required"))
		return
	}
	if req.Phone == "" && req.Email == "" {
		respondError(w, errs.Validation("phone or email is required"))
		return
	}
	if req.Password == "" {
		respondError(w, errs.Validation("password is required"))
		return
	}

	h.logger.Info("Register: processing registration", "name", req.Name)

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("Register: failed to hash password", "error", err)
		respondError(w, err)
		return
	}

	user := &models.User{
		Name:         req.Name,
		PasswordHash: hash,
	}
	if req.Phone != "" {
		user.Phone = &req.Phone
	}
	if req.Email != "" {
		user.Email = &req.Email
	}

	if err := h.store.CreateUser(user); err != nil {
		h.logger.Warn("Register: failed to create user", "error", err, "name", req.Name)
		respondError(w, err)
		return
	}

	sessionID := uuid.New().String()
	token, expiresAt, err := auth.GenerateJWT(user.ID, sessionID)
	if err != nil {
		h.logger.Error("Register: failed to generate JWT", "error", err, "user_id", user.ID)
		respondError(w, err)
		return
	}

	h.logger.Info("Register: successful", "user_id", user.ID, "session_id", sessionID)

	respondJSON(w, http.StatusCreated, models.AuthResponse{
		Token:     token,
		User:      *user,
		ExpiresAt: expiresAt,
	})
}

// Login godoc
// @Summary Authenticate with phone or email plus password
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "credentials"
// @Success 200 {object} models.AuthResponse
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Login: invalid request body", "error", err)
		respondError(w, errs.Validation("invalid request body"))
		return
	}

	req.Login = strings.TrimSpace(req.Login)
	if req.Login == "" || req.Password == "" {
		respondError(w, errs.Validation("login and password are required"))
		return
	}

	h.logger.Info("Login: processing login", "login", req.Login)

	user, err := h.store.FindUserByLogin(req.Login)
	if err != nil {
		h.logger.Warn("Login: user lookup failed", "error", err, "login", req.Login)
		respondError(w, err)
		return
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		h.logger.Warn("Login: invalid credentials", "user_id", user.ID)
		respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	sessionID := uuid.New().String()
	token, expiresAt, err := auth.GenerateJWT(user.ID, sessionID)
	if err != nil {
		h.logger.Error("Login: failed to generate JWT", "error", err, "user_id", user.ID)
		respondError(w, err)
		return
	}

	h.logger.Info("Login: successful", "user_id", user.ID, "session_id", sessionID)

	respondJSON(w, http.StatusOK, models.AuthResponse{
		Token:     token,
		User:      *user,
		ExpiresAt: expiresAt,
	})
}

// RefreshToken godoc
// @Summary Reissue a token with a fresh expiry
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string
// @Router /api/auth/refresh [post]
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" || token == authHeader {
		respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "authorization header required"})
		return
	}

	newToken, expiresAt, err := auth.RefreshJWT(token)
	if err != nil {
		h.logger.Warn("RefreshToken: failed to refresh token", "error", err)
		respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token":      newToken,
		"expires_at": expiresAt,
	})
}
